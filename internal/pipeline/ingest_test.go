package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusgeo/stac-populator/internal/ncmeta"
	"github.com/nimbusgeo/stac-populator/internal/observability"
	"github.com/nimbusgeo/stac-populator/internal/stac"
)

// sliceLoader yields a fixed set of datasets.
type sliceLoader struct {
	names   []string
	bundles []*ncmeta.Bundle
	next    int
}

func (l *sliceLoader) Next(ctx context.Context) (string, *ncmeta.Bundle, error) {
	if l.next >= len(l.names) {
		return "", nil, io.EOF
	}
	i := l.next
	l.next++
	return l.names[i], l.bundles[i], nil
}

func (l *sliceLoader) Reset() error {
	l.next = 0
	return nil
}

// fakeSink records published documents and can reject chosen item IDs.
type fakeSink struct {
	collections []*stac.Collection
	items       []*stac.Item
	rejectItems map[string]error
}

func (s *fakeSink) PostCollection(ctx context.Context, collection *stac.Collection) (string, error) {
	s.collections = append(s.collections, collection)
	if len(s.collections) == 1 {
		return "created", nil
	}
	return "updated", nil
}

func (s *fakeSink) PostItem(ctx context.Context, collectionID string, item *stac.Item) (string, error) {
	if err := s.rejectItems[item.ID]; err != nil {
		return "", err
	}
	s.items = append(s.items, item)
	return "created", nil
}

// fakeEvents records item event publications.
type fakeEvents struct {
	itemIDs []string
	fail    error
}

func (e *fakeEvents) PublishItem(ctx context.Context, collectionID string, item *stac.Item) error {
	if e.fail != nil {
		return e.fail
	}
	e.itemIDs = append(e.itemIDs, item.ID)
	return nil
}

// namedBundle is a valid dataset bundle whose item ID comes from the id
// global attribute.
func namedBundle(id string) *ncmeta.Bundle {
	b := testBundle()
	b.Attributes["id"] = id
	return b
}

func idFromBundle(b *ncmeta.Bundle) (string, error) {
	return b.GlobalString("id")
}

func newTestIngestor(t *testing.T, opts IngestorOptions) *Ingestor {
	t.Helper()
	if opts.Builder == nil {
		opts.Builder = NewBuilder(discardLogger(), nil, idFromBundle, nil)
	}
	if opts.Collection == nil {
		opts.Collection = &stac.Collection{
			Type:        "Collection",
			StacVersion: stac.Version,
			ID:          "CMIP6_CanESM5",
			Summaries:   map[string]any{stac.SummariesBootstrapMarker: []any{"true"}},
		}
	}
	if opts.Mode == "" {
		opts.Mode = stac.ModeAll
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetricsForTesting()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewFakeClock()
	}
	return NewIngestor(opts)
}

func TestRun(t *testing.T) {
	sink := &fakeSink{}
	ingestor := newTestIngestor(t, IngestorOptions{
		Loader: &sliceLoader{
			names:   []string{"tas.nc", "pr.nc"},
			bundles: []*ncmeta.Bundle{namedBundle("item-tas"), namedBundle("item-pr")},
		},
		Sink: sink,
	})

	require.Error(t, ingestor.CheckReadiness(context.Background()), "not ready before the run")

	summary, err := ingestor.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Built)
	assert.Equal(t, 2, summary.Published)
	assert.Equal(t, 0, summary.Failed)

	require.Len(t, sink.items, 2)
	assert.Equal(t, "item-tas", sink.items[0].ID)
	assert.Equal(t, "CMIP6_CanESM5", sink.items[0].Collection)

	// Collection published before the first item and republished after.
	require.Len(t, sink.collections, 2)

	final := sink.collections[1]
	assert.Equal(t, []float64{0, -90, 360, 90}, final.Extent.Spatial.BBox[0], "item extents folded in")
	assert.NotContains(t, final.Summaries, stac.SummariesBootstrapMarker, "bootstrap marker cleared")

	assert.NoError(t, ingestor.CheckReadiness(context.Background()))
}

func TestRunSkipsFailingDataset(t *testing.T) {
	broken := namedBundle("item-broken")
	delete(broken.Groups["CFMetadata"].Attributes, "time_coverage_start")

	sink := &fakeSink{}
	ingestor := newTestIngestor(t, IngestorOptions{
		Loader: &sliceLoader{
			names:   []string{"broken.nc", "good.nc"},
			bundles: []*ncmeta.Bundle{broken, namedBundle("item-good")},
		},
		Sink: sink,
	})

	summary, err := ingestor.Run(context.Background())
	require.NoError(t, err, "a bad dataset never aborts the run")

	assert.Equal(t, 1, summary.Built)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Published)
	require.Len(t, sink.items, 1)
	assert.Equal(t, "item-good", sink.items[0].ID)
}

func TestRunDumpsRejectedItem(t *testing.T) {
	dumpDir := t.TempDir()
	sink := &fakeSink{
		rejectItems: map[string]error{"item-tas": errors.New("422 from API")},
	}
	ingestor := newTestIngestor(t, IngestorOptions{
		Loader: &sliceLoader{
			names:   []string{"tas.nc"},
			bundles: []*ncmeta.Bundle{namedBundle("item-tas")},
		},
		Sink:         sink,
		ErrorDumpDir: dumpDir,
	})

	summary, err := ingestor.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Built)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Published)

	data, err := os.ReadFile(filepath.Join(dumpDir, "error_STAC_rep_tas.nc.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"item-tas"`)
}

func TestRunPublishesItemEvents(t *testing.T) {
	events := &fakeEvents{}
	ingestor := newTestIngestor(t, IngestorOptions{
		Loader: &sliceLoader{
			names:   []string{"tas.nc"},
			bundles: []*ncmeta.Bundle{namedBundle("item-tas")},
		},
		Sink:   &fakeSink{},
		Events: events,
	})

	_, err := ingestor.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"item-tas"}, events.itemIDs)
}

func TestRunToleratesEventPublishFailure(t *testing.T) {
	sink := &fakeSink{}
	ingestor := newTestIngestor(t, IngestorOptions{
		Loader: &sliceLoader{
			names:   []string{"tas.nc"},
			bundles: []*ncmeta.Bundle{namedBundle("item-tas")},
		},
		Sink:   sink,
		Events: &fakeEvents{fail: errors.New("broker down")},
	})

	summary, err := ingestor.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Published, "event failures are advisory")
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &fakeSink{}
	ingestor := newTestIngestor(t, IngestorOptions{
		Loader: &sliceLoader{
			names:   []string{"tas.nc"},
			bundles: []*ncmeta.Bundle{namedBundle("item-tas")},
		},
		Sink: sink,
	})

	// The collection post happens before the loop, so only items are skipped.
	_, err := ingestor.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.items)
}

// fakeReader serves a stored collection and items for maintenance runs.
type fakeReader struct {
	collection *stac.Collection
	items      []*stac.Item
}

func (r *fakeReader) GetCollection(ctx context.Context, collectionID string) (*stac.Collection, error) {
	if r.collection == nil {
		return nil, errors.New("collection not found")
	}
	return r.collection, nil
}

func (r *fakeReader) ListItems(ctx context.Context, collectionID string) ([]*stac.Item, error) {
	return r.items, nil
}

func TestUpdateAPICollection(t *testing.T) {
	item := stac.NewItem()
	item.ID = "item-1"
	item.BBox = []float64{-10, -20, 30, 40}
	item.Properties["datetime"] = "2000-06-01T00:00:00Z"
	item.Properties["variable_id"] = "tas"

	reader := &fakeReader{
		collection: &stac.Collection{
			Type:        "Collection",
			StacVersion: stac.Version,
			ID:          "CMIP6_CanESM5",
		},
		items: []*stac.Item{item},
	}
	sink := &fakeSink{}

	err := UpdateAPICollection(context.Background(), discardLogger(), reader, sink, "CMIP6_CanESM5", stac.ModeAll, nil)
	require.NoError(t, err)

	require.Len(t, sink.collections, 1)
	updated := sink.collections[0]
	assert.Equal(t, []float64{-10, -20, 30, 40}, updated.Extent.Spatial.BBox[0])
	assert.Equal(t, []any{"tas"}, updated.Summaries["variable_id"])
}

func TestUpdateAPICollectionFetchFailure(t *testing.T) {
	err := UpdateAPICollection(context.Background(), discardLogger(), &fakeReader{}, &fakeSink{}, "missing", stac.ModeAll, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}
