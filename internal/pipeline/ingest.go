package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nimbusgeo/stac-populator/internal/ncmeta"
	"github.com/nimbusgeo/stac-populator/internal/observability"
	"github.com/nimbusgeo/stac-populator/internal/stac"
)

// Loader produces datasets one at a time. Next returns io.EOF when the
// source is exhausted; Reset restarts the iteration from the beginning.
type Loader interface {
	Next(ctx context.Context) (name string, bundle *ncmeta.Bundle, err error)
	Reset() error
}

// Sink publishes STAC documents with create-or-update semantics keyed by
// document ID.
type Sink interface {
	PostCollection(ctx context.Context, collection *stac.Collection) (string, error)
	PostItem(ctx context.Context, collectionID string, item *stac.Item) (string, error)
}

// ItemEventPublisher announces each successfully published item to
// downstream consumers. Failures are advisory.
type ItemEventPublisher interface {
	PublishItem(ctx context.Context, collectionID string, item *stac.Item) error
}

// RunSummary reports one completed ingestion run.
type RunSummary struct {
	Started   time.Time
	Finished  time.Time
	Built     int
	Failed    int
	Published int
}

// Ingestor drives the sequential harvest loop: load dataset, build item,
// publish, fold into the collection. One bad dataset never aborts a run.
type Ingestor struct {
	loader     Loader
	builder    *Builder
	sink       Sink
	events     ItemEventPublisher
	collection *stac.Collection

	mode             stac.UpdateMode
	excludeSummaries []string
	errorDumpDir     string

	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	ready   atomic.Bool
}

// IngestorOptions configures an Ingestor. Events may be nil to disable item
// event publishing; ErrorDumpDir may be empty to disable failed-item dumps.
type IngestorOptions struct {
	Loader           Loader
	Builder          *Builder
	Sink             Sink
	Events           ItemEventPublisher
	Collection       *stac.Collection
	Mode             stac.UpdateMode
	ExcludeSummaries []string
	ErrorDumpDir     string
	Logger           *slog.Logger
	Metrics          *observability.Metrics
	Clock            clockwork.Clock
}

// NewIngestor creates an Ingestor.
func NewIngestor(opts IngestorOptions) *Ingestor {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Ingestor{
		loader:           opts.Loader,
		builder:          opts.Builder,
		sink:             opts.Sink,
		events:           opts.Events,
		collection:       opts.Collection,
		mode:             opts.Mode,
		excludeSummaries: opts.ExcludeSummaries,
		errorDumpDir:     opts.ErrorDumpDir,
		logger:           opts.Logger,
		metrics:          opts.Metrics,
		clock:            clock,
	}
}

// CheckReadiness returns nil once the ingestor has processed at least one
// dataset.
func (ing *Ingestor) CheckReadiness(_ context.Context) error {
	if !ing.ready.Load() {
		return errors.New("ingestor has not processed any datasets yet")
	}
	return nil
}

// Run executes one complete harvest: the collection is published first so
// items have a home, each dataset is processed in sequence, and the
// collection is republished at the end with its updated aggregates.
func (ing *Ingestor) Run(ctx context.Context) (RunSummary, error) {
	summary := RunSummary{Started: ing.clock.Now()}
	ing.metrics.IngestRunning.Set(1)
	defer ing.metrics.IngestRunning.Set(0)

	outcome, err := ing.sink.PostCollection(ctx, ing.collection)
	if err != nil {
		return summary, fmt.Errorf("publish collection %q: %w", ing.collection.ID, err)
	}
	ing.logger.Info("collection published", "collection_id", ing.collection.ID, "outcome", outcome)

	for {
		select {
		case <-ctx.Done():
			ing.logger.Info("ingestion stopping", "reason", ctx.Err())
			summary.Finished = ing.clock.Now()
			return summary, ctx.Err()
		default:
		}

		name, bundle, err := ing.loader.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			summary.Finished = ing.clock.Now()
			return summary, fmt.Errorf("load next dataset: %w", err)
		}

		ing.processDataset(ctx, name, bundle, &summary)
		ing.ready.Store(true)
	}

	if _, err := ing.sink.PostCollection(ctx, ing.collection); err != nil {
		summary.Finished = ing.clock.Now()
		return summary, fmt.Errorf("republish collection %q: %w", ing.collection.ID, err)
	}

	summary.Finished = ing.clock.Now()
	ing.logger.Info("ingestion run complete",
		"collection_id", ing.collection.ID,
		"built", summary.Built,
		"failed", summary.Failed,
		"published", summary.Published,
		"duration", summary.Finished.Sub(summary.Started),
	)
	return summary, nil
}

// processDataset handles one dataset end to end. Failures are logged with
// dataset context and counted, never propagated.
func (ing *Ingestor) processDataset(ctx context.Context, name string, bundle *ncmeta.Bundle, summary *RunSummary) {
	start := time.Now()

	item, err := ing.builder.Build(ctx, name, bundle)
	if err != nil {
		ing.logger.Warn("item assembly failed, skipping dataset", "dataset", name, "error", err)
		ing.metrics.ItemFailures.Inc()
		summary.Failed++
		return
	}
	item.Collection = ing.collection.ID
	ing.metrics.ItemsBuilt.Inc()
	ing.metrics.ItemBuildDuration.Observe(time.Since(start).Seconds())
	summary.Built++

	outcome, err := ing.sink.PostItem(ctx, ing.collection.ID, item)
	if err != nil {
		ing.logger.Warn("item publish failed, skipping dataset", "dataset", name, "item_id", item.ID, "error", err)
		ing.metrics.PublishFailures.Inc()
		summary.Failed++
		ing.dumpFailedItem(name, item)
		return
	}
	ing.metrics.ItemsPublished.Inc()
	summary.Published++
	ing.logger.Info("item published", "item_id", item.ID, "outcome", outcome)

	if ing.events != nil {
		if err := ing.events.PublishItem(ctx, ing.collection.ID, item); err != nil {
			ing.logger.Warn("item event publish failed", "item_id", item.ID, "error", err)
		}
	}

	stac.UpdateCollection(ing.logger, ing.mode, ing.collection, item, ing.excludeSummaries)
}

// dumpFailedItem writes the serialized item next to the process for later
// diagnosis of server-side rejections.
func (ing *Ingestor) dumpFailedItem(name string, item *stac.Item) {
	if ing.errorDumpDir == "" {
		return
	}
	doc, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		ing.logger.Warn("serialize failed item for dump", "dataset", name, "error", err)
		return
	}
	path := filepath.Join(ing.errorDumpDir, fmt.Sprintf("error_STAC_rep_%s.json", sanitizeName(name)))
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		ing.logger.Warn("write failed item dump", "dataset", name, "path", path, "error", err)
		return
	}
	ing.logger.Info("failed item dumped", "dataset", name, "path", path)
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, name)
}
