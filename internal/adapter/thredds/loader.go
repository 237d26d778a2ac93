package thredds

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nimbusgeo/stac-populator/internal/ncmeta"
)

// DefaultCrawlDepth bounds how many catalogRef levels below the root are
// followed.
const DefaultCrawlDepth = 1000

// CatalogLoader walks a THREDDS catalog tree depth-first and yields one
// attribute bundle per dataset. It implements pipeline.Loader.
type CatalogLoader struct {
	rootURL    string
	depthLimit int
	client     *http.Client
	logger     *slog.Logger

	catalogs []crawlEntry
	pending  []Dataset
}

type crawlEntry struct {
	url   string
	depth int
}

// NewCatalogLoader creates a loader for the catalog at rawURL. Browser-style
// .html URLs are accepted and mapped to their .xml equivalent. A depth limit
// of 0 crawls only the root catalog; a negative limit means unbounded.
func NewCatalogLoader(rawURL string, depthLimit int, timeout time.Duration, logger *slog.Logger) (*CatalogLoader, error) {
	normalized, err := NormalizeCatalogURL(rawURL)
	if err != nil {
		return nil, err
	}
	if depthLimit < 0 {
		depthLimit = DefaultCrawlDepth
	}
	l := &CatalogLoader{
		rootURL:    normalized,
		depthLimit: depthLimit,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
	_ = l.Reset()
	return l, nil
}

// Reset restarts the crawl from the root catalog.
func (l *CatalogLoader) Reset() error {
	l.catalogs = []crawlEntry{{url: l.rootURL, depth: 0}}
	l.pending = nil
	return nil
}

// Next returns the next dataset of the crawl, fetching further catalog pages
// as needed. A dataset whose NcML cannot be fetched is logged and skipped;
// only catalog-level failures abort the crawl. Next returns io.EOF once the
// tree is exhausted.
func (l *CatalogLoader) Next(ctx context.Context) (string, *ncmeta.Bundle, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}

		if len(l.pending) > 0 {
			ds := l.pending[0]
			l.pending = l.pending[1:]

			bundle, err := l.loadDataset(ctx, ds)
			if err != nil {
				l.logger.Warn("skipping dataset", "dataset", ds.Path, "error", err)
				continue
			}
			return ds.Name, bundle, nil
		}

		if len(l.catalogs) == 0 {
			return "", nil, io.EOF
		}
		entry := l.catalogs[0]
		l.catalogs = l.catalogs[1:]

		catalog, err := fetchCatalog(ctx, l.client, entry.url)
		if err != nil {
			return "", nil, err
		}
		l.logger.Info("crawling catalog",
			"url", entry.url,
			"depth", entry.depth,
			"datasets", len(catalog.Datasets),
			"children", len(catalog.Refs),
		)
		l.pending = append(l.pending, catalog.Datasets...)
		if entry.depth < l.depthLimit {
			children := make([]crawlEntry, 0, len(catalog.Refs))
			for _, ref := range catalog.Refs {
				children = append(children, crawlEntry{url: ref, depth: entry.depth + 1})
			}
			// Depth-first: child catalogs ahead of the remaining siblings.
			l.catalogs = append(children, l.catalogs...)
		}
	}
}

// loadDataset fetches and parses the dataset's NcML document and stamps the
// catalog's access URLs onto the bundle.
func (l *CatalogLoader) loadDataset(ctx context.Context, ds Dataset) (*ncmeta.Bundle, error) {
	u, ok := ncmlURL(ds)
	if !ok {
		return nil, fmt.Errorf("dataset %s exposes no NcML service", ds.Path)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch NcML %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch NcML %s: unexpected status %d", u, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read NcML %s: %w", u, err)
	}

	bundle, err := ParseNcML(data)
	if err != nil {
		return nil, err
	}
	bundle.AccessURLs = ds.AccessURLs
	return bundle, nil
}
