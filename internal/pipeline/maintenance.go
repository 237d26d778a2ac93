package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nimbusgeo/stac-populator/internal/stac"
)

// CollectionReader fetches an existing collection and its items from the
// STAC API.
type CollectionReader interface {
	GetCollection(ctx context.Context, collectionID string) (*stac.Collection, error)
	ListItems(ctx context.Context, collectionID string) ([]*stac.Item, error)
}

// UpdateAPICollection re-folds every item of an existing API collection
// into its extent and summaries and republishes the result. Used by
// maintenance runs to repair or backfill collection aggregates without
// re-harvesting the source.
func UpdateAPICollection(
	ctx context.Context,
	logger *slog.Logger,
	reader CollectionReader,
	sink Sink,
	collectionID string,
	mode stac.UpdateMode,
	excludeSummaries []string,
) error {
	collection, err := reader.GetCollection(ctx, collectionID)
	if err != nil {
		return fmt.Errorf("fetch collection %q: %w", collectionID, err)
	}

	items, err := reader.ListItems(ctx, collectionID)
	if err != nil {
		return fmt.Errorf("list items of collection %q: %w", collectionID, err)
	}

	logger.Info("updating collection from its items",
		"collection_id", collectionID,
		"mode", string(mode),
		"items", len(items),
	)
	for _, item := range items {
		stac.UpdateCollection(logger, mode, collection, item, excludeSummaries)
	}

	if _, err := sink.PostCollection(ctx, collection); err != nil {
		return fmt.Errorf("republish collection %q: %w", collectionID, err)
	}
	return nil
}
