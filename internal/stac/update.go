package stac

import "log/slog"

// UpdateCollection folds one item into the collection's aggregates. Mode
// gates the two passes independently: "extents" updates the spatial and
// temporal extent, "summaries" updates the property summaries, "all" runs
// both in that order. Per-item aggregation problems are logged and skip
// only the affected contribution, never the rest of the update.
func UpdateCollection(logger *slog.Logger, mode UpdateMode, collection *Collection, item *Item, excludeSummaries []string) {
	if mode.updatesExtents() {
		logger.Info("updating collection extents",
			"collection_id", collection.ID,
			"item_id", item.ID,
		)
		if err := UpdateCollectionBBox(logger, collection, item); err != nil {
			logger.Warn("skipping spatial extent contribution",
				"collection_id", collection.ID,
				"item_id", item.ID,
				"error", err,
			)
		}
		if err := UpdateCollectionInterval(collection, item); err != nil {
			logger.Warn("skipping temporal extent contribution",
				"collection_id", collection.ID,
				"item_id", item.ID,
				"error", err,
			)
		}
	}
	if mode.updatesSummaries() {
		logger.Info("updating collection summaries",
			"collection_id", collection.ID,
			"item_id", item.ID,
		)
		UpdateCollectionSummaries(collection, item, excludeSummaries)
	}
}
