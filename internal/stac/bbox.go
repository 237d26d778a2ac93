package stac

import (
	"fmt"
	"log/slog"
	"slices"
)

// SortedBBox returns the bbox with each axis pair in ascending order. For a
// bbox of length 2N, axis i is the pair (bbox[i], bbox[i+N]); each pair is
// sorted independently and the halves are re-interleaved.
func SortedBBox(bbox []float64) []float64 {
	half := len(bbox) / 2
	out := make([]float64, len(bbox))
	for i := 0; i < half; i++ {
		lo, hi := bbox[i], bbox[i+half]
		if hi < lo {
			lo, hi = hi, lo
		}
		out[i] = lo
		out[i+half] = hi
	}
	return out
}

// CheckWGS84Compliance warns when a bbox's longitude values fall outside
// [-180, 180] or latitude values fall outside [-90, 90]. Violations are
// never fatal.
func CheckWGS84Compliance(logger *slog.Logger, bbox []float64, objectType, objectID string) {
	half := len(bbox) / 2
	for _, lon := range [2]float64{bbox[0], bbox[half]} {
		if lon < -180 || lon > 180 {
			logger.Warn("bbox longitude outside of the accepted range of -180 and 180",
				"stac_object_type", objectType,
				"stac_object_id", objectID,
				"longitude", lon,
			)
		}
	}
	for _, lat := range [2]float64{bbox[1], bbox[half+1]} {
		if lat < -90 || lat > 90 {
			logger.Warn("bbox latitude outside of the accepted range of -90 and 90",
				"stac_object_type", objectType,
				"stac_object_id", objectID,
				"latitude", lat,
			)
		}
	}
}

// UpdateCollectionBBox folds the item's bbox into the collection's spatial
// extent. The item bbox is axis-sorted first; a 4-element and a 6-element
// bbox are reconciled by borrowing the Z bounds from the side that has them.
// Dimensionality combinations other than 4 and 6 are an error, leaving the
// collection extent untouched.
func UpdateCollectionBBox(logger *slog.Logger, collection *Collection, item *Item) error {
	if len(item.BBox) == 0 {
		// bbox can be missing if there is no geometry
		return nil
	}
	if err := checkBBoxLength(item.BBox); err != nil {
		return fmt.Errorf("item [%s]: %w", item.ID, err)
	}

	itemBBox := SortedBBox(item.BBox)
	if !slices.Equal(itemBBox, item.BBox) {
		logger.Warn("item contains a bbox with unsorted values",
			"item_id", item.ID,
			"got", item.BBox,
			"want", itemBBox,
		)
	}
	CheckWGS84Compliance(logger, itemBBox, "item", item.ID)

	bboxes := collection.Extent.Spatial.BBox
	if len(bboxes) == 0 {
		collection.Extent.Spatial.BBox = [][]float64{itemBBox}
		CheckWGS84Compliance(logger, itemBBox, "collection", collection.ID)
		return nil
	}

	collBBox := bboxes[0]
	if err := checkBBoxLength(collBBox); err != nil {
		return fmt.Errorf("collection [%s]: %w", collection.ID, err)
	}
	switch {
	case len(itemBBox) == 4 && len(collBBox) == 6:
		// collection bbox has a z axis and item bbox does not
		itemBBox = []float64{itemBBox[0], itemBBox[1], collBBox[2], itemBBox[2], itemBBox[3], collBBox[5]}
	case len(itemBBox) == 6 && len(collBBox) == 4:
		// item bbox has a z axis and collection bbox does not
		collBBox = []float64{collBBox[0], collBBox[1], itemBBox[2], collBBox[2], collBBox[3], itemBBox[5]}
	}

	half := len(itemBBox) / 2
	for i := 0; i < half; i++ {
		if itemBBox[i] < collBBox[i] {
			collBBox[i] = itemBBox[i]
		}
	}
	for i := half; i < len(itemBBox); i++ {
		if itemBBox[i] > collBBox[i] {
			collBBox[i] = itemBBox[i]
		}
	}
	collection.Extent.Spatial.BBox[0] = collBBox
	CheckWGS84Compliance(logger, collBBox, "collection", collection.ID)
	return nil
}

func checkBBoxLength(bbox []float64) error {
	if len(bbox) != 4 && len(bbox) != 6 {
		return fmt.Errorf("bbox has %d elements, want 4 or 6", len(bbox))
	}
	return nil
}
