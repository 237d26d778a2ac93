package stac

import (
	"fmt"
	"time"
)

// timestampLayouts are tried in order when parsing property values that may
// be ISO-8601 timestamps.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// compareTimestamps orders two timestamp strings, by parsed instant when
// both parse and lexically otherwise.
func compareTimestamps(a, b string) int {
	ta, okA := parseTimestamp(a)
	tb, okB := parseTimestamp(b)
	if okA && okB {
		return ta.Compare(tb)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// itemInterval derives the item's [start, end] pair from its datetime
// properties: a single datetime covers both bounds, otherwise
// start_datetime/end_datetime are used.
func itemInterval(item *Item) (start, end string, err error) {
	if dt, ok := item.Properties["datetime"]; ok && dt != nil {
		s, ok := dt.(string)
		if !ok {
			return "", "", fmt.Errorf("item [%s]: datetime property is not a string", item.ID)
		}
		return s, s, nil
	}
	for _, prop := range [2]string{"start_datetime", "end_datetime"} {
		v, ok := item.Properties[prop]
		if !ok {
			return "", "", fmt.Errorf("item [%s]: missing %s property", item.ID, prop)
		}
		s, ok := v.(string)
		if !ok {
			return "", "", fmt.Errorf("item [%s]: %s property is not a string", item.ID, prop)
		}
		if prop == "start_datetime" {
			start = s
		} else {
			end = s
		}
	}
	return start, end, nil
}

// UpdateCollectionInterval folds the item's temporal coverage into the
// collection's temporal extent. A nil collection bound means open-ended and
// is never narrowed.
func UpdateCollectionInterval(collection *Collection, item *Item) error {
	start, end, err := itemInterval(item)
	if err != nil {
		return err
	}

	intervals := collection.Extent.Temporal.Interval
	if len(intervals) == 0 {
		s, e := start, end
		collection.Extent.Temporal.Interval = [][]*string{{&s, &e}}
		return nil
	}

	interval := intervals[0]
	if interval[0] != nil && compareTimestamps(start, *interval[0]) < 0 {
		s := start
		interval[0] = &s
	}
	if interval[1] != nil && compareTimestamps(end, *interval[1]) > 0 {
		e := end
		interval[1] = &e
	}
	return nil
}
