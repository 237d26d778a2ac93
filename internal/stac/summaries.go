package stac

// summaryExcluded are property names never summarized: the temporal extent
// already covers them.
var summaryExcluded = [3]string{"datetime", "start_datetime", "end_datetime"}

// normalizeSummary maps a summary value that may come from a freshly
// unmarshaled JSON document onto the canonical in-memory forms: *Range for
// {minimum, maximum} objects and []any for categorical lists.
func normalizeSummary(v any) any {
	switch val := v.(type) {
	case map[string]any:
		mn, hasMin := val["minimum"]
		mx, hasMax := val["maximum"]
		if hasMin && hasMax {
			return &Range{Minimum: mn, Maximum: mx}
		}
		return v
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	default:
		return v
	}
}

func containsValue(list []any, v any) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// UpdateCollectionSummaries folds the item's properties into the
// collection's summaries. Booleans and non-timestamp strings accumulate
// into deduplicated lists; timestamps and numbers accumulate into
// {minimum, maximum} ranges, except that a property already summarized as a
// list keeps growing as a list. Properties covered by the temporal extent
// and any caller-supplied exclusions are skipped.
func UpdateCollectionSummaries(collection *Collection, item *Item, excludeSummaries []string) {
	if collection.Summaries == nil {
		collection.Summaries = map[string]any{}
	} else {
		delete(collection.Summaries, SummariesBootstrapMarker)
	}
	summaries := collection.Summaries

	excluded := make(map[string]struct{}, len(excludeSummaries)+len(summaryExcluded))
	for _, name := range excludeSummaries {
		excluded[name] = struct{}{}
	}
	for _, name := range summaryExcluded {
		excluded[name] = struct{}{}
	}

	for name, value := range item.Properties {
		if _, skip := excluded[name]; skip {
			continue
		}
		summary := normalizeSummary(summaries[name])
		if summary != nil {
			summaries[name] = summary
		}

		switch v := value.(type) {
		case bool:
			switch s := summary.(type) {
			case nil:
				summaries[name] = []any{v}
			case []any:
				if !containsValue(s, v) {
					summaries[name] = append(s, v)
				}
			}
		case string:
			if t, ok := parseTimestamp(v); ok {
				switch s := summary.(type) {
				case nil:
					summaries[name] = &Range{Minimum: v, Maximum: v}
				case *Range:
					mn, minOK := s.Minimum.(string)
					mx, maxOK := s.Maximum.(string)
					if !minOK || !maxOK {
						continue
					}
					tMin, okMin := parseTimestamp(mn)
					tMax, okMax := parseTimestamp(mx)
					if !okMin || !okMax {
						continue
					}
					if t.Before(tMin) {
						s.Minimum = v
					} else if t.After(tMax) {
						s.Maximum = v
					}
				case []any:
					// an earlier item recorded this property as categorical
					if !containsValue(s, v) {
						summaries[name] = append(s, v)
					}
				}
			} else {
				switch s := summary.(type) {
				case nil:
					summaries[name] = []any{v}
				case []any:
					if !containsValue(s, v) {
						summaries[name] = append(s, v)
					}
				}
			}
		default:
			n, ok := asNumber(value)
			if !ok {
				continue
			}
			switch s := summary.(type) {
			case nil:
				summaries[name] = &Range{Minimum: value, Maximum: value}
			case []any:
				// this property does not necessarily contain all numeric values
				if !containsValue(s, value) {
					summaries[name] = append(s, value)
				}
			case *Range:
				mn, minOK := asNumber(s.Minimum)
				mx, maxOK := asNumber(s.Maximum)
				if !minOK || !maxOK {
					continue
				}
				if n < mn {
					s.Minimum = value
				} else if n > mx {
					s.Maximum = value
				}
			}
		}
	}
}
