// Package ncmeta models the CF-attribute metadata document describing one
// THREDDS dataset: global attributes, per-variable attribute maps, the
// CFMetadata group holding spatial/temporal coverage, and the access URLs
// for each THREDDS service. Bundles are produced by a loader (catalog crawl
// or directory walk) and are read-only once handed to the pipeline.
package ncmeta

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Bundle is the parsed metadata for one dataset.
type Bundle struct {
	Attributes map[string]any      `json:"attributes"`
	Dimensions map[string]int      `json:"dimensions"`
	Variables  map[string]Variable `json:"variables"`
	Groups     map[string]Group    `json:"groups"`
	AccessURLs map[string]string   `json:"access_urls"`
}

// Variable describes one NetCDF variable: its storage type, the names of the
// dimensions it spans, and its attribute map.
type Variable struct {
	Type       string         `json:"type"`
	Shape      []string       `json:"shape"`
	Attributes map[string]any `json:"attributes"`
}

// Group is a named attribute group, e.g. CFMetadata or NCISOMetadata.
type Group struct {
	Attributes map[string]any `json:"attributes"`
}

// MissingAttributeError reports a required source attribute that is absent
// from the bundle. It is fatal for the dataset it concerns, never for a run.
type MissingAttributeError struct {
	Attribute string
	Group     string
}

func (e *MissingAttributeError) Error() string {
	if e.Group != "" {
		return fmt.Sprintf("missing required attribute %q in group %q", e.Attribute, e.Group)
	}
	return fmt.Sprintf("missing required attribute %q", e.Attribute)
}

const cfMetadataGroup = "CFMetadata"

// ParseBundle decodes a CF-attribute JSON document.
func ParseBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse attribute bundle: %w", err)
	}
	return &b, nil
}

// CFMetadata returns the attribute map of the CFMetadata group, or nil if
// the group is absent.
func (b *Bundle) CFMetadata() map[string]any {
	g, ok := b.Groups[cfMetadataGroup]
	if !ok {
		return nil
	}
	return g.Attributes
}

// cfAttr returns the named CFMetadata attribute as a string, taking the
// first element if the value is array-valued.
func (b *Bundle) cfAttr(name string) (string, error) {
	v, ok := b.CFMetadata()[name]
	if !ok {
		return "", &MissingAttributeError{Attribute: name, Group: cfMetadataGroup}
	}
	s := FirstString(v)
	if s == "" {
		return "", &MissingAttributeError{Attribute: name, Group: cfMetadataGroup}
	}
	return s, nil
}

// TimeCoverage returns the dataset's temporal anchors from CFMetadata.
func (b *Bundle) TimeCoverage() (start, end string, err error) {
	if start, err = b.cfAttr("time_coverage_start"); err != nil {
		return "", "", err
	}
	if end, err = b.cfAttr("time_coverage_end"); err != nil {
		return "", "", err
	}
	return start, end, nil
}

// GlobalString returns a global attribute coerced to a string, taking the
// first element if array-valued.
func (b *Bundle) GlobalString(name string) (string, error) {
	v, ok := b.Attributes[name]
	if !ok {
		return "", &MissingAttributeError{Attribute: name}
	}
	return FirstString(v), nil
}

// FirstString coerces an attribute value to a string. Array-valued
// attributes yield their first element; numbers are formatted compactly.
func FirstString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		if len(val) == 0 {
			return ""
		}
		return FirstString(val[0])
	case []string:
		if len(val) == 0 {
			return ""
		}
		return val[0]
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

// FirstFloat coerces an attribute value to a float64, taking the first
// element if array-valued.
func FirstFloat(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	case string:
		return strconv.ParseFloat(val, 64)
	case []any:
		if len(val) == 0 {
			return 0, fmt.Errorf("empty attribute array")
		}
		return FirstFloat(val[0])
	default:
		return 0, fmt.Errorf("attribute value %v is not numeric", v)
	}
}
