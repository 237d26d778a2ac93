// Package stac holds the STAC document model and the collection aggregation
// engine that folds item extents and property summaries into a collection.
package stac

import (
	"fmt"

	"github.com/venicegeo/geojson-go/geojson"
)

const (
	// Version is the STAC spec version stamped on every produced document.
	Version = "1.0.0"

	// ItemSchemaURI is the core STAC Item schema every assembled item must
	// validate against before it is published.
	ItemSchemaURI = "https://schemas.stacspec.org/v1.0.0/item-spec/json-schema/item.json"

	// SummariesBootstrapMarker is seeded into a fresh collection's summaries
	// so a later maintenance run knows they were never computed. It is
	// removed on the first real summaries update.
	SummariesBootstrapMarker = "needs_summaries_update"
)

// Item is one assembled STAC Item. It is built once per dataset and never
// mutated after assembly.
type Item struct {
	Type           string           `json:"type"`
	StacVersion    string           `json:"stac_version"`
	StacExtensions []string         `json:"stac_extensions"`
	ID             string           `json:"id"`
	Geometry       *geojson.Polygon `json:"geometry"`
	BBox           []float64        `json:"bbox"`
	Properties     map[string]any   `json:"properties"`
	Links          []Link           `json:"links"`
	Assets         map[string]Asset `json:"assets"`
	Collection     string           `json:"collection,omitempty"`
}

// NewItem returns an item with the constant fields set and empty containers
// ready to be filled by the assembly pipeline.
func NewItem() *Item {
	return &Item{
		Type:           "Feature",
		StacVersion:    Version,
		StacExtensions: []string{},
		Properties:     map[string]any{},
		Links:          []Link{},
		Assets:         map[string]Asset{},
	}
}

// RegisterExtension records a schema URI on the item's stac_extensions list,
// once.
func (it *Item) RegisterExtension(schemaURI string) {
	for _, uri := range it.StacExtensions {
		if uri == schemaURI {
			return
		}
	}
	it.StacExtensions = append(it.StacExtensions, schemaURI)
}

// Asset is one downloadable or browsable representation of an item.
// FileSize is the file extension's file:size field, set when known.
type Asset struct {
	Href        string   `json:"href"`
	Type        string   `json:"type,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	FileSize    *int64   `json:"file:size,omitempty"`
}

// Link relates a STAC object to another resource.
type Link struct {
	Rel   string `json:"rel"`
	Href  string `json:"href"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// Collection is the long-lived aggregate document. Its extent and summaries
// are mutated incrementally, once per ingested item.
type Collection struct {
	Type           string           `json:"type"`
	StacVersion    string           `json:"stac_version"`
	StacExtensions []string         `json:"stac_extensions,omitempty"`
	ID             string           `json:"id"`
	Title          string           `json:"title,omitempty"`
	Description    string           `json:"description"`
	Keywords       []string         `json:"keywords,omitempty"`
	License        string           `json:"license"`
	Extent         Extent           `json:"extent"`
	Summaries      map[string]any   `json:"summaries,omitempty"`
	Links          []Link           `json:"links"`
	Assets         map[string]Asset `json:"assets,omitempty"`
}

// Extent is the collection's aggregate spatial and temporal coverage.
type Extent struct {
	Spatial  SpatialExtent  `json:"spatial"`
	Temporal TemporalExtent `json:"temporal"`
}

// SpatialExtent carries one overall bbox in its first slot.
type SpatialExtent struct {
	BBox [][]float64 `json:"bbox"`
}

// TemporalExtent carries one overall [start, end] interval in its first
// slot. A nil bound means open-ended.
type TemporalExtent struct {
	Interval [][]*string `json:"interval"`
}

// Range is a {minimum, maximum} summary over numeric or timestamp values.
type Range struct {
	Minimum any `json:"minimum"`
	Maximum any `json:"maximum"`
}

// UpdateMode selects which collection aggregates an update run touches.
type UpdateMode string

const (
	ModeExtents   UpdateMode = "extents"
	ModeSummaries UpdateMode = "summaries"
	ModeAll       UpdateMode = "all"
)

// Validate reports whether m is one of the accepted update modes.
func (m UpdateMode) Validate() error {
	switch m {
	case ModeExtents, ModeSummaries, ModeAll:
		return nil
	}
	return fmt.Errorf("invalid update mode %q: must be one of extents, summaries, all", string(m))
}

func (m UpdateMode) updatesExtents() bool   { return m == ModeExtents || m == ModeAll }
func (m UpdateMode) updatesSummaries() bool { return m == ModeSummaries || m == ModeAll }
