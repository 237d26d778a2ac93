package stac

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CollectionConfig is the operator-provided description of the collection a
// harvest run populates. YAML and JSON files are both accepted.
type CollectionConfig struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
	License     string   `json:"license" yaml:"license"`

	// Initial coverage, refined as items are folded in. Temporal bounds are
	// YYYY-MM-DD dates; null means open-ended.
	SpatialExtent  []float64 `json:"spatialextent" yaml:"spatialextent"`
	TemporalExtent []*string `json:"temporalextent" yaml:"temporalextent"`

	Links  []Link           `json:"links,omitempty" yaml:"links"`
	Assets map[string]Asset `json:"assets,omitempty" yaml:"assets"`
}

// LoadCollectionConfig reads and validates a collection configuration file
// and builds the initial collection document from it. The summaries are
// seeded with the bootstrap marker so a maintenance run can tell them apart
// from computed ones.
func LoadCollectionConfig(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read collection configuration: %w", err)
	}

	// YAML is a superset of JSON, so one decoder covers .yml and .json files.
	var cfg CollectionConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse collection configuration %s: %w", path, err)
	}
	return cfg.Build()
}

// Build validates the configuration and produces the collection document.
func (cfg *CollectionConfig) Build() (*Collection, error) {
	required := []struct {
		name  string
		empty bool
	}{
		{"title", cfg.Title == ""},
		{"id", cfg.ID == ""},
		{"description", cfg.Description == ""},
		{"keywords", len(cfg.Keywords) == 0},
		{"license", cfg.License == ""},
	}
	for _, req := range required {
		if req.empty {
			return nil, fmt.Errorf("%q is required in the collection configuration", req.name)
		}
	}

	if n := len(cfg.SpatialExtent); n != 4 && n != 6 {
		return nil, fmt.Errorf("spatialextent must have 4 or 6 values, got %d", n)
	}
	interval, err := temporalInterval(cfg.TemporalExtent)
	if err != nil {
		return nil, err
	}

	links := cfg.Links
	if links == nil {
		links = []Link{}
	}
	return &Collection{
		Type:        "Collection",
		StacVersion: Version,
		ID:          cfg.ID,
		Title:       cfg.Title,
		Description: cfg.Description,
		Keywords:    cfg.Keywords,
		License:     cfg.License,
		Extent: Extent{
			Spatial:  SpatialExtent{BBox: [][]float64{cfg.SpatialExtent}},
			Temporal: TemporalExtent{Interval: [][]*string{interval}},
		},
		Summaries: map[string]any{
			SummariesBootstrapMarker: []any{"true"},
		},
		Links:  links,
		Assets: cfg.Assets,
	}, nil
}

// temporalInterval validates the configured date bounds and widens them to
// full timestamps.
func temporalInterval(bounds []*string) ([]*string, error) {
	if len(bounds) != 2 {
		return nil, fmt.Errorf("temporalextent must have 2 values, got %d", len(bounds))
	}
	interval := make([]*string, 2)
	for i, bound := range bounds {
		if bound == nil {
			continue
		}
		t, err := time.Parse("2006-01-02", *bound)
		if err != nil {
			return nil, fmt.Errorf("temporalextent bound %q is not a YYYY-MM-DD date", *bound)
		}
		stamp := t.UTC().Format(time.RFC3339)
		interval[i] = &stamp
	}
	return interval, nil
}
