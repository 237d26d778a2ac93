package extensions

import (
	"fmt"
	"strings"

	"github.com/nimbusgeo/stac-populator/internal/ncmeta"
	"github.com/nimbusgeo/stac-populator/internal/schemavalidate"
)

// CMIP6SchemaURI is the published CMIP6 controlled-vocabulary extension
// schema.
const CMIP6SchemaURI = "https://stac-extensions.github.io/cmip6/v1.0.0/schema.json"

// cmip6Fields are the global attributes carried into cmip6: properties.
// Attributes outside this list are ignored.
var cmip6Fields = []string{
	"Conventions",
	"activity_id",
	"creation_date",
	"data_specs_version",
	"experiment",
	"experiment_id",
	"frequency",
	"further_info_url",
	"grid_label",
	"institution",
	"institution_id",
	"nominal_resolution",
	"realm",
	"source",
	"source_id",
	"source_type",
	"sub_experiment",
	"sub_experiment_id",
	"table_id",
	"variable_id",
	"variant_label",
	"initialization_index",
	"physics_index",
	"realization_index",
	"forcing_index",
	"tracking_id",
	"version",
	"product",
	"license",
	"grid",
	"mip_era",
}

// cmip6IndexFields arrive from NcML as one-element lists and are unwrapped.
var cmip6IndexFields = map[string]struct{}{
	"initialization_index": {},
	"physics_index":        {},
	"realization_index":    {},
	"forcing_index":        {},
}

// cmip6SplitFields hold space-separated vocabulary terms and become lists.
var cmip6SplitFields = map[string]struct{}{
	"realm":       {},
	"source_type": {},
}

// cmip6IDKeys are the attributes joined into the deterministic item ID, in
// order.
var cmip6IDKeys = []string{
	"activity_id",
	"institution_id",
	"source_id",
	"experiment_id",
	"variant_label",
	"table_id",
	"variable_id",
	"grid_label",
}

// NewCMIP6 builds the cmip6: extension from the bundle's global attributes,
// normalizing the NcML quirks and validating the result against the CMIP6
// schema.
func NewCMIP6(b *ncmeta.Bundle, validator *schemavalidate.Cache) (*SchemaBacked, error) {
	fields := make(map[string]any, len(cmip6Fields))
	for _, name := range cmip6Fields {
		value, ok := b.Attributes[name]
		if !ok {
			continue
		}
		if _, isIndex := cmip6IndexFields[name]; isIndex {
			unwrapped, err := unwrapSingle(value)
			if err != nil {
				return nil, fmt.Errorf("attribute %q: %w", name, err)
			}
			value = unwrapped
		}
		if _, isSplit := cmip6SplitFields[name]; isSplit {
			if s, isStr := value.(string); isStr {
				value = splitTerms(s)
			}
		}
		if name == "version" {
			if s, isStr := value.(string); isStr && s != "" {
				if err := validateVersion(s); err != nil {
					return nil, err
				}
			}
		}
		fields[name] = value
	}

	ext := &SchemaBacked{
		Prefix:    "cmip6",
		SchemaURI: CMIP6SchemaURI,
		Fields:    fields,
		validator: validator,
	}
	if err := ext.Validate(); err != nil {
		return nil, err
	}
	return ext, nil
}

// CMIP6ItemID derives the deterministic item identifier from the dataset's
// controlled-vocabulary attributes. Re-ingesting the same dataset version
// always yields the same ID.
func CMIP6ItemID(b *ncmeta.Bundle) (string, error) {
	parts := make([]string, 0, len(cmip6IDKeys))
	for _, key := range cmip6IDKeys {
		value, ok := b.Attributes[key]
		if !ok {
			return "", &ncmeta.MissingAttributeError{Attribute: key}
		}
		parts = append(parts, ncmeta.FirstString(value))
	}
	return strings.Join(parts, "_"), nil
}

// FallbackItemID derives an item identifier from the dataset's HTTPServer
// location when no controlled vocabulary is available.
func FallbackItemID(b *ncmeta.Bundle) (string, error) {
	url, ok := b.AccessURLs["HTTPServer"]
	if !ok {
		return "", &ncmeta.MissingAttributeError{Attribute: "HTTPServer", Group: "access_urls"}
	}
	_, location, found := strings.Cut(url, "/fileServer/")
	if !found || location == "" {
		return "", fmt.Errorf("cannot derive item ID from HTTPServer url %q", url)
	}
	return location, nil
}

func unwrapSingle(v any) (any, error) {
	list, ok := v.([]any)
	if !ok {
		return v, nil
	}
	if len(list) != 1 {
		return nil, fmt.Errorf("must have one item only, got %d", len(list))
	}
	return list[0], nil
}

func splitTerms(s string) []any {
	parts := strings.Split(s, " ")
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out
}

func validateVersion(v string) error {
	if v[0] != 'v' {
		return fmt.Errorf("version %q must begin with a lower case 'v'", v)
	}
	for _, r := range v[1:] {
		if r < '0' || r > '9' {
			return fmt.Errorf("version %q must be 'v' followed by digits only", v)
		}
	}
	return nil
}
