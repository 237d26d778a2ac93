package extensions

import (
	"strings"

	"github.com/nimbusgeo/stac-populator/internal/ncmeta"
	"github.com/nimbusgeo/stac-populator/internal/schemavalidate"
)

// Cordex6SchemaURI points at the CORDEX-CMIP6 global attributes schema.
// Note this is not a STAC item schema, but a schema for the dataset's
// global attributes only.
const Cordex6SchemaURI = "https://raw.githubusercontent.com/crim-ca/stac-populator/master/STACpopulator/extensions/schemas/cordex6/cmip6-cordex-global-attrs-schema.json"

// cordex6Fields are the global attributes carried into cordex6: properties.
var cordex6Fields = []string{
	"activity_id",
	"contact",
	"creation_date",
	"domain_id",
	"domain",
	"driving_experiment_id",
	"driving_experiment",
	"driving_institution_id",
	"driving_source_id",
	"driving_variant_label",
	"frequency",
	"grid",
	"institution",
	"institution_id",
	"license",
	"mip_era",
	"product",
	"project_id",
	"source",
	"source_id",
	"source_type",
	"tracking_id",
	"variable_id",
	"version_realization",
	"external_variables",
}

// cordex6IDKeys are the attributes joined into the deterministic item ID,
// in order. The temporal coverage stamps are appended by the ID function.
var cordex6IDKeys = []string{
	"activity_id",
	"driving_institution_id",
	"driving_source_id",
	"institution_id",
	"source_id",
	"driving_experiment_id",
	"driving_variant_label",
	"version_realization",
	"variable_id",
	"domain_id",
	"frequency",
}

// NewCordex6 builds the cordex6: extension from the bundle's global
// attributes. external_variables is attached but kept out of schema
// validation, the attributes schema does not cover it.
func NewCordex6(b *ncmeta.Bundle, validator *schemavalidate.Cache, schemaURI string) (*SchemaBacked, error) {
	if schemaURI == "" {
		schemaURI = Cordex6SchemaURI
	}
	fields := make(map[string]any, len(cordex6Fields))
	for _, name := range cordex6Fields {
		if value, ok := b.Attributes[name]; ok {
			fields[name] = value
		}
	}

	ext := &SchemaBacked{
		Prefix:    "cordex6",
		SchemaURI: schemaURI,
		Exclude:   []string{"external_variables"},
		Fields:    fields,
		validator: validator,
	}
	if err := ext.Validate(); err != nil {
		return nil, err
	}
	return ext, nil
}

// Cordex6ItemID derives the deterministic item identifier from the
// dataset's attributes plus its date-stamped temporal coverage.
func Cordex6ItemID(b *ncmeta.Bundle) (string, error) {
	parts := make([]string, 0, len(cordex6IDKeys)+2)
	for _, key := range cordex6IDKeys {
		value, ok := b.Attributes[key]
		if !ok {
			return "", &ncmeta.MissingAttributeError{Attribute: key}
		}
		parts = append(parts, ncmeta.FirstString(value))
	}
	start, end, err := b.TimeCoverage()
	if err != nil {
		return "", err
	}
	parts = append(parts, dateStamp(start), dateStamp(end))
	return strings.Join(parts, "_"), nil
}

// dateStamp compacts an ISO-8601 timestamp's date part to YYYYMMDD.
func dateStamp(ts string) string {
	date, _, _ := strings.Cut(ts, "T")
	return strings.ReplaceAll(date, "-", "")
}
