// Package extensions builds prefixed, schema-validated property sets from
// dataset metadata and attaches them to STAC items. Every concrete helper
// is a value configured with (prefix, schema URI, exclusion list); there is
// no per-extension machinery beyond field selection and normalization.
package extensions

import (
	"strings"

	"github.com/nimbusgeo/stac-populator/internal/schemavalidate"
	"github.com/nimbusgeo/stac-populator/internal/stac"
)

// Extension attaches one prefixed property set to a STAC item.
type Extension interface {
	Apply(item *stac.Item) error
}

// SchemaBacked is a property set validated against an external JSON Schema.
// Fields holds the raw, unprefixed field values; Exclude lists field names
// kept out of schema validation but still attached to the item.
type SchemaBacked struct {
	Prefix    string
	SchemaURI string
	Exclude   []string
	Fields    map[string]any

	validator *schemavalidate.Cache
}

// prefixKey rewrites a field name to "<prefix>:<name>". Datetime fields keep
// their bare STAC property names.
func (s *SchemaBacked) prefixKey(name string) string {
	if strings.Contains(name, "datetime") {
		return name
	}
	return s.Prefix + ":" + name
}

// Validate checks the prefixed view of all non-excluded fields against the
// configured schema, collecting every violation. Without a schema URI it is
// a no-op.
func (s *SchemaBacked) Validate() error {
	if s.SchemaURI == "" || s.validator == nil {
		return nil
	}
	excluded := make(map[string]struct{}, len(s.Exclude))
	for _, name := range s.Exclude {
		excluded[name] = struct{}{}
	}
	view := make(map[string]any, len(s.Fields))
	for name, value := range s.Fields {
		if _, skip := excluded[name]; skip {
			continue
		}
		view[s.prefixKey(name)] = value
	}
	return s.validator.Validate(s.SchemaURI, view)
}

// Apply merges the prefixed property set into the item's properties and
// registers the schema URI on its stac_extensions list.
func (s *SchemaBacked) Apply(item *stac.Item) error {
	for name, value := range s.Fields {
		item.Properties[s.prefixKey(name)] = value
	}
	if s.SchemaURI != "" {
		item.RegisterExtension(s.SchemaURI)
	}
	return nil
}
