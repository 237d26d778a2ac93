// Package schemavalidate fetches and compiles external JSON Schemas and
// validates documents against them, keeping compiled schemas in an LRU
// cache keyed by URI so repeated item validation does not refetch.
package schemavalidate

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xeipuuv/gojsonschema"
)

// ValidationError carries every violation reported by the validator, never
// just the first.
type ValidationError struct {
	SchemaURI  string
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("document failed validation against %s: %s",
		e.SchemaURI, strings.Join(e.Violations, "; "))
}

// Cache compiles schemas on first use and keeps the most recently used ones.
type Cache struct {
	schemas *lru.Cache[string, *gojsonschema.Schema]
}

// NewCache returns a schema cache holding up to size compiled schemas.
func NewCache(size int) (*Cache, error) {
	schemas, err := lru.New[string, *gojsonschema.Schema](size)
	if err != nil {
		return nil, fmt.Errorf("create schema cache: %w", err)
	}
	return &Cache{schemas: schemas}, nil
}

func (c *Cache) schema(uri string) (*gojsonschema.Schema, error) {
	if schema, ok := c.schemas.Get(uri); ok {
		return schema, nil
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewReferenceLoader(uri))
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", uri, err)
	}
	c.schemas.Add(uri, schema)
	return schema, nil
}

// Validate checks a document (any JSON-marshalable value) against the
// schema at uri. Schema violations come back as a *ValidationError; other
// errors indicate the schema could not be fetched or compiled.
func (c *Cache) Validate(uri string, doc any) error {
	schema, err := c.schema(uri)
	if err != nil {
		return err
	}
	return validate(schema, uri, gojsonschema.NewGoLoader(doc))
}

// ValidateJSON checks an already serialized JSON document against the
// schema at uri.
func (c *Cache) ValidateJSON(uri string, data []byte) error {
	schema, err := c.schema(uri)
	if err != nil {
		return err
	}
	return validate(schema, uri, gojsonschema.NewBytesLoader(data))
}

func validate(schema *gojsonschema.Schema, uri string, doc gojsonschema.JSONLoader) error {
	result, err := schema.Validate(doc)
	if err != nil {
		return fmt.Errorf("validate against %s: %w", uri, err)
	}
	if result.Valid() {
		return nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return &ValidationError{SchemaURI: uri, Violations: violations}
}
