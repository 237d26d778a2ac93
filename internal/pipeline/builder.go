// Package pipeline assembles STAC items from dataset metadata and runs the
// ingestion loop that publishes them and folds them into the collection.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nimbusgeo/stac-populator/internal/extensions"
	"github.com/nimbusgeo/stac-populator/internal/ncmeta"
	"github.com/nimbusgeo/stac-populator/internal/schemavalidate"
	"github.com/nimbusgeo/stac-populator/internal/stac"
)

// HelperFactory constructs one extension helper from a dataset bundle.
type HelperFactory func(ctx context.Context, b *ncmeta.Bundle) (extensions.Extension, error)

// HelperSpec configures one extension helper for the builder. A required
// helper's construction failure fails the whole item; an optional one is
// logged and omitted.
type HelperSpec struct {
	Name     string
	Required bool
	New      HelperFactory
}

// IDFunc derives the deterministic item identifier from a bundle.
type IDFunc func(b *ncmeta.Bundle) (string, error)

// ItemValidationError reports that an assembled item failed final STAC
// structural validation. It carries the full validator error list.
type ItemValidationError struct {
	ItemID string
	Err    *schemavalidate.ValidationError
}

func (e *ItemValidationError) Error() string {
	return fmt.Sprintf("item [%s] failed STAC validation: %s",
		e.ItemID, strings.Join(e.Err.Violations, "; "))
}

func (e *ItemValidationError) Unwrap() error { return e.Err }

// Builder assembles one validated STAC item per dataset bundle. Helpers are
// re-instantiated per item, so no state leaks across datasets.
type Builder struct {
	itemID     IDFunc
	helpers    []HelperSpec
	validator  *schemavalidate.Cache
	itemSchema string
	logger     *slog.Logger
}

// NewBuilder creates a Builder with the given ID function and helpers.
func NewBuilder(logger *slog.Logger, validator *schemavalidate.Cache, itemID IDFunc, helpers []HelperSpec) *Builder {
	return &Builder{
		itemID:     itemID,
		helpers:    helpers,
		validator:  validator,
		itemSchema: stac.ItemSchemaURI,
		logger:     logger,
	}
}

// Build assembles, extends, and validates the STAC item for one dataset.
// Any returned error is fatal for this dataset only.
func (b *Builder) Build(ctx context.Context, name string, bundle *ncmeta.Bundle) (*stac.Item, error) {
	item := stac.NewItem()

	geometry, err := bundle.Geometry()
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}
	bbox, err := bundle.BBox()
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}
	item.Geometry = geometry
	item.BBox = bbox

	start, end, err := bundle.TimeCoverage()
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}
	item.Properties["start_datetime"] = start
	item.Properties["end_datetime"] = end

	id, err := b.itemID(bundle)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: derive item ID: %w", name, err)
	}
	item.ID = id

	if err := extensions.NewTHREDDS(bundle.AccessURLs).Apply(item); err != nil {
		return nil, fmt.Errorf("dataset %q: attach service assets: %w", name, err)
	}

	for _, spec := range b.helpers {
		helper, err := spec.New(ctx, bundle)
		if err != nil {
			if spec.Required {
				return nil, fmt.Errorf("dataset %q: required extension %s: %w", name, spec.Name, err)
			}
			b.logger.Warn("optional extension omitted",
				"dataset", name,
				"extension", spec.Name,
				"error", err,
			)
			continue
		}
		if err := helper.Apply(item); err != nil {
			if spec.Required {
				return nil, fmt.Errorf("dataset %q: apply extension %s: %w", name, spec.Name, err)
			}
			b.logger.Warn("optional extension omitted",
				"dataset", name,
				"extension", spec.Name,
				"error", err,
			)
		}
	}

	if err := b.validateItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// validateItem runs the final structural self-validation against the STAC
// Item core schema. An invalid item is never published.
func (b *Builder) validateItem(item *stac.Item) error {
	if b.validator == nil {
		return nil
	}
	doc, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("item [%s]: serialize: %w", item.ID, err)
	}
	err = b.validator.ValidateJSON(b.itemSchema, doc)
	if err == nil {
		return nil
	}
	var verr *schemavalidate.ValidationError
	if errors.As(err, &verr) {
		return &ItemValidationError{ItemID: item.ID, Err: verr}
	}
	return fmt.Errorf("item [%s]: %w", item.ID, err)
}
