package pipeline

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nimbusgeo/stac-populator/internal/extensions"
	"github.com/nimbusgeo/stac-populator/internal/ncmeta"
	"github.com/nimbusgeo/stac-populator/internal/schemavalidate"
)

// Family bundles the item ID derivation and extension helpers for one
// harvested dataset family.
type Family struct {
	ItemID  IDFunc
	Helpers []HelperSpec
}

// LookupFamily returns the build recipe for a dataset family. The validator
// backs the attribute schema checks; the HTTP client serves the file-info
// probes.
func LookupFamily(name string, validator *schemavalidate.Cache, client *http.Client) (Family, error) {
	switch name {
	case "cmip6":
		return Family{
			ItemID: fallbackID(extensions.CMIP6ItemID),
			Helpers: []HelperSpec{
				{Name: "cmip6", Required: true, New: func(ctx context.Context, b *ncmeta.Bundle) (extensions.Extension, error) {
					return extensions.NewCMIP6(b, validator)
				}},
				{Name: "datacube", Required: false, New: func(ctx context.Context, b *ncmeta.Bundle) (extensions.Extension, error) {
					return extensions.NewDataCube(b)
				}},
				{Name: "cf", Required: false, New: func(ctx context.Context, b *ncmeta.Bundle) (extensions.Extension, error) {
					return extensions.NewCF(b), nil
				}},
			},
		}, nil
	case "cordex6":
		return Family{
			ItemID: fallbackID(extensions.Cordex6ItemID),
			Helpers: []HelperSpec{
				{Name: "cordex6", Required: true, New: func(ctx context.Context, b *ncmeta.Bundle) (extensions.Extension, error) {
					return extensions.NewCordex6(b, validator, extensions.Cordex6SchemaURI)
				}},
				{Name: "datacube", Required: false, New: func(ctx context.Context, b *ncmeta.Bundle) (extensions.Extension, error) {
					return extensions.NewDataCube(b)
				}},
				{Name: "cf", Required: false, New: func(ctx context.Context, b *ncmeta.Bundle) (extensions.Extension, error) {
					return extensions.NewCF(b), nil
				}},
				{Name: "fileinfo", Required: false, New: func(ctx context.Context, b *ncmeta.Bundle) (extensions.Extension, error) {
					return extensions.NewFileInfo(ctx, client, b.AccessURLs)
				}},
			},
		}, nil
	}
	return Family{}, fmt.Errorf("unknown dataset family %q: must be one of cmip6, cordex6", name)
}

// fallbackID derives the item ID from the family's attributes, falling back
// to the dataset's download path when they are unusable.
func fallbackID(primary IDFunc) IDFunc {
	return func(b *ncmeta.Bundle) (string, error) {
		id, err := primary(b)
		if err == nil {
			return id, nil
		}
		return extensions.FallbackItemID(b)
	}
}
