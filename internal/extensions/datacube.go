package extensions

import (
	"github.com/nimbusgeo/stac-populator/internal/datacube"
	"github.com/nimbusgeo/stac-populator/internal/ncmeta"
	"github.com/nimbusgeo/stac-populator/internal/stac"
)

// DataCubeSchemaURI is the published data-cube extension schema.
const DataCubeSchemaURI = "https://stac-extensions.github.io/datacube/v2.2.0/schema.json"

// DataCube carries the inferred cube:dimensions and cube:variables for one
// dataset. Inference runs once at construction.
type DataCube struct {
	Dimensions map[string]datacube.Dimension
	Variables  map[string]datacube.Variable
}

// NewDataCube classifies the bundle's dimensions and variables.
func NewDataCube(b *ncmeta.Bundle) (*DataCube, error) {
	dims, err := datacube.InferDimensions(b)
	if err != nil {
		return nil, err
	}
	return &DataCube{
		Dimensions: dims,
		Variables:  datacube.InferVariables(b),
	}, nil
}

// Apply attaches the data-cube structures to the item's properties.
func (d *DataCube) Apply(item *stac.Item) error {
	item.Properties["cube:dimensions"] = d.Dimensions
	item.Properties["cube:variables"] = d.Variables
	item.RegisterExtension(DataCubeSchemaURI)
	return nil
}
