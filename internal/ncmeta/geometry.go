package ncmeta

import (
	"github.com/venicegeo/geojson-go/geojson"
)

// BBox derives the [lonMin, latMin, lonMax, latMax] bounding box from the
// geospatial_* attributes of the CFMetadata group.
func (b *Bundle) BBox() ([]float64, error) {
	cf := b.CFMetadata()
	out := make([]float64, 4)
	for i, name := range [4]string{
		"geospatial_lon_min",
		"geospatial_lat_min",
		"geospatial_lon_max",
		"geospatial_lat_max",
	} {
		v, ok := cf[name]
		if !ok {
			return nil, &MissingAttributeError{Attribute: name, Group: cfMetadataGroup}
		}
		f, err := FirstFloat(v)
		if err != nil {
			return nil, &MissingAttributeError{Attribute: name, Group: cfMetadataGroup}
		}
		out[i] = f
	}
	return out, nil
}

// Geometry derives the dataset footprint as a closed rectangle polygon
// traced from the bbox's lower-left corner.
func (b *Bundle) Geometry() (*geojson.Polygon, error) {
	bbox, err := b.BBox()
	if err != nil {
		return nil, err
	}
	return PolygonFromBBox(bbox), nil
}

// PolygonFromBBox builds the closed 5-point rectangle ring for a
// [lonMin, latMin, lonMax, latMax] bbox.
func PolygonFromBBox(bbox []float64) *geojson.Polygon {
	lonMin, latMin, lonMax, latMax := bbox[0], bbox[1], bbox[2], bbox[3]
	return geojson.NewPolygon([][][]float64{{
		{lonMin, latMin},
		{lonMin, latMax},
		{lonMax, latMax},
		{lonMax, latMin},
		{lonMin, latMin},
	}})
}
