package datacube

import (
	"fmt"

	"github.com/nimbusgeo/stac-populator/internal/ncmeta"
)

const (
	TypeSpatial  = "spatial"
	TypeTemporal = "temporal"

	RoleData      = "data"
	RoleAuxiliary = "auxiliary"
)

// Dimension is one entry of cube:dimensions.
type Dimension struct {
	Type        string `json:"type"`
	Axis        string `json:"axis,omitempty"`
	Extent      []any  `json:"extent"`
	Description string `json:"description,omitempty"`
}

// Variable is one entry of cube:variables.
type Variable struct {
	Dimensions  []string `json:"dimensions"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Unit        string   `json:"unit"`
}

// InferDimensions classifies every named dimension with a co-named
// coordinate variable. An integer-typed coordinate variable yields an index
// extent [0, length] regardless of axis; X and Y take their bounds from the
// dataset bbox and T/time from the temporal coverage.
func InferDimensions(b *ncmeta.Bundle) (map[string]Dimension, error) {
	dims := map[string]Dimension{}
	for name, length := range b.Dimensions {
		v, ok := b.Variables[name]
		if !ok {
			continue
		}
		criteria, ok := matchAxis(v.Attributes)
		if !ok {
			continue
		}

		axis := axisName[criteria.key]
		dimType := TypeTemporal
		if axis == "x" || axis == "y" || axis == "z" {
			dimType = TypeSpatial
		}

		extent, err := dimensionExtent(b, criteria.key, v, length)
		if err != nil {
			return nil, fmt.Errorf("dimension %q: %w", name, err)
		}

		dim := Dimension{
			Type:        dimType,
			Extent:      extent,
			Description: describeDimension(v.Attributes, criteria),
		}
		if dimType == TypeSpatial {
			dim.Axis = axis
		}
		dims[name] = dim
	}
	return dims, nil
}

func dimensionExtent(b *ncmeta.Bundle, axisKey string, v ncmeta.Variable, length int) ([]any, error) {
	if v.Type == "int" {
		return []any{0, length}, nil
	}
	switch axisKey {
	case "X":
		bbox, err := b.BBox()
		if err != nil {
			return nil, err
		}
		return []any{bbox[0], bbox[2]}, nil
	case "Y":
		bbox, err := b.BBox()
		if err != nil {
			return nil, err
		}
		return []any{bbox[1], bbox[3]}, nil
	case "T", "time":
		start, end, err := b.TimeCoverage()
		if err != nil {
			return nil, err
		}
		return []any{start, end}, nil
	}
	return []any{"", ""}, nil
}

func describeDimension(attrs map[string]any, criteria axisCriteria) string {
	if d, ok := attrs["description"].(string); ok && d != "" {
		return d
	}
	if d, ok := attrs["long_name"].(string); ok && d != "" {
		return d
	}
	return criteria.standardName()
}

// InferVariables classifies every non-dimension variable. Bounds variables
// (referenced by another variable's bounds attribute) are auxiliary and
// inherit the units of the variable they bound; other coordinate-like
// variables are auxiliary; the rest carry data.
func InferVariables(b *ncmeta.Bundle) map[string]Variable {
	bounds := boundsVariables(b)

	vars := map[string]Variable{}
	for name, meta := range b.Variables {
		if _, isDim := b.Dimensions[name]; isDim {
			continue
		}

		role := RoleData
		unit := attrString(meta.Attributes, "units")
		description := attrString(meta.Attributes, "description")
		if description == "" {
			description = attrString(meta.Attributes, "long_name")
		}

		if bounded, isBounds := bounds[name]; isBounds {
			role = RoleAuxiliary
			if unit == "" {
				unit = attrString(b.Variables[bounded].Attributes, "units")
			}
			if description == "" {
				description = fmt.Sprintf("bounds for the %s coordinate", bounded)
			}
		} else if isCoordinate(meta.Attributes) {
			role = RoleAuxiliary
		}

		shape := meta.Shape
		if shape == nil {
			shape = []string{}
		}
		vars[name] = Variable{
			Dimensions:  shape,
			Type:        role,
			Description: description,
			Unit:        unit,
		}
	}
	return vars
}

// boundsVariables maps each bounds variable name to the name of the
// variable it bounds.
func boundsVariables(b *ncmeta.Bundle) map[string]string {
	out := map[string]string{}
	for name, meta := range b.Variables {
		if ref, ok := meta.Attributes["bounds"].(string); ok {
			out[ref] = name
		}
	}
	return out
}

func attrString(attrs map[string]any, name string) string {
	s, _ := attrs[name].(string)
	return s
}
