package ncmeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBundle() *Bundle {
	return &Bundle{
		Attributes: map[string]any{
			"institution_id": []any{"CCCma"},
			"source_id":      "CanESM5",
		},
		Groups: map[string]Group{
			"CFMetadata": {Attributes: map[string]any{
				"geospatial_lon_min":  []any{0.0},
				"geospatial_lon_max":  []any{360.0},
				"geospatial_lat_min":  []any{-90.0},
				"geospatial_lat_max":  []any{90.0},
				"time_coverage_start": "1850-01-01T00:00:00Z",
				"time_coverage_end":   "2014-12-31T00:00:00Z",
			}},
		},
	}
}

func TestParseBundle(t *testing.T) {
	raw := []byte(`{
		"attributes": {"experiment_id": "historical"},
		"dimensions": {"time": 1980, "lat": 64},
		"variables": {
			"tas": {"type": "float", "shape": ["time", "lat", "lon"], "attributes": {"units": "K"}}
		},
		"groups": {"CFMetadata": {"attributes": {"time_coverage_start": "1850-01-01T00:00:00Z"}}},
		"access_urls": {"HTTPServer": "https://example.org/fileServer/x.nc"}
	}`)

	b, err := ParseBundle(raw)
	require.NoError(t, err)
	assert.Equal(t, "historical", b.Attributes["experiment_id"])
	assert.Equal(t, 1980, b.Dimensions["time"])
	assert.Equal(t, []string{"time", "lat", "lon"}, b.Variables["tas"].Shape)
	assert.Equal(t, "https://example.org/fileServer/x.nc", b.AccessURLs["HTTPServer"])

	_, err = ParseBundle([]byte(`{"attributes": [`))
	assert.Error(t, err)
}

func TestBBox(t *testing.T) {
	b := testBundle()

	bbox, err := b.BBox()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, -90, 360, 90}, bbox)

	t.Run("missing attribute is fatal", func(t *testing.T) {
		delete(b.CFMetadata(), "geospatial_lat_max")
		_, err := b.BBox()
		require.Error(t, err)
		var missing *MissingAttributeError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "geospatial_lat_max", missing.Attribute)
	})

	t.Run("no CFMetadata group", func(t *testing.T) {
		_, err := (&Bundle{}).BBox()
		var missing *MissingAttributeError
		assert.ErrorAs(t, err, &missing)
	})
}

func TestGeometry(t *testing.T) {
	b := testBundle()

	poly, err := b.Geometry()
	require.NoError(t, err)
	require.Len(t, poly.Coordinates, 1)
	ring := poly.Coordinates[0]
	require.Len(t, ring, 5)
	assert.Equal(t, ring[0], ring[4], "ring must be closed")
	assert.Equal(t, []float64{0, -90}, ring[0])
	assert.Equal(t, []float64{0, 90}, ring[1])
	assert.Equal(t, []float64{360, 90}, ring[2])
	assert.Equal(t, []float64{360, -90}, ring[3])
}

func TestTimeCoverage(t *testing.T) {
	b := testBundle()

	start, end, err := b.TimeCoverage()
	require.NoError(t, err)
	assert.Equal(t, "1850-01-01T00:00:00Z", start)
	assert.Equal(t, "2014-12-31T00:00:00Z", end)

	delete(b.CFMetadata(), "time_coverage_end")
	_, _, err = b.TimeCoverage()
	var missing *MissingAttributeError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "time_coverage_end", missing.Attribute)
}

func TestFirstString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"plain string", "abc", "abc"},
		{"array takes first", []any{"first", "second"}, "first"},
		{"nested array", []any{[]any{"deep"}}, "deep"},
		{"float", 42.5, "42.5"},
		{"integer-valued float", 3.0, "3"},
		{"bool", true, "true"},
		{"nil", nil, ""},
		{"empty array", []any{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstString(tt.in))
		})
	}
}

func TestFirstFloat(t *testing.T) {
	got, err := FirstFloat([]any{-75.25, 0.0})
	require.NoError(t, err)
	assert.Equal(t, -75.25, got)

	got, err = FirstFloat("12.5")
	require.NoError(t, err)
	assert.Equal(t, 12.5, got)

	_, err = FirstFloat([]any{})
	assert.Error(t, err)

	_, err = FirstFloat(map[string]any{})
	assert.Error(t, err)
}
