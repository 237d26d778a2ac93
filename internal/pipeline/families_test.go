package pipeline

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusgeo/stac-populator/internal/ncmeta"
)

func TestLookupFamily(t *testing.T) {
	t.Run("cmip6", func(t *testing.T) {
		family, err := LookupFamily("cmip6", nil, http.DefaultClient)
		require.NoError(t, err)
		require.Len(t, family.Helpers, 3)
		assert.Equal(t, "cmip6", family.Helpers[0].Name)
		assert.True(t, family.Helpers[0].Required)
		assert.False(t, family.Helpers[1].Required)
	})

	t.Run("cordex6", func(t *testing.T) {
		family, err := LookupFamily("cordex6", nil, http.DefaultClient)
		require.NoError(t, err)
		require.Len(t, family.Helpers, 4)
		assert.Equal(t, "cordex6", family.Helpers[0].Name)
	})

	t.Run("unknown family", func(t *testing.T) {
		_, err := LookupFamily("era5", nil, http.DefaultClient)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "era5")
	})
}

func TestFamilyIDFallback(t *testing.T) {
	family, err := LookupFamily("cmip6", nil, http.DefaultClient)
	require.NoError(t, err)

	t.Run("vocabulary attributes win", func(t *testing.T) {
		b := &ncmeta.Bundle{Attributes: map[string]any{
			"activity_id":    "CMIP",
			"institution_id": "CCCma",
			"source_id":      "CanESM5",
			"experiment_id":  "historical",
			"variant_label":  "r1i1p1f1",
			"table_id":       "Amon",
			"variable_id":    "tas",
			"grid_label":     "gn",
		}}

		id, err := family.ItemID(b)
		require.NoError(t, err)
		assert.Equal(t, "CMIP_CCCma_CanESM5_historical_r1i1p1f1_Amon_tas_gn", id)
	})

	t.Run("download path fills in for missing attributes", func(t *testing.T) {
		b := &ncmeta.Bundle{
			AccessURLs: map[string]string{
				"HTTPServer": "https://host/thredds/fileServer/datasets/tas_Amon_CanESM5_historical.nc",
			},
		}

		id, err := family.ItemID(b)
		require.NoError(t, err)
		assert.Equal(t, "datasets/tas_Amon_CanESM5_historical.nc", id)
	})

	t.Run("neither source is an error", func(t *testing.T) {
		_, err := family.ItemID(&ncmeta.Bundle{})
		require.Error(t, err)
	})
}
