package extensions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusgeo/stac-populator/internal/stac"
)

func TestTHREDDSApply(t *testing.T) {
	helper := NewTHREDDS(cmip6Bundle().AccessURLs)
	item := stac.NewItem()
	require.NoError(t, helper.Apply(item))

	t.Run("one asset per recognized service", func(t *testing.T) {
		require.Len(t, item.Assets, 2)

		httpAsset := item.Assets["HTTPServer"]
		assert.Equal(t, "application/x-netcdf", httpAsset.Type)
		assert.Equal(t, []string{"data"}, httpAsset.Roles)

		dap := item.Assets["OPENDAP"]
		assert.Equal(t, "text/html", dap.Type)
		assert.Equal(t, []string{"data"}, dap.Roles)
	})

	t.Run("unrecognized services are skipped", func(t *testing.T) {
		assert.NotContains(t, item.Assets, "NcML")
	})

	t.Run("source link points at the file server", func(t *testing.T) {
		require.Len(t, item.Links, 1)
		link := item.Links[0]
		assert.Equal(t, "source", link.Rel)
		assert.Equal(t, "https://example.org/thredds/fileServer/datasets/tas_Amon_CanESM5_historical.nc", link.Href)
		assert.Equal(t, "datasets/tas_Amon_CanESM5_historical.nc", link.Title)
		assert.Equal(t, "application/x-netcdf", link.Type)
	})
}

func TestTHREDDSServiceTable(t *testing.T) {
	item := stac.NewItem()
	helper := NewTHREDDS(map[string]string{
		"WMS":               "https://example.org/thredds/wms/x.nc",
		"WCS":               "https://example.org/thredds/wcs/x.nc",
		"NetcdfSubset":      "https://example.org/thredds/ncss/x.nc",
		"NetcdfSubsetGrid":  "https://example.org/thredds/ncss/grid/x.nc",
		"NetcdfSubsetPoint": "https://example.org/thredds/ncss/point/x.nc",
	})
	require.NoError(t, helper.Apply(item))

	assert.Equal(t, []string{"visual"}, item.Assets["WMS"].Roles)
	assert.Equal(t, "application/xml", item.Assets["WMS"].Type)
	assert.Equal(t, []string{"data"}, item.Assets["WCS"].Roles)
	assert.Equal(t, "application/x-netcdf", item.Assets["NetcdfSubset"].Type)
	assert.Equal(t, "application/x-netcdf", item.Assets["NetcdfSubsetGrid"].Type)
	assert.Equal(t, "application/x-netcdf", item.Assets["NetcdfSubsetPoint"].Type)
	assert.Empty(t, item.Links, "no source link without an HTTPServer url")
}

func TestFileInfo(t *testing.T) {
	const size = 3_221_225_472

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Content-Length", strconv.Itoa(size))
	}))
	t.Cleanup(srv.Close)

	urls := map[string]string{"HTTPServer": srv.URL + "/thredds/fileServer/x.nc"}

	fi, err := NewFileInfo(context.Background(), srv.Client(), urls)
	require.NoError(t, err)
	assert.Equal(t, int64(size), fi.Size)

	item := stac.NewItem()
	item.Assets["HTTPServer"] = stac.Asset{Href: urls["HTTPServer"]}
	require.NoError(t, fi.Apply(item))

	require.NotNil(t, item.Assets["HTTPServer"].FileSize)
	assert.Equal(t, int64(size), *item.Assets["HTTPServer"].FileSize)
	assert.Contains(t, item.StacExtensions, FileSchemaURI)
}

func TestFileInfoFailures(t *testing.T) {
	t.Run("no HTTPServer url", func(t *testing.T) {
		_, err := NewFileInfo(context.Background(), http.DefaultClient, map[string]string{})
		assert.Error(t, err)
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)
		_, err := NewFileInfo(context.Background(), srv.Client(), map[string]string{"HTTPServer": srv.URL})
		assert.Error(t, err)
	})

	t.Run("missing asset at apply time", func(t *testing.T) {
		fi := &FileInfo{AssetKey: "HTTPServer", Size: 1}
		err := fi.Apply(stac.NewItem())
		assert.Error(t, err)
	})
}
