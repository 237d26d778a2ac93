package extensions

import (
	"sort"
	"strings"

	"github.com/nimbusgeo/stac-populator/internal/stac"
)

const mediaTypeNetCDF = "application/x-netcdf"

// threddsService fixes the media type and asset roles for one THREDDS
// access service. NetcdfSubset is served by THREDDS version < 5, the grid
// and point variants by version >= 5.
type threddsService struct {
	mediaType string
	roles     []string
}

var threddsServices = map[string]threddsService{
	"httpserver":        {mediaTypeNetCDF, []string{"data"}},
	"opendap":           {"text/html", []string{"data"}},
	"wcs":               {"application/xml", []string{"data"}},
	"wms":               {"application/xml", []string{"visual"}},
	"netcdfsubset":      {mediaTypeNetCDF, []string{"data"}},
	"netcdfsubsetgrid":  {mediaTypeNetCDF, []string{"data"}},
	"netcdfsubsetpoint": {mediaTypeNetCDF, []string{"data"}},
}

// THREDDS attaches one asset per recognized access service, plus the
// source link pointing at the dataset's HTTPServer location.
type THREDDS struct {
	AccessURLs map[string]string
}

// NewTHREDDS builds the helper from the dataset's access URL table.
// Services outside the fixed table (NcML, ISO, UDDC and friends) carry no
// asset and are skipped.
func NewTHREDDS(accessURLs map[string]string) *THREDDS {
	return &THREDDS{AccessURLs: accessURLs}
}

// Apply adds the service assets and the source link to the item.
func (t *THREDDS) Apply(item *stac.Item) error {
	names := make([]string, 0, len(t.AccessURLs))
	for name := range t.AccessURLs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		svc, known := threddsServices[strings.ToLower(name)]
		if !known {
			continue
		}
		item.Assets[name] = stac.Asset{
			Href:  t.AccessURLs[name],
			Type:  svc.mediaType,
			Roles: svc.roles,
		}
	}

	if url, ok := t.httpServerURL(); ok {
		item.Links = append(item.Links, SourceLink(url))
	}
	return nil
}

// httpServerURL finds the HTTPServer access URL whatever its exact casing.
func (t *THREDDS) httpServerURL() (string, bool) {
	for name, url := range t.AccessURLs {
		if strings.EqualFold(name, "HTTPServer") {
			return url, true
		}
	}
	return "", false
}

// SourceLink builds the rel=source link for a dataset's HTTPServer URL. The
// title is the dataset path below the fileServer mount.
func SourceLink(url string) stac.Link {
	title := url
	if _, after, found := strings.Cut(url, "fileServer/"); found {
		title = after
	}
	return stac.Link{
		Rel:   "source",
		Href:  url,
		Type:  mediaTypeNetCDF,
		Title: title,
	}
}
