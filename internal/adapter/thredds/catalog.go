// Package thredds crawls THREDDS data server catalogs and turns each
// referenced dataset's NcML document into an attribute bundle for the
// pipeline.
package thredds

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Dataset is one harvestable entry of a catalog: a dataset element carrying
// a urlPath, with one absolute access URL per service the server exposes.
type Dataset struct {
	Name       string
	Path       string
	AccessURLs map[string]string
}

// Catalog is one parsed catalog page: its datasets and the absolute URLs of
// the child catalogs it references.
type Catalog struct {
	URL      string
	Datasets []Dataset
	Refs     []string
}

// Raw catalog XML. Attribute names match by local name, so the xlink
// namespace on catalogRef needs no special handling.
type catalogDoc struct {
	XMLName  xml.Name     `xml:"catalog"`
	Services []serviceDef `xml:"service"`
	Datasets []datasetDef `xml:"dataset"`
	Refs     []catalogRef `xml:"catalogRef"`
}

type serviceDef struct {
	Name     string       `xml:"name,attr"`
	Type     string       `xml:"serviceType,attr"`
	Base     string       `xml:"base,attr"`
	Services []serviceDef `xml:"service"`
}

type datasetDef struct {
	Name     string       `xml:"name,attr"`
	URLPath  string       `xml:"urlPath,attr"`
	Datasets []datasetDef `xml:"dataset"`
	Refs     []catalogRef `xml:"catalogRef"`
}

type catalogRef struct {
	Href string `xml:"href,attr"`
}

// NormalizeCatalogURL maps the catalog URL users copy from a browser to the
// XML form the server actually serves. Query strings address a single
// dataset page and cannot be crawled.
func NormalizeCatalogURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse catalog URL: %w", err)
	}
	if u.RawQuery != "" {
		return "", fmt.Errorf("catalog URL %q has a query string, expected a plain catalog page", rawURL)
	}
	if strings.HasSuffix(u.Path, ".html") {
		u.Path = strings.TrimSuffix(u.Path, ".html") + ".xml"
	}
	return u.String(), nil
}

// fetchCatalog downloads and parses one catalog page.
func fetchCatalog(ctx context.Context, client *http.Client, catalogURL string) (*Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, catalogURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog %s: %w", catalogURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch catalog %s: unexpected status %d", catalogURL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", catalogURL, err)
	}
	return parseCatalog(catalogURL, data)
}

func parseCatalog(catalogURL string, data []byte) (*Catalog, error) {
	var doc catalogDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", catalogURL, err)
	}
	base, err := url.Parse(catalogURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog URL: %w", err)
	}

	services := flattenServices(doc.Services)
	cat := &Catalog{URL: catalogURL}

	var walk func(ds []datasetDef, refs []catalogRef)
	walk = func(ds []datasetDef, refs []catalogRef) {
		for _, ref := range refs {
			href, err := base.Parse(ref.Href)
			if err != nil {
				continue
			}
			cat.Refs = append(cat.Refs, href.String())
		}
		for _, d := range ds {
			if d.URLPath != "" {
				cat.Datasets = append(cat.Datasets, Dataset{
					Name:       d.Name,
					Path:       d.URLPath,
					AccessURLs: accessURLs(base, services, d.URLPath),
				})
			}
			walk(d.Datasets, d.Refs)
		}
	}
	walk(doc.Datasets, doc.Refs)
	return cat, nil
}

// flattenServices expands compound services into their concrete members.
func flattenServices(defs []serviceDef) []serviceDef {
	var out []serviceDef
	for _, s := range defs {
		if len(s.Services) > 0 {
			out = append(out, flattenServices(s.Services)...)
			continue
		}
		out = append(out, s)
	}
	return out
}

// accessURLs builds the service-type-keyed URL map for one dataset. Service
// base paths are server-absolute, so they resolve against the catalog host.
func accessURLs(base *url.URL, services []serviceDef, urlPath string) map[string]string {
	urls := make(map[string]string, len(services))
	for _, s := range services {
		if s.Base == "" {
			continue
		}
		ref, err := base.Parse(s.Base + urlPath)
		if err != nil {
			continue
		}
		urls[s.Type] = ref.String()
	}
	return urls
}

// ncmlURL finds the NcML service URL of a dataset, whatever case the server
// spelled the service type in.
func ncmlURL(ds Dataset) (string, bool) {
	for name, u := range ds.AccessURLs {
		if strings.EqualFold(name, "NCML") {
			return u, true
		}
	}
	return "", false
}
