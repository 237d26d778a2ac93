package extensions

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/nimbusgeo/stac-populator/internal/stac"
)

// FileSchemaURI is the published file extension schema.
const FileSchemaURI = "https://stac-extensions.github.io/file/v2.1.0/schema.json"

// FileInfo resolves file:size for the dataset's HTTPServer asset. The size
// is read from the Content-Length of a HEAD request at construction, so a
// server that cannot answer simply fails the (optional) helper.
type FileInfo struct {
	AssetKey string
	Size     int64
}

// NewFileInfo issues a HEAD request against the dataset's HTTPServer URL
// and records the reported size.
func NewFileInfo(ctx context.Context, client *http.Client, accessURLs map[string]string) (*FileInfo, error) {
	assetKey, url := "", ""
	for name, u := range accessURLs {
		if strings.EqualFold(name, "HTTPServer") {
			assetKey, url = name, u
			break
		}
	}
	if url == "" {
		return nil, fmt.Errorf("no HTTPServer access url to size")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build HEAD request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HEAD %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HEAD %s: unexpected status %d", url, resp.StatusCode)
	}
	if resp.ContentLength < 0 {
		return nil, fmt.Errorf("HEAD %s: no content length reported", url)
	}
	return &FileInfo{AssetKey: assetKey, Size: resp.ContentLength}, nil
}

// Apply sets file:size on the HTTPServer asset.
func (f *FileInfo) Apply(item *stac.Item) error {
	asset, ok := item.Assets[f.AssetKey]
	if !ok {
		return fmt.Errorf("item [%s] has no %s asset to attach file info to", item.ID, f.AssetKey)
	}
	size := f.Size
	asset.FileSize = &size
	item.Assets[f.AssetKey] = asset
	item.RegisterExtension(FileSchemaURI)
	return nil
}
