// Package stacapi is the HTTP client for the STAC API sink. Collections and
// items are published with create-or-update semantics: POST first, fall
// back to PUT when the API answers 409 Conflict.
package stacapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nimbusgeo/stac-populator/internal/observability"
	"github.com/nimbusgeo/stac-populator/internal/stac"
)

// Outcomes of a publish call.
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
)

// Client talks to one STAC API root.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a STAC API client. baseURL is the catalog root, without
// a trailing slash.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReachable verifies the configured root actually serves a STAC
// catalog before a harvest run starts.
func (c *Client) CheckReachable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reach STAC API at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("STAC API at %s answered status %d", c.baseURL, resp.StatusCode)
	}

	var root struct {
		Type        string `json:"type"`
		StacVersion string `json:"stac_version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&root); err != nil {
		return fmt.Errorf("decode STAC API root: %w", err)
	}
	if root.Type != "Catalog" || root.StacVersion == "" {
		return fmt.Errorf("%s does not serve a STAC catalog (type=%q)", c.baseURL, root.Type)
	}
	return nil
}

// PostCollection publishes a collection, updating it if it already exists.
func (c *Client) PostCollection(ctx context.Context, collection *stac.Collection) (string, error) {
	postURL := c.baseURL + "/collections"
	putURL := postURL + "/" + collection.ID
	return c.publish(ctx, "post_collection", postURL, putURL, collection)
}

// PostItem publishes an item into a collection, updating it if it already
// exists.
func (c *Client) PostItem(ctx context.Context, collectionID string, item *stac.Item) (string, error) {
	postURL := fmt.Sprintf("%s/collections/%s/items", c.baseURL, collectionID)
	putURL := postURL + "/" + item.ID
	return c.publish(ctx, "post_item", postURL, putURL, item)
}

// GetCollection fetches an existing collection document.
func (c *Client) GetCollection(ctx context.Context, collectionID string) (*stac.Collection, error) {
	var collection stac.Collection
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, collectionID)
	if err := c.getJSON(ctx, "get_collection", url, &collection); err != nil {
		return nil, err
	}
	return &collection, nil
}

// ListItems fetches the items of a collection. The API's first page is
// taken as the full set; paginating very large collections is a caller
// concern.
func (c *Client) ListItems(ctx context.Context, collectionID string) ([]*stac.Item, error) {
	var page struct {
		Features []*stac.Item `json:"features"`
	}
	url := fmt.Sprintf("%s/collections/%s/items", c.baseURL, collectionID)
	if err := c.getJSON(ctx, "list_items", url, &page); err != nil {
		return nil, err
	}
	return page.Features, nil
}

func (c *Client) publish(ctx context.Context, operation, postURL, putURL string, doc any) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("serialize document: %w", err)
	}

	start := time.Now()
	defer func() {
		c.observeDuration(operation, start)
	}()

	status, err := c.send(ctx, http.MethodPost, postURL, body)
	if err != nil {
		c.countRequest(operation, "error")
		return "", err
	}
	if status != http.StatusConflict {
		if status >= 300 {
			c.countRequest(operation, "error")
			return "", fmt.Errorf("POST %s: unexpected status %d", postURL, status)
		}
		c.countRequest(operation, OutcomeCreated)
		return OutcomeCreated, nil
	}

	c.logger.Debug("document exists, updating", "url", putURL)
	status, err = c.send(ctx, http.MethodPut, putURL, body)
	if err != nil {
		c.countRequest(operation, "error")
		return "", err
	}
	if status >= 300 {
		c.countRequest(operation, "error")
		return "", fmt.Errorf("PUT %s: unexpected status %d", putURL, status)
	}
	c.countRequest(operation, OutcomeUpdated)
	return OutcomeUpdated, nil
}

func (c *Client) send(ctx context.Context, method, url string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (c *Client) getJSON(ctx context.Context, operation, url string, out any) error {
	start := time.Now()
	defer func() {
		c.observeDuration(operation, start)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.countRequest(operation, "error")
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.countRequest(operation, "error")
		return fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.countRequest(operation, "error")
		return fmt.Errorf("decode %s response: %w", url, err)
	}
	c.countRequest(operation, "ok")
	return nil
}

func (c *Client) countRequest(operation, outcome string) {
	if c.metrics != nil {
		c.metrics.StacAPIRequests.WithLabelValues(operation, outcome).Inc()
	}
}

func (c *Client) observeDuration(operation string, start time.Time) {
	if c.metrics != nil {
		c.metrics.StacAPIDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
