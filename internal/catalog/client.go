package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/pkg/logger"
)

var (
	// ErrUnavailable is returned on network failures and non-2xx responses
	ErrUnavailable = errors.New("catalog unavailable")

	// ErrProductNotFound is returned when a single product lookup has no result
	ErrProductNotFound = errors.New("product not found")
)

// maxBodySize bounds how much of a catalog response is read.
const maxBodySize = 8 << 20

// Client reads the public product catalog API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the catalog root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Products lists the full catalog
func (c *Client) Products(ctx context.Context) ([]model.Product, error) {
	body, err := c.get(ctx, "/products")
	if err != nil {
		return nil, err
	}

	var products []model.Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("%w: decode products: %v", ErrUnavailable, err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

// Product fetches one product by id
func (c *Client) Product(ctx context.Context, id int) (*model.Product, error) {
	body, err := c.get(ctx, fmt.Sprintf("/products/%d", id))
	if err != nil {
		return nil, err
	}

	// fakestoreapi answers unknown ids with 200 and an empty body
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrProductNotFound
	}

	var product model.Product
	if err := json.Unmarshal(trimmed, &product); err != nil {
		return nil, fmt.Errorf("%w: decode product %d: %v", ErrUnavailable, id, err)
	}
	if product.ID == 0 {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// Categories lists category names. Both a string array and an array of
// {id, name} objects are accepted.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/products/categories")
	if err != nil {
		return nil, err
	}

	var names []string
	if err := json.Unmarshal(body, &names); err == nil {
		return names, nil
	}

	var objects []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &objects); err != nil {
		return nil, fmt.Errorf("%w: decode categories: %v", ErrUnavailable, err)
	}
	names = make([]string, 0, len(objects))
	for _, o := range objects {
		names = append(names, o.Name)
	}
	return names, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("Catalog request failed", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	logger.Debug("Catalog request completed", map[string]interface{}{
		"url":        url,
		"status":     resp.StatusCode,
		"latency_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProductNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return body, nil
}
