package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"storefront/internal/cascade"
	"storefront/internal/catalog/types"
	"storefront/internal/config"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	maxResponseBytes = 8 << 20
	maxErrorBody     = 512
)

// Client calls the storefront REST API.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

var _ cascade.Fetcher = (*Client)(nil)

// NewClient creates a catalog API client. Connection errors and 5xx
// responses are retried up to cfg.RetryMax times before a request fails.
func NewClient(cfg config.CatalogConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rc := retryablehttp.NewClient()
	if cfg.HTTPClient != nil {
		rc.HTTPClient = cfg.HTTPClient
	} else if cfg.Timeout > 0 {
		rc.HTTPClient.Timeout = cfg.Timeout
	}
	rc.RetryMax = cfg.RetryMax
	if cfg.RetryWaitMin > 0 {
		rc.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		rc.RetryWaitMax = cfg.RetryWaitMax
	}
	// hand the last response back so it becomes a StatusError
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = slog.Default()

	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: rc,
	}, nil
}

// Fetch performs the GET a cascade candidate describes.
func (c *Client) Fetch(ctx context.Context, cand cascade.Candidate) ([]byte, error) {
	return c.get(ctx, cand.Name, cand.Path, cand.Query)
}

// Category looks up a single category.
func (c *Client) Category(ctx context.Context, id types.ID) (*types.Category, error) {
	return getJSON[types.Category](ctx, c, "category", "/categories/"+id.String()+"/")
}

// Product looks up a single product.
func (c *Client) Product(ctx context.Context, id types.ID) (*types.Product, error) {
	return getJSON[types.Product](ctx, c, "product", "/products/"+id.String()+"/")
}

// Promotion looks up a single promotion.
func (c *Client) Promotion(ctx context.Context, id types.ID) (*types.Promotion, error) {
	return getJSON[types.Promotion](ctx, c, "promotion", "/promotions/"+id.String()+"/")
}

// Ready reports whether the API answers at all. Any response below 500
// counts.
func (c *Client) Ready(ctx context.Context) error {
	_, err := c.get(ctx, "ready", "/categories/", nil)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError {
		return nil
	}
	return err
}

func getJSON[T any](ctx context.Context, c *Client, operation, path string) (*T, error) {
	body, err := c.get(ctx, operation, path, nil)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s %s: %w", operation, path, ErrNotFound)
		}
		return nil, err
	}

	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("parse %s response: %w", operation, err)
	}
	return &v, nil
}

func (c *Client) get(ctx context.Context, operation, path string, query url.Values) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", operation, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(resp.Body, maxResponseBytes)); err != nil {
		return nil, fmt.Errorf("read %s response: %w", operation, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body := strings.TrimSpace(buf.String())
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		slog.DebugContext(ctx, "catalog API returned an error status",
			"operation", operation,
			"url", target,
			"status", resp.StatusCode,
		)
		return nil, &StatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}

	return buf.Bytes(), nil
}
