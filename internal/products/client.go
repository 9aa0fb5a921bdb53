package products

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const defaultTimeout = 5 * time.Second

// Fetcher resolves a product id to the attributes the cart copies.
type Fetcher interface {
	GetProduct(ctx context.Context, id string) (*cart.Product, error)
}

// Client talks to the external product catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logg       *logger.Logger
}

// NewClient builds a client for cfg.BaseURL. httpClient may be nil.
func NewClient(cfg config.CatalogConfig, httpClient *http.Client, logg *logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("catalog base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse catalog base url: %w", err)
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Client{baseURL: base, httpClient: httpClient, logg: logg}, nil
}

// GetProduct fetches GET {base}/products/{id}.
func (c *Client) GetProduct(ctx context.Context, id string) (*cart.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build product request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "product catalog unreachable")
	}
	defer closeBody(ctx, c.logg, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{"product_id": id})
	case resp.StatusCode != http.StatusOK:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product catalog request failed").WithDetails(map[string]any{
			"status": resp.StatusCode,
			"body":   strings.TrimSpace(string(b)),
		})
	}

	var product cart.Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode product response")
	}
	if product.ID == "" {
		product.ID = id
	}
	if product.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product catalog returned a negative price")
	}
	return &product, nil
}

// Ping checks the catalog answers at all; any HTTP status counts as alive.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/products", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	closeBody(ctx, c.logg, resp.Body)
	return nil
}

func closeBody(ctx context.Context, logg *logger.Logger, body io.Closer) {
	if body == nil {
		return
	}
	if err := body.Close(); err != nil {
		logg.Warn(ctx, "products.close_body_failed")
	}
}
