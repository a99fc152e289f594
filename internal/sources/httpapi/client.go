// Package httpapi reads transactions and categories from the JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"finboard/internal/core"
)

const (
	DefaultTransactionsPath = "/money"
	DefaultCategoriesPath   = "/category"
)

// Client performs unauthenticated GETs against the source API.
type Client struct {
	baseURL          string
	transactionsPath string
	categoriesPath   string
	httpClient       *http.Client
}

type Option func(*Client)

// WithPaths overrides the endpoint paths. Empty values keep the defaults.
func WithPaths(transactions, categories string) Option {
	return func(c *Client) {
		if transactions != "" {
			c.transactionsPath = transactions
		}
		if categories != "" {
			c.categoriesPath = categories
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		transactionsPath: DefaultTransactionsPath,
		categoriesPath:   DefaultCategoriesPath,
		httpClient:       &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTransactions fetches the full transaction list.
func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	var txs []core.Transaction
	if err := c.getJSON(ctx, c.transactionsPath, "fetching transactions", &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// ListCategories fetches the full category list.
func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	var cats []core.Category
	if err := c.getJSON(ctx, c.categoriesPath, "fetching categories", &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (c *Client) getJSON(ctx context.Context, path, op string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", strings.TrimPrefix(op, "fetching "), err)
	}
	return nil
}
