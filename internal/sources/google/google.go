package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"finboard/internal/cache"
	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/sources"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	DefaultTransactionsSheet = "Money"
	DefaultCategoriesSheet   = "Category"

	transactionsRange = "A:E"
	categoriesRange   = "A:B"
)

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	categoriesSheet   string

	rows   *cache.LRUCache[[][]interface{}]
	logger *applog.Logger
}

// Ensure interface conformance
var (
	_ sources.TransactionReader = (*Client)(nil)
	_ sources.CategoryReader    = (*Client)(nil)
	_ sources.TransactionWriter = (*Client)(nil)
	_ sources.CategoryWriter    = (*Client)(nil)
)

type Config struct {
	SpreadsheetID     string
	TransactionsSheet string
	CategoriesSheet   string
	CacheTTL          time.Duration
	Logger            *applog.Logger
	// Options are passed to the Sheets service; when empty, service account
	// credentials are read from the environment.
	Options []goption.ClientOption
}

// New creates a read-only Sheets client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentSource)

	opts := cfg.Options
	if len(opts) == 0 {
		creds, err := serviceAccountJSON(ctx, logger)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsReadonlyScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	c := &Client{
		svc:               svc,
		spreadsheetID:     cfg.SpreadsheetID,
		transactionsSheet: orDefault(cfg.TransactionsSheet, DefaultTransactionsSheet),
		categoriesSheet:   orDefault(cfg.CategoriesSheet, DefaultCategoriesSheet),
		rows:              cache.NewLRUCache[[][]interface{}](8, ttl),
		logger:            logger,
	}
	logger.InfoContext(ctx, "Google Sheets source ready",
		"spreadsheet_id", c.spreadsheetID,
		"transactions_sheet", c.transactionsSheet,
		"categories_sheet", c.categoriesSheet,
		"cache_ttl", ttl)
	return c, nil
}

// RowCache exposes the read cache so callers can register it for cleanup.
func (c *Client) RowCache() cache.Cleaner {
	return c.rows
}

// serviceAccountJSON reads credentials from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func serviceAccountJSON(ctx context.Context, logger *applog.Logger) ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		logger.DebugContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	logger.DebugContext(ctx, "Reading credentials from file", "path", path)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	values, err := c.read(ctx, c.transactionsSheet, transactionsRange)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return parseTransactions(values), nil
}

func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	values, err := c.read(ctx, c.categoriesSheet, categoriesRange)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	return parseCategories(values), nil
}

// AddTransaction is not supported; the spreadsheet is edited by hand.
func (c *Client) AddTransaction(context.Context, core.Transaction) (core.Transaction, error) {
	return core.Transaction{}, sources.ErrReadOnly
}

func (c *Client) AddCategory(context.Context, core.Category) (core.Category, error) {
	return core.Category{}, sources.ErrReadOnly
}

func (c *Client) read(ctx context.Context, sheet, cols string) ([][]interface{}, error) {
	rng := fmt.Sprintf("%s!%s", sheet, cols)
	if values, ok := c.rows.Get(rng); ok {
		c.logger.DebugContext(ctx, "Sheet cache hit", "range", rng)
		return values, nil
	}
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	c.rows.Set(rng, resp.Values)
	return resp.Values, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
