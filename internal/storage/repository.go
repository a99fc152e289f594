package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
	applog "finboard/internal/log"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *applog.Logger
}

func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger.WithComponent(applog.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListTransactions implements sources.TransactionReader
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	txs := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", row.ID, err)
		}
		txs = append(txs, core.Transaction{
			ID:         core.ID(strconv.FormatInt(row.ID, 10)),
			Date:       row.Date,
			Amount:     amount,
			TypeID:     core.TypeID(row.TypeID),
			CategoryID: core.ID(row.CategoryID),
			Payment:    row.Payment,
		})
	}
	return txs, nil
}

// ListCategories implements sources.CategoryReader
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	cats := make([]core.Category, len(rows))
	for i, row := range rows {
		cats[i] = core.Category{ID: core.ID(strconv.FormatInt(row.ID, 10)), Name: row.Name}
	}
	return cats, nil
}

// AddTransaction implements sources.TransactionWriter
func (r *SQLiteRepository) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		Date:       tx.Date,
		Amount:     tx.Amount.String(),
		TypeID:     int64(tx.TypeID),
		CategoryID: string(tx.CategoryID),
		Payment:    tx.Payment,
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	tx.ID = core.ID(strconv.FormatInt(row.ID, 10))
	r.logger.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"date", row.Date,
		"amount", row.Amount,
		"type", tx.TypeID.String())
	return tx, nil
}

// AddCategory implements sources.CategoryWriter. An existing category with
// the same name (case-insensitive) is returned unchanged.
func (r *SQLiteRepository) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	row, err := r.queries.UpsertCategory(ctx, strings.TrimSpace(c.Name))
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	r.logger.InfoContext(ctx, "Category saved to SQLite", "id", row.ID, "name", row.Name)
	return core.Category{ID: core.ID(strconv.FormatInt(row.ID, 10)), Name: row.Name}, nil
}
