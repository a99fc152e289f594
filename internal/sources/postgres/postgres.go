// Package postgres stores transactions and categories in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"finboard/internal/core"
	applog "finboard/internal/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS categories (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS categories_name_lower_idx ON categories (lower(name));

CREATE TABLE IF NOT EXISTS transactions (
	id BIGSERIAL PRIMARY KEY,
	date TEXT NOT NULL,
	amount NUMERIC(14, 2) NOT NULL CHECK (amount > 0),
	type_id SMALLINT NOT NULL CHECK (type_id IN (1, 2)),
	category_id TEXT NOT NULL,
	payment TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

type Store struct {
	pool   *pgxpool.Pool
	logger *applog.Logger
}

// Open connects to databaseURL and creates the schema when missing.
func Open(ctx context.Context, databaseURL string, logger *applog.Logger) (*Store, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{pool: pool, logger: logger.WithComponent(applog.ComponentStorage)}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, date, amount::text, type_id, category_id, payment FROM transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var (
			id      int64
			amount  string
			typeID  int16
			tx      core.Transaction
			catID   string
			payment string
		)
		if err := rows.Scan(&id, &tx.Date, &amount, &typeID, &catID, &payment); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", id, err)
		}
		tx.ID = core.ID(strconv.FormatInt(id, 10))
		tx.Amount = d
		tx.TypeID = core.TypeID(typeID)
		tx.CategoryID = core.ID(catID)
		tx.Payment = payment
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, core.Category{ID: core.ID(strconv.FormatInt(id, 10)), Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (s *Store) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO transactions (date, amount, type_id, category_id, payment)
		 VALUES ($1, $2::numeric, $3, $4, $5) RETURNING id`,
		tx.Date, tx.Amount.String(), int16(tx.TypeID), string(tx.CategoryID), tx.Payment,
	).Scan(&id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	tx.ID = core.ID(strconv.FormatInt(id, 10))
	s.logger.InfoContext(ctx, "Transaction saved to Postgres", "id", id, "type", tx.TypeID.String())
	return tx, nil
}

// AddCategory inserts c, returning the existing row when the name is taken.
func (s *Store) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	name := strings.TrimSpace(c.Name)

	var (
		id     int64
		stored string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, name FROM categories WHERE lower(name) = lower($1)`, name,
	).Scan(&id, &stored)
	switch {
	case err == nil:
		return core.Category{ID: core.ID(strconv.FormatInt(id, 10)), Name: stored}, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return core.Category{}, fmt.Errorf("lookup category: %w", err)
	}

	if err := s.pool.QueryRow(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id`, name,
	).Scan(&id); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.logger.InfoContext(ctx, "Category saved to Postgres", "id", id, "name", name)
	return core.Category{ID: core.ID(strconv.FormatInt(id, 10)), Name: name}, nil
}
