package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type TransactionRow struct {
	ID         int64
	Date       string
	Amount     string
	TypeID     int64
	CategoryID string
	Payment    string
}

type CategoryRow struct {
	ID   int64
	Name string
}

const listTransactions = `-- name: ListTransactions :many
SELECT id, date, amount, type_id, category_id, payment FROM transactions ORDER BY id
`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(&i.ID, &i.Date, &i.Amount, &i.TypeID, &i.CategoryID, &i.Payment); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (date, amount, type_id, category_id, payment)
VALUES (?, ?, ?, ?, ?)
RETURNING id, date, amount, type_id, category_id, payment
`

type CreateTransactionParams struct {
	Date       string
	Amount     string
	TypeID     int64
	CategoryID string
	Payment    string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, createTransaction, arg.Date, arg.Amount, arg.TypeID, arg.CategoryID, arg.Payment)
	var i TransactionRow
	err := row.Scan(&i.ID, &i.Date, &i.Amount, &i.TypeID, &i.CategoryID, &i.Payment)
	return i, err
}

const listCategories = `-- name: ListCategories :many
SELECT id, name FROM categories ORDER BY id
`

func (q *Queries) ListCategories(ctx context.Context) ([]CategoryRow, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryRow
	for rows.Next() {
		var i CategoryRow
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertCategory = `-- name: UpsertCategory :one
INSERT INTO categories (name) VALUES (?)
ON CONFLICT(name) DO UPDATE SET name = categories.name
RETURNING id, name
`

func (q *Queries) UpsertCategory(ctx context.Context, name string) (CategoryRow, error) {
	row := q.db.QueryRowContext(ctx, upsertCategory, name)
	var i CategoryRow
	err := row.Scan(&i.ID, &i.Name)
	return i, err
}
