package sources

import (
	"context"
	"errors"

	"finboard/internal/core"
)

// ErrReadOnly is returned by backends that cannot store records.
var ErrReadOnly = errors.New("backend is read-only")

// Ports for the transaction and category endpoints.
//
//go:generate mockgen -destination=mocks/mock_sources.go -package=mocks -source=ports.go
type (
	// TransactionReader returns the full transaction list.
	TransactionReader interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// CategoryReader returns the full category list.
	CategoryReader interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	// TransactionWriter stores a transaction and returns it with its id set.
	TransactionWriter interface {
		AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	}

	// CategoryWriter stores a category and returns it with its id set.
	CategoryWriter interface {
		AddCategory(ctx context.Context, c core.Category) (core.Category, error)
	}

	// Reader is what the dashboard needs from a source.
	Reader interface {
		TransactionReader
		CategoryReader
	}
)
