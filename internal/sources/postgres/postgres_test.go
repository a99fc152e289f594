package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/core"
)

// Runs only against a real database: DATABASE_URL=postgres://... go test ./internal/sources/postgres
func TestStoreIntegration(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()

	s, err := Open(ctx, url, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.pool.Exec(ctx, `TRUNCATE transactions, categories RESTART IDENTITY`)
	require.NoError(t, err)

	food, err := s.AddCategory(ctx, core.Category{Name: "Food"})
	require.NoError(t, err)
	again, err := s.AddCategory(ctx, core.Category{Name: "FOOD"})
	require.NoError(t, err)
	assert.Equal(t, food.ID, again.ID)

	tx, err := s.AddTransaction(ctx, core.Transaction{
		Date: "2024-01-05", Amount: decimal.RequireFromString("12.30"), TypeID: core.Expense, CategoryID: food.ID, Payment: "lunch",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)

	txs, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("12.3")))
	assert.Equal(t, food.ID, txs[0].CategoryID)

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestOpenInvalidURL(t *testing.T) {
	_, err := Open(context.Background(), "not a url ::", nil)
	assert.Error(t, err)
}
