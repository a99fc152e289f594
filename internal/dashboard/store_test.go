package dashboard

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/sources/mocks"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleTransactions() []core.Transaction {
	return []core.Transaction{
		{Date: "2024-01-05", Amount: dec("100"), TypeID: core.Income, CategoryID: "1", Payment: "salary"},
		{Date: "2024-01-20", Amount: dec("40"), TypeID: core.Expense, CategoryID: "2", Payment: "groceries"},
		{Date: "2024-02-03", Amount: dec("50"), TypeID: core.Income, CategoryID: "1", Payment: "bonus"},
	}
}

func sampleCategories() []core.Category {
	return []core.Category{{ID: "1", Name: "Salary"}, {ID: "2", Name: "Food"}}
}

func newMockStore(t *testing.T, opts Options) (*Store, *mocks.MockReader) {
	t.Helper()
	ctrl := gomock.NewController(t)
	reader := mocks.NewMockReader(ctrl)
	return NewStore(reader, reader, opts), reader
}

func TestStoreInitialState(t *testing.T) {
	s, _ := newMockStore(t, Options{})

	snap := s.Snapshot()
	assert.True(t, snap.Loading, "loading before the first load settles")
	assert.False(t, s.Ready())
	assert.Empty(t, snap.Monthly)
	assert.Empty(t, snap.Categories)
	assert.Empty(t, snap.Recent)
	assert.True(t, snap.Metrics.TotalIncome.IsZero())
	assert.Zero(t, snap.Metrics.SavingsRate)
}

func TestStoreLoadSuccess(t *testing.T) {
	s, reader := newMockStore(t, Options{})
	reader.EXPECT().ListTransactions(gomock.Any()).Return(sampleTransactions(), nil)
	reader.EXPECT().ListCategories(gomock.Any()).Return(sampleCategories(), nil)

	s.Load(context.Background())
	snap := s.Snapshot()

	assert.False(t, snap.Loading)
	assert.True(t, s.Ready())
	assert.False(t, snap.LastLoaded.IsZero())

	require.Len(t, snap.Monthly, 2)
	assert.Equal(t, "2024-01", snap.Monthly[0].Month)
	assert.True(t, snap.Monthly[0].Income.Equal(dec("100")))
	assert.True(t, snap.Monthly[0].Expense.Equal(dec("40")))
	assert.Equal(t, "2024-02", snap.Monthly[1].Month)

	require.Len(t, snap.Categories, 1)
	assert.Equal(t, "Food", snap.Categories[0].Category)

	require.Len(t, snap.Recent, 3)
	assert.Equal(t, "2024-02-03", snap.Recent[0].Date)
	assert.True(t, snap.Recent[2].Amount.Equal(dec("100")))
	assert.True(t, snap.Recent[1].Amount.Equal(dec("-40")))
	assert.Equal(t, "Salary", snap.Recent[0].Category)

	assert.True(t, snap.Metrics.TotalIncome.Equal(dec("150")))
	assert.True(t, snap.Metrics.TotalExpense.Equal(dec("40")))
	assert.True(t, snap.Metrics.Balance.Equal(dec("110")))
	assert.Equal(t, int64(73), snap.Metrics.SavingsRate)
	assert.Equal(t, snap.Metrics, snap.Overall)
}

func TestStoreMetricsUseRecentSlice(t *testing.T) {
	txs := sampleTransactions()
	txs = append(txs, core.Transaction{Date: "2023-12-31", Amount: dec("1000"), TypeID: core.Income, CategoryID: "1"})

	s, reader := newMockStore(t, Options{RecentLimit: 3})
	reader.EXPECT().ListTransactions(gomock.Any()).Return(txs, nil)
	reader.EXPECT().ListCategories(gomock.Any()).Return(sampleCategories(), nil)

	s.Load(context.Background())
	snap := s.Snapshot()

	require.Len(t, snap.Recent, 3)
	assert.True(t, snap.Metrics.TotalIncome.Equal(dec("150")), "oldest transaction is outside the recent slice")
	assert.True(t, snap.Overall.TotalIncome.Equal(dec("1150")))
}

func TestStoreUnknownCategoryUsesDefaultLabel(t *testing.T) {
	s, reader := newMockStore(t, Options{DefaultCategory: "other"})
	reader.EXPECT().ListTransactions(gomock.Any()).Return(sampleTransactions(), nil)
	reader.EXPECT().ListCategories(gomock.Any()).Return(nil, nil)

	s.Load(context.Background())
	snap := s.Snapshot()
	require.Len(t, snap.Categories, 1)
	assert.Equal(t, "other", snap.Categories[0].Category)
	assert.Equal(t, "other", snap.Recent[0].Category)
}

func TestStoreFailedLoadKeepsState(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Handler: slog.NewTextHandler(&buf, nil)})

	s, reader := newMockStore(t, Options{Logger: logger})
	reader.EXPECT().ListTransactions(gomock.Any()).Return(sampleTransactions(), nil)
	reader.EXPECT().ListCategories(gomock.Any()).Return(sampleCategories(), nil)
	s.Load(context.Background())
	before := s.Snapshot()

	reader.EXPECT().ListTransactions(gomock.Any()).Return(nil, errors.New("connection refused"))
	reader.EXPECT().ListCategories(gomock.Any()).Return(sampleCategories(), nil).AnyTimes()
	s.Load(context.Background())
	after := s.Snapshot()

	assert.False(t, after.Loading)
	assert.Equal(t, before.Monthly, after.Monthly)
	assert.Equal(t, before.Categories, after.Categories)
	assert.Equal(t, before.Recent, after.Recent)
	assert.Equal(t, before.LastLoaded, after.LastLoaded)
	assert.Contains(t, buf.String(), "Dashboard load failed")
	assert.Contains(t, buf.String(), "connection refused")
	assert.Contains(t, buf.String(), "component=dashboard")
}

func TestStoreFirstLoadFailureClearsLoading(t *testing.T) {
	s, reader := newMockStore(t, Options{})
	reader.EXPECT().ListTransactions(gomock.Any()).Return(sampleTransactions(), nil).AnyTimes()
	reader.EXPECT().ListCategories(gomock.Any()).Return(nil, errors.New("unexpected status 500"))

	s.Load(context.Background())
	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.True(t, s.Ready())
	assert.Empty(t, snap.Monthly)
	assert.True(t, snap.LastLoaded.IsZero())
}

func TestStoreLoadingWhileInFlight(t *testing.T) {
	s, reader := newMockStore(t, Options{})
	release := make(chan struct{})
	entered := make(chan struct{})

	reader.EXPECT().ListTransactions(gomock.Any()).DoAndReturn(func(context.Context) ([]core.Transaction, error) {
		close(entered)
		<-release
		return sampleTransactions(), nil
	})
	reader.EXPECT().ListCategories(gomock.Any()).Return(sampleCategories(), nil)

	done := make(chan struct{})
	go func() {
		s.Load(context.Background())
		close(done)
	}()

	<-entered
	assert.True(t, s.Loading())
	close(release)
	<-done
	assert.False(t, s.Loading())
}

func TestStoreStaleLoadIsDiscarded(t *testing.T) {
	s, reader := newMockStore(t, Options{})

	slowRelease := make(chan struct{})
	slowEntered := make(chan struct{})
	old := []core.Transaction{{Date: "2020-01-01", Amount: dec("1"), TypeID: core.Income, CategoryID: "1"}}

	var calls int
	var mu sync.Mutex
	reader.EXPECT().ListTransactions(gomock.Any()).DoAndReturn(func(context.Context) ([]core.Transaction, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(slowEntered)
			<-slowRelease
			return old, nil
		}
		return sampleTransactions(), nil
	}).Times(2)
	reader.EXPECT().ListCategories(gomock.Any()).Return(sampleCategories(), nil).Times(2)

	slowDone := make(chan struct{})
	go func() {
		s.Load(context.Background())
		close(slowDone)
	}()
	<-slowEntered

	// The second load starts later and finishes first.
	s.Load(context.Background())
	assert.True(t, s.Loading(), "first load still in flight")

	close(slowRelease)
	<-slowDone

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	require.Len(t, snap.Monthly, 2)
	assert.Equal(t, "2024-01", snap.Monthly[0].Month, "older load must not overwrite newer results")
}

func TestStoreSubscribe(t *testing.T) {
	s, reader := newMockStore(t, Options{})
	reader.EXPECT().ListTransactions(gomock.Any()).Return(sampleTransactions(), nil)
	reader.EXPECT().ListCategories(gomock.Any()).Return(sampleCategories(), nil)

	ch, cancel := s.Subscribe()
	defer cancel()

	initial := <-ch
	assert.True(t, initial.Loading)

	s.Load(context.Background())

	// Only the newest snapshot is kept for a slow reader.
	select {
	case snap := <-ch:
		assert.False(t, snap.Loading)
		assert.Len(t, snap.Recent, 3)
	case <-time.After(time.Second):
		t.Fatal("no snapshot received")
	}
	select {
	case snap := <-ch:
		t.Fatalf("unexpected extra snapshot: %+v", snap)
	default:
	}

	cancel()
	_, ok := <-ch
	assert.False(t, ok, "channel closed after cancel")
	cancel()
}

func TestSnapshotIsACopy(t *testing.T) {
	s, reader := newMockStore(t, Options{})
	reader.EXPECT().ListTransactions(gomock.Any()).Return(sampleTransactions(), nil)
	reader.EXPECT().ListCategories(gomock.Any()).Return(sampleCategories(), nil)
	s.Load(context.Background())

	snap := s.Snapshot()
	snap.Recent[0].Category = "mutated"
	assert.NotEqual(t, "mutated", s.Snapshot().Recent[0].Category)
}
