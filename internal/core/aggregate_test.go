package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tx(date, amount string, typ TypeID, cat ID, payment string) Transaction {
	return Transaction{Date: date, Amount: dec(amount), TypeID: typ, CategoryID: cat, Payment: payment}
}

func TestMonthlySeries(t *testing.T) {
	txs := []Transaction{
		tx("2024-01-05", "100", Income, "1", "salary"),
		tx("2024-01-10", "40", Expense, "2", "food"),
		tx("2024-02-01", "50", Income, "1", "bonus"),
	}
	got := MonthlySeries(txs)
	want := []MonthTotal{
		{Month: "2024-01", Income: dec("100"), Expense: dec("40")},
		{Month: "2024-02", Income: dec("50"), Expense: dec("0")},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d months, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i].Month != want[i].Month || !got[i].Income.Equal(want[i].Income) || !got[i].Expense.Equal(want[i].Expense) {
			t.Fatalf("month %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestMonthlySeriesKeepsFirstSeenOrderAndIgnoresOtherTypes(t *testing.T) {
	txs := []Transaction{
		tx("2024-03-01", "10", Expense, "1", ""),
		tx("2024-01-01", "20", Income, "1", ""),
		tx("2024-03-15", "5", Expense, "1", ""),
		tx("2024-05-02", "99", TypeID(3), "1", ""),
	}
	got := MonthlySeries(txs)
	months := []string{"2024-03", "2024-01", "2024-05"}
	if len(got) != len(months) {
		t.Fatalf("unexpected series: %+v", got)
	}
	for i, m := range months {
		if got[i].Month != m {
			t.Fatalf("position %d: expected %s, got %s", i, m, got[i].Month)
		}
	}
	if !got[0].Expense.Equal(dec("15")) {
		t.Fatalf("expected March expense 15, got %s", got[0].Expense)
	}
	if !got[2].Income.IsZero() || !got[2].Expense.IsZero() {
		t.Fatalf("unknown type must not be summed, got %+v", got[2])
	}
}

func TestMonthlySeriesEmpty(t *testing.T) {
	if got := MonthlySeries(nil); len(got) != 0 {
		t.Fatalf("expected empty series, got %+v", got)
	}
}

func TestCategorySpendingIgnoresIncome(t *testing.T) {
	names := CategoryNames([]Category{{ID: "7", Name: "Groceries"}})
	txs := []Transaction{
		tx("2024-01-01", "500", Income, "7", "refund"),
		tx("2024-01-02", "42.50", Expense, "7", "market"),
	}
	got := CategorySpending(txs, names, DefaultCategoryLabel)
	if len(got) != 1 {
		t.Fatalf("expected one category, got %+v", got)
	}
	if got[0].Category != "Groceries" || !got[0].Amount.Equal(dec("42.5")) {
		t.Fatalf("unexpected category amount: %+v", got[0])
	}
}

func TestCategorySpendingOrderAndDefaultLabel(t *testing.T) {
	names := CategoryNames([]Category{{ID: "1", Name: "Rent"}, {ID: "2", Name: "Food"}})
	txs := []Transaction{
		tx("2024-01-01", "10", Expense, "2", ""),
		tx("2024-01-02", "3", Expense, "99", ""),
		tx("2024-01-03", "700", Expense, "1", ""),
		tx("2024-01-04", "5", Expense, "2", ""),
	}
	got := CategorySpending(txs, names, DefaultCategoryLabel)
	want := []CategoryAmount{
		{Category: "Food", Amount: dec("15")},
		{Category: DefaultCategoryLabel, Amount: dec("3")},
		{Category: "Rent", Amount: dec("700")},
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected spending: %+v", got)
	}
	for i := range want {
		if got[i].Category != want[i].Category || !got[i].Amount.Equal(want[i].Amount) {
			t.Fatalf("position %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestResolveCategory(t *testing.T) {
	names := map[ID]string{"1": "Rent", "2": ""}
	cases := []struct {
		id   ID
		want string
	}{
		{"1", "Rent"},
		{"2", "other"},
		{"3", "other"},
		{"", "other"},
	}
	for _, tc := range cases {
		if got := ResolveCategory(names, tc.id, "other"); got != tc.want {
			t.Fatalf("id %q: expected %q, got %q", tc.id, tc.want, got)
		}
	}
	if got := ResolveCategory(nil, "1", "other"); got != "other" {
		t.Fatalf("nil lookup should fall back, got %q", got)
	}
}

func TestRecentTransactionsCapAndOrder(t *testing.T) {
	txs := []Transaction{
		tx("2024-01-03", "1", Expense, "1", "c"),
		tx("2024-01-07", "1", Expense, "1", "g"),
		tx("2024-01-01", "1", Expense, "1", "a"),
		tx("2024-01-05", "1", Income, "1", "e"),
		tx("2024-01-02", "1", Expense, "1", "b"),
		tx("2024-01-06", "1", Expense, "1", "f"),
		tx("2024-01-04", "1", Expense, "1", "d"),
	}
	got := RecentTransactions(txs, nil, DefaultCategoryLabel, 5)
	order := []string{"g", "f", "e", "d", "c"}
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i, desc := range order {
		if got[i].Description != desc {
			t.Fatalf("position %d: expected %s, got %s", i, desc, got[i].Description)
		}
	}
	if txs[0].Payment != "c" {
		t.Fatalf("input slice must not be reordered")
	}
}

func TestRecentTransactionsSignsAmounts(t *testing.T) {
	names := map[ID]string{"1": "Salary"}
	txs := []Transaction{
		tx("2024-02-01", "1200", Income, "1", "pay"),
		tx("2024-02-02", "30", Expense, "4", "taxi"),
		tx("2024-02-03", "-15", Expense, "4", "lunch"),
		tx("2024-02-04", "-20", Income, "1", "odd"),
	}
	got := RecentTransactions(txs, names, DefaultCategoryLabel, 0)
	want := map[string]string{"pay": "1200", "taxi": "-30", "lunch": "-15", "odd": "20"}
	for _, it := range got {
		if !it.Amount.Equal(dec(want[it.Description])) {
			t.Fatalf("%s: expected %s, got %s", it.Description, want[it.Description], it.Amount)
		}
	}
	if got[len(got)-1].Category != "Salary" {
		t.Fatalf("expected resolved category, got %q", got[len(got)-1].Category)
	}
	if got[2].Category != DefaultCategoryLabel {
		t.Fatalf("expected default label, got %q", got[2].Category)
	}
}

func TestSortByDateDescUnparseableLast(t *testing.T) {
	txs := []Transaction{
		tx("not a date", "1", Expense, "1", "x"),
		tx("2024-01-01", "1", Expense, "1", "a"),
		tx("2024-01-01T10:00:00Z", "1", Expense, "1", "b"),
		tx("2024-01-01", "1", Expense, "1", "c"),
	}
	got := SortByDateDesc(txs)
	order := []string{"b", "a", "c", "x"}
	for i, p := range order {
		if got[i].Payment != p {
			t.Fatalf("position %d: expected %s, got %s", i, p, got[i].Payment)
		}
	}
}
