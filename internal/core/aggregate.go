package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MonthlySeries groups transactions by year-month and sums income and
// expense amounts. Records with any other type still open their month.
// Months appear in the order they are first encountered.
func MonthlySeries(txs []Transaction) []MonthTotal {
	index := make(map[string]int)
	out := make([]MonthTotal, 0)
	for _, tx := range txs {
		month := MonthKey(tx.Date)
		i, ok := index[month]
		if !ok {
			i = len(out)
			index[month] = i
			out = append(out, MonthTotal{Month: month, Income: decimal.Zero, Expense: decimal.Zero})
		}
		switch tx.TypeID {
		case Income:
			out[i].Income = out[i].Income.Add(tx.Amount)
		case Expense:
			out[i].Expense = out[i].Expense.Add(tx.Amount)
		}
	}
	return out
}

// CategoryNames builds the id -> name lookup. Later duplicates win.
func CategoryNames(cats []Category) map[ID]string {
	names := make(map[ID]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names
}

// ResolveCategory returns the category name for id, or fallback when the id
// is unknown or has an empty name.
func ResolveCategory(names map[ID]string, id ID, fallback string) string {
	if name := names[id]; name != "" {
		return name
	}
	return fallback
}

// CategorySpending sums expense amounts per category id, in first-seen order.
// Income records are ignored.
func CategorySpending(txs []Transaction, names map[ID]string, fallback string) []CategoryAmount {
	index := make(map[ID]int)
	ids := make([]ID, 0)
	sums := make([]decimal.Decimal, 0)
	for _, tx := range txs {
		if tx.TypeID != Expense {
			continue
		}
		i, ok := index[tx.CategoryID]
		if !ok {
			i = len(ids)
			index[tx.CategoryID] = i
			ids = append(ids, tx.CategoryID)
			sums = append(sums, decimal.Zero)
		}
		sums[i] = sums[i].Add(tx.Amount)
	}
	out := make([]CategoryAmount, len(ids))
	for i, id := range ids {
		out[i] = CategoryAmount{Category: ResolveCategory(names, id, fallback), Amount: sums[i]}
	}
	return out
}

// SignedAmount is the record's magnitude, positive for income and negative
// otherwise, whatever sign was stored.
func SignedAmount(tx Transaction) decimal.Decimal {
	if tx.TypeID == Income {
		return tx.Amount.Abs()
	}
	return tx.Amount.Abs().Neg()
}

// SortByDateDesc returns a copy of txs ordered most recent first. Ties keep
// their input order; records with unparseable dates go last.
func SortByDateDesc(txs []Transaction) []Transaction {
	type keyed struct {
		tx Transaction
		at time.Time
		ok bool
	}
	ks := make([]keyed, len(txs))
	for i, tx := range txs {
		at, err := ParseDate(tx.Date)
		ks[i] = keyed{tx: tx, at: at, ok: err == nil}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].ok && ks[j].ok {
			return ks[i].at.After(ks[j].at)
		}
		return ks[i].ok && !ks[j].ok
	})
	out := make([]Transaction, len(ks))
	for i, k := range ks {
		out[i] = k.tx
	}
	return out
}

// RecentTransactions returns up to limit transactions, most recent first,
// with category names resolved and amounts signed.
func RecentTransactions(txs []Transaction, names map[ID]string, fallback string, limit int) []RecentTransaction {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	sorted := SortByDateDesc(txs)
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]RecentTransaction, len(sorted))
	for i, tx := range sorted {
		out[i] = RecentTransaction{
			Date:        tx.Date,
			Category:    ResolveCategory(names, tx.CategoryID, fallback),
			Description: tx.Payment,
			Amount:      SignedAmount(tx),
		}
	}
	return out
}
