package core

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// Metrics are the dashboard's headline figures.
type Metrics struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Balance      decimal.Decimal
	SavingsRate  int64 // percent of income
}

// ComputeMetrics derives the headline figures from signed amounts.
func ComputeMetrics(amounts []decimal.Decimal) Metrics {
	income, expense := decimal.Zero, decimal.Zero
	for _, a := range amounts {
		switch a.Sign() {
		case 1:
			income = income.Add(a)
		case -1:
			expense = expense.Add(a.Abs())
		}
	}
	balance := income.Sub(expense)
	return Metrics{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      balance,
		SavingsRate:  SavingsRate(balance, income),
	}
}

// SavingsRate is balance as a whole percentage of income, rounding halves
// up. It is 0 when income is 0.
func SavingsRate(balance, income decimal.Decimal) int64 {
	if income.IsZero() {
		return 0
	}
	return balance.Div(income).Mul(hundred).Add(half).Floor().IntPart()
}

// RecentAmounts extracts the signed amounts of recent items.
func RecentAmounts(items []RecentTransaction) []decimal.Decimal {
	out := make([]decimal.Decimal, len(items))
	for i, it := range items {
		out[i] = it.Amount
	}
	return out
}

// SignedAmounts signs every transaction by its type.
func SignedAmounts(txs []Transaction) []decimal.Decimal {
	out := make([]decimal.Decimal, len(txs))
	for i, tx := range txs {
		out[i] = SignedAmount(tx)
	}
	return out
}
