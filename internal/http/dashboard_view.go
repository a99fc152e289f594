package http

import (
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
	"finboard/internal/dashboard"
)

// dashboardJSON is the JSON form of a dashboard snapshot. Amounts are plain
// JSON numbers for chart libraries.
type dashboardJSON struct {
	Loading    bool           `json:"loading"`
	Monthly    []monthJSON    `json:"monthly"`
	Categories []categoryJSON `json:"categories"`
	Recent     []recentJSON   `json:"recent"`
	Metrics    metricsJSON    `json:"metrics"`
	Overall    metricsJSON    `json:"overall"`
	LastLoaded *time.Time     `json:"lastLoaded,omitempty"`
}

type monthJSON struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

type categoryJSON struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

type recentJSON struct {
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type metricsJSON struct {
	TotalIncome  float64 `json:"totalIncome"`
	TotalExpense float64 `json:"totalExpense"`
	Balance      float64 `json:"balance"`
	SavingsRate  int64   `json:"savingsRate"`
}

func toMetricsJSON(m core.Metrics) metricsJSON {
	return metricsJSON{
		TotalIncome:  m.TotalIncome.InexactFloat64(),
		TotalExpense: m.TotalExpense.InexactFloat64(),
		Balance:      m.Balance.InexactFloat64(),
		SavingsRate:  m.SavingsRate,
	}
}

func toDashboardJSON(s dashboard.Snapshot) dashboardJSON {
	out := dashboardJSON{
		Loading:    s.Loading,
		Monthly:    make([]monthJSON, 0, len(s.Monthly)),
		Categories: make([]categoryJSON, 0, len(s.Categories)),
		Recent:     make([]recentJSON, 0, len(s.Recent)),
		Metrics:    toMetricsJSON(s.Metrics),
		Overall:    toMetricsJSON(s.Overall),
	}
	for _, m := range s.Monthly {
		out.Monthly = append(out.Monthly, monthJSON{
			Month:   m.Month,
			Income:  m.Income.InexactFloat64(),
			Expense: m.Expense.InexactFloat64(),
		})
	}
	for _, c := range s.Categories {
		out.Categories = append(out.Categories, categoryJSON{Category: c.Category, Amount: c.Amount.InexactFloat64()})
	}
	for _, r := range s.Recent {
		out.Recent = append(out.Recent, recentJSON{
			Date:        r.Date,
			Category:    r.Category,
			Description: r.Description,
			Amount:      r.Amount.InexactFloat64(),
		})
	}
	if !s.LastLoaded.IsZero() {
		t := s.LastLoaded
		out.LastLoaded = &t
	}
	return out
}

// pageData feeds templates/dashboard.html.
type pageData struct {
	Loading      bool
	LastLoaded   string
	TotalIncome  string
	TotalExpense string
	Balance      string
	SavingsRate  int64
	Negative     bool
	Monthly      []pageMonth
	Categories   []pageCategory
	Recent       []pageRecent
}

type pageMonth struct {
	Month   string
	Income  string
	Expense string
}

type pageCategory struct {
	Category string
	Amount   string
	// Percent of the largest category, for bar widths.
	Percent int64
}

type pageRecent struct {
	Date        string
	Category    string
	Description string
	Amount      string
	Income      bool
}

func toPageData(s dashboard.Snapshot) pageData {
	p := pageData{
		Loading:      s.Loading,
		TotalIncome:  formatAmount(s.Metrics.TotalIncome),
		TotalExpense: formatAmount(s.Metrics.TotalExpense),
		Balance:      formatAmount(s.Metrics.Balance),
		SavingsRate:  s.Metrics.SavingsRate,
		Negative:     s.Metrics.Balance.IsNegative(),
	}
	if !s.LastLoaded.IsZero() {
		p.LastLoaded = s.LastLoaded.Format("2006-01-02 15:04:05")
	}
	for _, m := range s.Monthly {
		p.Monthly = append(p.Monthly, pageMonth{Month: m.Month, Income: formatAmount(m.Income), Expense: formatAmount(m.Expense)})
	}

	top := decimal.Zero
	for _, c := range s.Categories {
		if c.Amount.GreaterThan(top) {
			top = c.Amount
		}
	}
	for _, c := range s.Categories {
		pct := int64(0)
		if top.IsPositive() {
			pct = c.Amount.Mul(decimal.NewFromInt(100)).Div(top).Round(0).IntPart()
		}
		p.Categories = append(p.Categories, pageCategory{Category: c.Category, Amount: formatAmount(c.Amount), Percent: pct})
	}
	for _, r := range s.Recent {
		p.Recent = append(p.Recent, pageRecent{
			Date:        r.Date,
			Category:    r.Category,
			Description: r.Description,
			Amount:      formatAmount(r.Amount),
			Income:      r.Amount.IsPositive(),
		})
	}
	return p
}
