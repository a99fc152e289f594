package google

import (
	"fmt"
	"strconv"
	"strings"

	"finboard/internal/core"
)

// parseTransactions converts rows of date, amount, typeid, categoryid, payment.
// Header rows and rows whose amount or type cannot be parsed are skipped.
func parseTransactions(values [][]interface{}) []core.Transaction {
	out := make([]core.Transaction, 0, len(values))
	for i, raw := range values {
		row := toStrings(raw)
		date := safeGet(row, 0)
		if date == "" {
			continue
		}
		amount, err := core.ParseAmount(safeGet(row, 1))
		if err != nil {
			continue
		}
		typ, err := core.ParseTypeID(safeGet(row, 2))
		if err != nil {
			continue
		}
		out = append(out, core.Transaction{
			ID:         core.ID(strconv.Itoa(i + 1)),
			Date:       date,
			Amount:     amount,
			TypeID:     typ,
			CategoryID: core.ID(safeGet(row, 3)),
			Payment:    safeGet(row, 4),
		})
	}
	return out
}

// parseCategories converts rows of id, name, skipping a header row and blanks.
func parseCategories(values [][]interface{}) []core.Category {
	out := make([]core.Category, 0, len(values))
	seen := map[core.ID]struct{}{}
	for i, raw := range values {
		row := toStrings(raw)
		id, name := safeGet(row, 0), safeGet(row, 1)
		if id == "" || name == "" || strings.HasPrefix(id, "#") {
			continue
		}
		if i == 0 && strings.EqualFold(id, "id") {
			continue
		}
		if _, ok := seen[core.ID(id)]; ok {
			continue
		}
		seen[core.ID(id)] = struct{}{}
		out = append(out, core.Category{ID: core.ID(id), Name: name})
	}
	return out
}

// toStrings renders cell values; numbers keep plain notation ("1000000", not "1e+06").
func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
