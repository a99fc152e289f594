package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TypeID = 1
	Expense TypeID = 2
)

// DefaultCategoryLabel names categories the lookup cannot resolve.
const DefaultCategoryLabel = "uncategorized"

// DefaultRecentLimit is how many transactions the recent list keeps.
const DefaultRecentLimit = 5

type (
	// TypeID tells income records from expense records.
	TypeID int

	// ID is a record identifier. Upstream APIs send ids as JSON numbers or
	// strings; both decode to the same value.
	ID string

	// Transaction is a single record from the transactions endpoint.
	Transaction struct {
		ID         ID              `json:"id,omitempty"`
		Date       string          `json:"date"`
		Amount     decimal.Decimal `json:"amount"`
		TypeID     TypeID          `json:"typeid"`
		CategoryID ID              `json:"categoryid"`
		Payment    string          `json:"payment"`
	}

	// Category maps a category id to its display name.
	Category struct {
		ID   ID     `json:"id"`
		Name string `json:"name"`
	}

	// MonthTotal holds income and expense sums for one year-month.
	MonthTotal struct {
		Month   string
		Income  decimal.Decimal
		Expense decimal.Decimal
	}

	// CategoryAmount is the summed expense of one category.
	CategoryAmount struct {
		Category string
		Amount   decimal.Decimal
	}

	// RecentTransaction is a display-ready transaction: category resolved,
	// amount positive for income and negative for expense.
	RecentTransaction struct {
		Date        string
		Category    string
		Description string
		Amount      decimal.Decimal
	}
)

var (
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrMissingField  = errors.New("missing required field")
)

func (t TypeID) String() string {
	switch t {
	case Income:
		return "income"
	case Expense:
		return "expense"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// ParseTypeID accepts "1", "2", "income" or "expense".
func ParseTypeID(s string) (TypeID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "income":
		return Income, nil
	case "2", "expense":
		return Expense, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*id = ID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode id %s: %w", s, err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes integer-looking ids as JSON numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.isInteger() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) isInteger() bool {
	s := string(id)
	if s == "" || (len(s) > 1 && s[0] == '0') || len(s) > 15 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MonthKey returns the year-month prefix of a date string ("2024-01-05" -> "2024-01").
func MonthKey(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01",
}

// ParseDate parses the date formats the transactions endpoint is known to use.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// ParseAmount parses a decimal amount, accepting a comma as decimal separator.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// Validate checks a transaction before it is stored.
func (t Transaction) Validate() error {
	if t.TypeID != Income && t.TypeID != Expense {
		return fmt.Errorf("%w: %d", ErrInvalidType, int(t.TypeID))
	}
	if _, err := ParseDate(t.Date); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: must be positive, got %s", ErrInvalidAmount, t.Amount)
	}
	if t.CategoryID == "" {
		return fmt.Errorf("%w: categoryid", ErrMissingField)
	}
	return nil
}

// Validate checks a category before it is stored.
func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	return nil
}
