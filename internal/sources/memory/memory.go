package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"finboard/internal/core"
)

// SeedFile is the file NewFromDir reads inside the data directory.
const SeedFile = "db.json"

type Store struct {
	mu     sync.Mutex
	cats   []core.Category
	items  []core.Transaction
	nextID int
}

// seed mirrors the layout served by the source API: one array per endpoint.
type seed struct {
	Money    []core.Transaction `json:"money"`
	Category []core.Category    `json:"category"`
}

func New(cats []core.Category, txs []core.Transaction) *Store {
	s := &Store{cats: dedupeCategories(cats), items: append([]core.Transaction(nil), txs...)}
	s.nextID = maxNumericID(s.items) + 1
	return s
}

// NewFromDir seeds the store from base/db.json. A missing file yields an
// empty transaction list and the built-in categories.
func NewFromDir(base string) (*Store, error) {
	var sd seed
	b, err := os.ReadFile(filepath.Join(base, SeedFile))
	switch {
	case err == nil:
		if err := json.Unmarshal(b, &sd); err != nil {
			return nil, fmt.Errorf("parse %s: %w", SeedFile, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read %s: %w", SeedFile, err)
	}
	if len(sd.Category) == 0 {
		sd.Category = []core.Category{
			{ID: "1", Name: "Salary"},
			{ID: "2", Name: "Housing"},
			{ID: "3", Name: "Food"},
			{ID: "4", Name: "Transport"},
		}
	}
	return New(sd.Category, sd.Money), nil
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...), nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.cats...), nil
}

// AddTransaction validates and stores tx, assigning an id when it has none.
func (s *Store) AddTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.ID == "" {
		tx.ID = core.ID(strconv.Itoa(s.nextID))
		s.nextID++
	}
	s.items = append(s.items, tx)
	return tx, nil
}

// AddCategory stores c. Names are unique case-insensitively.
func (s *Store) AddCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.Name = strings.TrimSpace(c.Name)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.cats {
		if strings.EqualFold(existing.Name, c.Name) {
			return existing, nil
		}
	}
	if c.ID == "" {
		c.ID = core.ID(strconv.Itoa(maxCategoryID(s.cats) + 1))
	}
	s.cats = append(s.cats, c)
	return c, nil
}

func dedupeCategories(in []core.Category) []core.Category {
	seen := map[core.ID]struct{}{}
	out := make([]core.Category, 0, len(in))
	for _, c := range in {
		c.Name = strings.TrimSpace(c.Name)
		if c.ID == "" || c.Name == "" {
			continue
		}
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

func maxNumericID(txs []core.Transaction) int {
	m := 0
	for _, tx := range txs {
		if n, err := strconv.Atoi(string(tx.ID)); err == nil && n > m {
			m = n
		}
	}
	return m
}

func maxCategoryID(cats []core.Category) int {
	m := 0
	for _, c := range cats {
		if n, err := strconv.Atoi(string(c.ID)); err == nil && n > m {
			m = n
		}
	}
	return m
}
