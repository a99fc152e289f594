package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finboard/internal/core"
)

func TestListTransactions_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/money" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 1, "date": "2024-01-05", "amount": 100, "typeid": 1, "categoryid": 3, "payment": "salary"},
			{"id": "b7", "date": "2024-01-20", "amount": "40.25", "typeid": 2, "categoryid": "7", "payment": "groceries"}
		]`))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", WithHTTPClient(server.Client()))
	txs, err := c.ListTransactions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].ID != "1" || txs[0].TypeID != core.Income || txs[0].CategoryID != "3" || txs[0].Amount.String() != "100" {
		t.Errorf("first transaction mismatch: %+v", txs[0])
	}
	if txs[1].ID != "b7" || txs[1].TypeID != core.Expense || txs[1].CategoryID != "7" || txs[1].Amount.String() != "40.25" {
		t.Errorf("second transaction mismatch: %+v", txs[1])
	}
	if txs[1].Payment != "groceries" {
		t.Errorf("expected payment 'groceries', got %q", txs[1].Payment)
	}
}

func TestListCategories_CustomPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/categories" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"id": 3, "name": "Salary"}, {"id": 7, "name": "Food"}]`))
	}))
	defer server.Close()

	c := NewClient(server.URL, WithHTTPClient(server.Client()), WithPaths("", "/api/categories"))
	cats, err := c.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cats) != 2 || cats[0].ID != "3" || cats[1].Name != "Food" {
		t.Errorf("categories mismatch: %+v", cats)
	}
}

func TestListTransactions_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, "fetching transactions: unexpected status 500"},
		{"not found", http.StatusNotFound, ``, "unexpected status 404"},
		{"malformed body", http.StatusOK, `{"not":"an array"}`, "decoding transactions response"},
		{"bad amount", http.StatusOK, `[{"amount":"abc"}]`, "decoding transactions response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewClient(server.URL, WithHTTPClient(server.Client()))
			_, err := c.ListTransactions(context.Background())
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestListCategories_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(server.URL, WithHTTPClient(server.Client()))
	if _, err := c.ListCategories(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestListTransactions_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewClient(url, WithTimeout(0))
	_, err := c.ListTransactions(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "fetching transactions") {
		t.Errorf("error %q should mention the operation", err.Error())
	}
}
