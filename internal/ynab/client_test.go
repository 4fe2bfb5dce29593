package ynab

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		Token:   "test-token",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return server, client
}

func TestClient_FetchRecords(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/budgets":
			w.Write([]byte(`{"data":{"budgets":[
				{"id":"b-1","name":"Household"},
				{"id":"b-2","name":"Business"}]}}`))
		case "/budgets/b-1/accounts":
			w.Write([]byte(`{"data":{"accounts":[
				{"id":"a-1","name":"Checking","closed":false},
				{"id":"a-2","name":"Old Card","closed":true}]}}`))
		case "/budgets/b-1/accounts/a-1/transactions":
			if got := r.URL.Query().Get("since_date"); got != "2023-03-01" {
				t.Errorf("since_date = %q, want 2023-03-01", got)
			}
			w.Write([]byte(`{"data":{"transactions":[
				{"id":"t-1","date":"2023-03-10","amount":-420000,"payee_name":"ICA Supermarket","memo":"","deleted":false},
				{"id":"t-2","date":"2023-03-12","amount":25000000,"payee_name":"Employer","memo":"salary","deleted":false},
				{"id":"t-3","date":"2023-03-13","amount":-1000,"payee_name":"Gone","memo":"","deleted":true}]}}`))
		default:
			t.Errorf("unexpected request path %q", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	since := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	records, err := client.FetchRecords(context.Background(), "Household", "Checking", since)
	if err != nil {
		t.Fatalf("FetchRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("FetchRecords() returned %d records, want 2 (deleted excluded)", len(records))
	}

	if got, want := records[0].Description, "ica supermarket"; got != want {
		t.Errorf("records[0].Description = %q, want %q", got, want)
	}
	if want := decimal.NewFromInt(-420); !records[0].Amount.Equal(want) {
		t.Errorf("records[0].Amount = %s, want %s", records[0].Amount, want)
	}
	if want := decimal.NewFromInt(25000); !records[1].Amount.Equal(want) {
		t.Errorf("records[1].Amount = %s, want %s", records[1].Amount, want)
	}
	if got, want := records[1].Memo, "salary"; got != want {
		t.Errorf("records[1].Memo = %q, want %q", got, want)
	}
}

func TestClient_ResolveBudgetNotFound(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"budgets":[{"id":"b-1","name":"Household"}]}}`))
	})

	if _, err := client.ResolveBudget(context.Background(), "Missing"); err == nil {
		t.Fatal("ResolveBudget() error = nil, want not-found error")
	}
}

func TestClient_Unauthorized(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"id":"401"}}`, http.StatusUnauthorized)
	})

	if _, err := client.Budgets(context.Background()); err == nil {
		t.Fatal("Budgets() error = nil, want unauthorized error")
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.Budgets(ctx); err == nil {
		t.Fatal("Budgets() error = nil, want context error")
	}
}

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{"nil config", nil},
		{"missing token", &Config{BaseURL: DefaultBaseURL}},
		{"missing base url", &Config{Token: "tok", BaseURL: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(tt.config); err == nil {
				t.Error("NewClient() error = nil, want validation error")
			}
		})
	}
}

func TestReadTokenFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "token")
	if err := os.WriteFile(path, []byte("  secret-token\n"), 0o600); err != nil {
		t.Fatalf("writing token file: %v", err)
	}

	token, err := ReadTokenFile(path)
	if err != nil {
		t.Fatalf("ReadTokenFile() error = %v", err)
	}
	if token != "secret-token" {
		t.Errorf("ReadTokenFile() = %q, want %q", token, "secret-token")
	}

	if _, err := ReadTokenFile(filepath.Join(dir, "missing")); err == nil {
		t.Error("ReadTokenFile() error = nil for missing file, want error")
	}

	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("\n"), 0o600); err != nil {
		t.Fatalf("writing empty file: %v", err)
	}
	if _, err := ReadTokenFile(empty); err == nil {
		t.Error("ReadTokenFile() error = nil for empty file, want error")
	}
}
