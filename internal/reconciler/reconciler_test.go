package reconciler

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budget-reconciler/internal/matcher"
	"budget-reconciler/internal/models"
)

func record(dateStr, description string, amount float64, memo string) *models.TransactionRecord {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		panic(err)
	}
	return models.NewTransactionRecord(date, description, decimal.NewFromFloat(amount), memo)
}

func TestService_CompareBothDirections(t *testing.T) {
	budget := []*models.TransactionRecord{
		record("2023-03-10", "ICA Supermarket", -420, ""),
		record("2023-03-12", "Salary", 25000, ""),
		record("2023-03-14", "Netflix", -99, ""),
	}
	bank := []*models.TransactionRecord{
		record("2023-03-10", "ICA SUPERMARKET STOCKHOLM", -420, ""),
		record("2023-03-12", "Salary Employer AB", 25000, ""),
		record("2023-03-15", "Spotify AB", -119, ""),
	}

	service, err := NewService(nil)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	result, err := service.Compare(budget, bank)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if len(result.OnlyInBudget) != 1 || result.OnlyInBudget[0].Description != "netflix" {
		t.Errorf("OnlyInBudget = %v, want only the netflix record", result.OnlyInBudget)
	}
	if len(result.OnlyInBank) != 1 || result.OnlyInBank[0].Description != "spotify ab" {
		t.Errorf("OnlyInBank = %v, want only the spotify record", result.OnlyInBank)
	}

	summary := result.Summary
	if summary.BudgetRecords != 3 || summary.BankRecords != 3 {
		t.Errorf("Summary counts = %d/%d, want 3/3", summary.BudgetRecords, summary.BankRecords)
	}
	if summary.Matched() {
		t.Error("Summary.Matched() = true, want false")
	}
	if want := decimal.NewFromInt(24481); !summary.BudgetSum.Equal(want) {
		t.Errorf("Summary.BudgetSum = %s, want %s", summary.BudgetSum, want)
	}
}

func TestService_CompareFreshPoolPerDirection(t *testing.T) {
	// The same record set on both sides must reconcile completely even
	// though the first direction consumes every candidate.
	shared := []*models.TransactionRecord{
		record("2023-03-10", "ICA Supermarket", -420, ""),
		record("2023-03-10", "ICA Supermarket", -420, ""),
	}
	other := []*models.TransactionRecord{
		record("2023-03-10", "ICA SUPERMARKET STOCKHOLM", -420, ""),
		record("2023-03-11", "ICA SUPERMARKET STOCKHOLM", -420, ""),
	}

	service, err := NewService(nil)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	result, err := service.Compare(shared, other)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if len(result.OnlyInBudget) != 0 || len(result.OnlyInBank) != 0 {
		t.Errorf("Compare() = %d/%d unmatched, want 0/0",
			len(result.OnlyInBudget), len(result.OnlyInBank))
	}
	if !result.Summary.Matched() {
		t.Error("Summary.Matched() = false, want true")
	}
}

func TestService_CompareEmptyCollections(t *testing.T) {
	service, err := NewService(nil)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	bank := []*models.TransactionRecord{
		record("2023-03-10", "ICA Supermarket", -420, ""),
	}

	result, err := service.Compare(nil, bank)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if len(result.OnlyInBudget) != 0 {
		t.Errorf("OnlyInBudget = %v, want empty", result.OnlyInBudget)
	}
	if len(result.OnlyInBank) != 1 {
		t.Errorf("OnlyInBank has %d records, want 1", len(result.OnlyInBank))
	}
}

func TestService_CompareInvalidRecord(t *testing.T) {
	service, err := NewService(nil)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	invalid := []*models.TransactionRecord{
		models.NewTransactionRecord(time.Time{}, "no date", decimal.NewFromInt(-1), ""),
	}

	if _, err := service.Compare(invalid, nil); err == nil {
		t.Fatal("Compare() error = nil, want validation error")
	}
}

func TestNewService_InvalidConfig(t *testing.T) {
	config := &Config{Matcher: &matcher.Config{DateWindowDays: -1, SimilarityThreshold: 65}}
	if _, err := NewService(config); err == nil {
		t.Fatal("NewService() error = nil, want validation error")
	}
}
