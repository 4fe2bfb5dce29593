package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budget-reconciler/internal/models"
	"budget-reconciler/internal/reconciler"
)

func sampleResult() *reconciler.CompareResult {
	date := time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC)
	return &reconciler.CompareResult{
		OnlyInBudget: []*models.TransactionRecord{
			models.NewTransactionRecord(date, "Netflix", decimal.NewFromInt(-99), "monthly"),
		},
		OnlyInBank: []*models.TransactionRecord{
			models.NewTransactionRecord(date.AddDate(0, 0, 1), "Spotify AB", decimal.NewFromInt(-119), ""),
		},
		Summary: &reconciler.Summary{
			BudgetRecords: 3,
			BankRecords:   3,
			OnlyInBudget:  1,
			OnlyInBank:    1,
			BudgetSum:     decimal.NewFromInt(24481),
			BankSum:       decimal.NewFromInt(24461),
		},
	}
}

func TestReporter_Console(t *testing.T) {
	var buf bytes.Buffer
	reporter, err := NewReporter(&Config{Format: FormatConsole, Output: &buf})
	if err != nil {
		t.Fatalf("NewReporter() error = %v", err)
	}
	if err := reporter.Render(sampleResult()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"Found in budget but not in bank (1):",
		"Found in bank but not in budget (1):",
		"netflix",
		"[monthly]",
		"spotify ab",
		"-99.00",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("console output missing %q:\n%s", want, output)
		}
	}
}

func TestReporter_ConsoleAllMatched(t *testing.T) {
	var buf bytes.Buffer
	reporter, err := NewReporter(&Config{Format: FormatConsole, Output: &buf})
	if err != nil {
		t.Fatalf("NewReporter() error = %v", err)
	}

	result := &reconciler.CompareResult{
		Summary: &reconciler.Summary{BudgetRecords: 2, BankRecords: 2},
	}
	if err := reporter.Render(result); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(buf.String(), "All records matched.") {
		t.Errorf("console output missing matched notice:\n%s", buf.String())
	}
}

func TestReporter_JSON(t *testing.T) {
	var buf bytes.Buffer
	reporter, err := NewReporter(&Config{Format: FormatJSON, Output: &buf})
	if err != nil {
		t.Fatalf("NewReporter() error = %v", err)
	}
	if err := reporter.Render(sampleResult()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var decoded struct {
		OnlyInBudget []json.RawMessage `json:"only_in_budget"`
		OnlyInBank   []json.RawMessage `json:"only_in_bank"`
		Summary      struct {
			OnlyInBudget int `json:"only_in_budget"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if len(decoded.OnlyInBudget) != 1 || len(decoded.OnlyInBank) != 1 {
		t.Errorf("JSON output has %d/%d records, want 1/1",
			len(decoded.OnlyInBudget), len(decoded.OnlyInBank))
	}
	if decoded.Summary.OnlyInBudget != 1 {
		t.Errorf("summary.only_in_budget = %d, want 1", decoded.Summary.OnlyInBudget)
	}
}

func TestReporter_CSV(t *testing.T) {
	var buf bytes.Buffer
	reporter, err := NewReporter(&Config{
		Format:      FormatCSV,
		Output:      &buf,
		BudgetLabel: "register",
		BankLabel:   "swedbank",
	})
	if err != nil {
		t.Fatalf("NewReporter() error = %v", err)
	}
	if err := reporter.Render(sampleResult()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("CSV output has %d rows, want 3 (header + 2 records)", len(rows))
	}
	if rows[1][0] != "register" || rows[2][0] != "swedbank" {
		t.Errorf("CSV sources = %q/%q, want register/swedbank", rows[1][0], rows[2][0])
	}
	if rows[1][3] != "-99.00" {
		t.Errorf("CSV amount = %q, want -99.00", rows[1][3])
	}
}

func TestNewReporter_Validation(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		name   string
		config *Config
	}{
		{"nil config", nil},
		{"unknown format", &Config{Format: "xml", Output: &buf}},
		{"missing output", &Config{Format: FormatConsole}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewReporter(tt.config); err == nil {
				t.Error("NewReporter() error = nil, want validation error")
			}
		})
	}
}
