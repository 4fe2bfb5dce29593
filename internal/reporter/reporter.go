// Package reporter renders comparison results for people and for machines.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"budget-reconciler/internal/models"
	"budget-reconciler/internal/reconciler"
	"budget-reconciler/pkg/errors"
)

// Format names a supported output rendering.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
)

// SupportedFormats lists the recognized output format names.
func SupportedFormats() []string {
	return []string{string(FormatConsole), string(FormatJSON), string(FormatCSV)}
}

// Config holds the settings for a reporter.
type Config struct {
	Format Format
	Output io.Writer

	// BudgetLabel and BankLabel name the two sides in the rendered
	// output. Defaults are "budget" and "bank".
	BudgetLabel string
	BankLabel   string
}

// DefaultConfig returns a console reporter config with no output writer.
func DefaultConfig() *Config {
	return &Config{
		Format:      FormatConsole,
		BudgetLabel: "budget",
		BankLabel:   "bank",
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatConsole, FormatJSON, FormatCSV:
	default:
		return errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"output_format",
			string(c.Format),
			nil,
		).WithSuggestion(fmt.Sprintf("Use one of: %s", strings.Join(SupportedFormats(), ", ")))
	}
	if c.Output == nil {
		return errors.ConfigurationError(errors.CodeMissingConfig, "output", nil, nil)
	}
	return nil
}

// Reporter renders comparison results.
type Reporter struct {
	config *Config
}

// NewReporter creates a reporter for the configured format and writer.
func NewReporter(config *Config) (*Reporter, error) {
	if config == nil {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "reporter_config", nil, nil)
	}
	if config.BudgetLabel == "" {
		config.BudgetLabel = "budget"
	}
	if config.BankLabel == "" {
		config.BankLabel = "bank"
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Reporter{config: config}, nil
}

// Render writes the comparison result in the configured format.
func (r *Reporter) Render(result *reconciler.CompareResult) error {
	if result == nil {
		return errors.ValidationError(errors.CodeMissingField, "result", nil, nil)
	}

	switch r.config.Format {
	case FormatJSON:
		return r.renderJSON(result)
	case FormatCSV:
		return r.renderCSV(result)
	default:
		return r.renderConsole(result)
	}
}

func (r *Reporter) renderConsole(result *reconciler.CompareResult) error {
	w := r.config.Output
	s := result.Summary

	fmt.Fprintln(w, "Comparison Report")
	fmt.Fprintln(w, "=================")
	fmt.Fprintf(w, "%s records: %d (sum %s)\n", r.config.BudgetLabel, s.BudgetRecords, s.BudgetSum.StringFixed(2))
	fmt.Fprintf(w, "%s records: %d (sum %s)\n", r.config.BankLabel, s.BankRecords, s.BankSum.StringFixed(2))
	fmt.Fprintln(w)

	if s.Matched() {
		fmt.Fprintln(w, "All records matched.")
		return nil
	}

	r.renderSection(w, result.OnlyInBudget, r.config.BudgetLabel, r.config.BankLabel)
	r.renderSection(w, result.OnlyInBank, r.config.BankLabel, r.config.BudgetLabel)
	return nil
}

func (r *Reporter) renderSection(w io.Writer, records []*models.TransactionRecord, have, miss string) {
	fmt.Fprintf(w, "Found in %s but not in %s (%d):\n", have, miss, len(records))
	for _, record := range records {
		line := fmt.Sprintf("  %s  %12s  %s",
			record.Date.Format("2006-01-02"),
			record.Amount.StringFixed(2),
			record.Description)
		if record.HasMemo() {
			line += fmt.Sprintf("  [%s]", record.Memo)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
}

func (r *Reporter) renderJSON(result *reconciler.CompareResult) error {
	encoder := json.NewEncoder(r.config.Output)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return errors.ReconciliationError(errors.CodeProcessingError, "render_json", err)
	}
	return nil
}

func (r *Reporter) renderCSV(result *reconciler.CompareResult) error {
	writer := csv.NewWriter(r.config.Output)

	if err := writer.Write([]string{"source", "date", "description", "amount", "memo"}); err != nil {
		return errors.ReconciliationError(errors.CodeProcessingError, "render_csv", err)
	}

	write := func(source string, records []*models.TransactionRecord) error {
		for _, record := range records {
			row := []string{
				source,
				record.Date.Format("2006-01-02"),
				record.Description,
				record.Amount.StringFixed(2),
				record.Memo,
			}
			if err := writer.Write(row); err != nil {
				return errors.ReconciliationError(errors.CodeProcessingError, "render_csv", err)
			}
		}
		return nil
	}

	if err := write(r.config.BudgetLabel, result.OnlyInBudget); err != nil {
		return err
	}
	if err := write(r.config.BankLabel, result.OnlyInBank); err != nil {
		return err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.ReconciliationError(errors.CodeProcessingError, "render_csv", err)
	}
	return nil
}
