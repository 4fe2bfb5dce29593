// Package config builds component configurations from CLI flag values.
package config

import (
	"io"
	"time"

	"budget-reconciler/internal/matcher"
	"budget-reconciler/internal/parsers"
	"budget-reconciler/internal/reconciler"
	"budget-reconciler/internal/reporter"
	"budget-reconciler/internal/ynab"
)

// CreateReconcilerConfig builds a comparison service configuration from the
// matching flags.
func CreateReconcilerConfig(dateWindow, similarityThreshold int) *reconciler.Config {
	matcherConfig := matcher.DefaultConfig()
	matcherConfig.DateWindowDays = dateWindow
	matcherConfig.SimilarityThreshold = similarityThreshold

	return &reconciler.Config{
		Matcher: matcherConfig,
	}
}

// CreateRegisterConfig builds a register parser configuration for one
// account.
func CreateRegisterConfig(account string, filterDate time.Time) *parsers.RegisterConfig {
	return &parsers.RegisterConfig{
		Account:    account,
		FilterDate: filterDate,
	}
}

// CreateBankParser builds the statement parser for a named format.
func CreateBankParser(format string, filterDate time.Time, includePending bool) (parsers.BankParser, error) {
	// The pending flag only applies to formats that export pending rows.
	if parsers.BankFormat(format) == parsers.FormatICA && includePending {
		return parsers.NewICAParser(&parsers.ICAConfig{
			FilterDate:     filterDate,
			IncludePending: true,
		})
	}
	return parsers.NewBankParser(format, filterDate)
}

// CreateReporterConfig builds a reporter configuration for the chosen output
// format and destination.
func CreateReporterConfig(format, budgetLabel, bankLabel string, output io.Writer) *reporter.Config {
	return &reporter.Config{
		Format:      reporter.Format(format),
		Output:      output,
		BudgetLabel: budgetLabel,
		BankLabel:   bankLabel,
	}
}

// CreateClientConfig builds an API client configuration from a token.
func CreateClientConfig(token string) *ynab.Config {
	clientConfig := ynab.DefaultConfig()
	clientConfig.Token = token
	return clientConfig
}
