// Package reconciler compares two transaction collections in both
// directions and summarizes the discrepancies.
package reconciler

import (
	"time"

	"github.com/shopspring/decimal"

	"budget-reconciler/internal/matcher"
	"budget-reconciler/internal/models"
	"budget-reconciler/pkg/errors"
	"budget-reconciler/pkg/logger"
)

// Config holds the settings for a comparison run.
type Config struct {
	// Matcher configures the matching engine shared by both directions.
	Matcher *matcher.Config
}

// DefaultConfig returns a config with the default matching rules.
func DefaultConfig() *Config {
	return &Config{
		Matcher: matcher.DefaultConfig(),
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Matcher == nil {
		return errors.ConfigurationError(errors.CodeMissingConfig, "matcher", nil, nil)
	}
	return c.Matcher.Validate()
}

// Summary holds aggregate figures for a comparison.
type Summary struct {
	BudgetRecords int             `json:"budget_records"`
	BankRecords   int             `json:"bank_records"`
	OnlyInBudget  int             `json:"only_in_budget"`
	OnlyInBank    int             `json:"only_in_bank"`
	BudgetSum     decimal.Decimal `json:"budget_sum"`
	BankSum       decimal.Decimal `json:"bank_sum"`
	Duration      time.Duration   `json:"duration_ns"`
}

// Matched reports whether the two collections reconciled completely.
func (s *Summary) Matched() bool {
	return s.OnlyInBudget == 0 && s.OnlyInBank == 0
}

// CompareResult holds the outcome of a bidirectional comparison.
type CompareResult struct {
	// OnlyInBudget are budget records with no bank counterpart.
	OnlyInBudget []*models.TransactionRecord `json:"only_in_budget"`

	// OnlyInBank are bank records with no budget counterpart.
	OnlyInBank []*models.TransactionRecord `json:"only_in_bank"`

	Summary *Summary `json:"summary"`
}

// Service runs comparisons between a budget ledger and bank statements.
type Service struct {
	config *Config
	engine *matcher.Engine
	logger logger.Logger
}

// NewService creates a comparison service. A nil config selects the
// defaults. The matching engine's diagnostics are routed to the service
// logger.
func NewService(config *Config) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	log := logger.GetGlobalLogger().WithComponent("reconciler")

	matcherConfig := config.Matcher.Clone()
	matcherConfig.Trace = func(level matcher.TraceLevel, message string, fields map[string]interface{}) {
		entry := log.WithFields(logger.Fields(fields))
		switch level {
		case matcher.TraceWarn:
			entry.Warn(message)
		default:
			entry.Debug(message)
		}
	}

	return &Service{
		config: config,
		engine: matcher.NewEngine(matcherConfig),
		logger: log,
	}, nil
}

// Compare matches the two collections against each other and returns the
// records unique to each side. Each direction consumes candidates from a
// fresh pool, so a bank record matched while scanning the budget side is
// still considered when scanning the bank side.
func (s *Service) Compare(budget, bank []*models.TransactionRecord) (*CompareResult, error) {
	start := time.Now()

	s.logger.WithFields(logger.Fields{
		"budget_records": len(budget),
		"bank_records":   len(bank),
	}).Info("Starting comparison")

	onlyInBudget, err := s.engine.Reconcile(budget, bank)
	if err != nil {
		return nil, errors.ReconciliationError(errors.CodeProcessingError, "budget_vs_bank", err)
	}

	onlyInBank, err := s.engine.Reconcile(bank, budget)
	if err != nil {
		return nil, errors.ReconciliationError(errors.CodeProcessingError, "bank_vs_budget", err)
	}

	result := &CompareResult{
		OnlyInBudget: onlyInBudget,
		OnlyInBank:   onlyInBank,
		Summary: &Summary{
			BudgetRecords: len(budget),
			BankRecords:   len(bank),
			OnlyInBudget:  len(onlyInBudget),
			OnlyInBank:    len(onlyInBank),
			BudgetSum:     models.SumAmounts(budget),
			BankSum:       models.SumAmounts(bank),
			Duration:      time.Since(start),
		},
	}

	s.logger.WithFields(logger.Fields{
		"only_in_budget": len(onlyInBudget),
		"only_in_bank":   len(onlyInBank),
		"matched":        result.Summary.Matched(),
		"duration":       result.Summary.Duration.String(),
	}).Info("Comparison complete")

	return result, nil
}
