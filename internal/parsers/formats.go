package parsers

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"budget-reconciler/internal/models"
	"budget-reconciler/pkg/errors"
)

// BankParser is implemented by every statement parser.
type BankParser interface {
	Parse(filePath string) ([]*models.TransactionRecord, *ParseStats, error)
}

// BankFormat names a supported bank statement layout.
type BankFormat string

const (
	FormatSwedbank BankFormat = "swedbank"
	FormatICA      BankFormat = "ica"
)

var bankFormats = map[BankFormat]func(filterDate time.Time) (BankParser, error){
	FormatSwedbank: func(filterDate time.Time) (BankParser, error) {
		return NewSwedbankParser(&SwedbankConfig{FilterDate: filterDate})
	},
	FormatICA: func(filterDate time.Time) (BankParser, error) {
		return NewICAParser(&ICAConfig{FilterDate: filterDate})
	},
}

// SupportedFormats lists the recognized bank format names, sorted.
func SupportedFormats() []string {
	names := make([]string, 0, len(bankFormats))
	for f := range bankFormats {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// NewBankParser creates the statement parser for a named format.
func NewBankParser(format string, filterDate time.Time) (BankParser, error) {
	constructor, ok := bankFormats[BankFormat(strings.ToLower(strings.TrimSpace(format)))]
	if !ok {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"bank_format",
			format,
			nil,
		).WithSuggestion(fmt.Sprintf("Use one of: %s", strings.Join(SupportedFormats(), ", ")))
	}
	return constructor(filterDate)
}
