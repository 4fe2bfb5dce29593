package parsers

import (
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budget-reconciler/internal/models"
	"budget-reconciler/pkg/errors"
	"budget-reconciler/pkg/logger"
)

// Register export column names.
const (
	registerColAccount = "Account"
	registerColDate    = "Date"
	registerColPayee   = "Payee"
	registerColMemo    = "Memo"
	registerColOutflow = "Outflow"
	registerColInflow  = "Inflow"
)

// RegisterConfig configures parsing of a budget register export.
type RegisterConfig struct {
	// Account restricts parsing to rows belonging to this account. The
	// register export mixes every account into one file, so a comparison
	// against a single bank's statement needs this filter.
	Account string

	// FilterDate drops rows dated before it. The cutoff is inclusive: a
	// row dated exactly on FilterDate is kept.
	FilterDate time.Time
}

// Validate checks that the configuration is usable.
func (c *RegisterConfig) Validate() error {
	if strings.TrimSpace(c.Account) == "" {
		return errors.ConfigurationError(
			errors.CodeMissingConfig,
			"account",
			c.Account,
			nil,
		).WithSuggestion("Provide the account name as it appears in the register export")
	}
	if c.FilterDate.IsZero() {
		return errors.ConfigurationError(
			errors.CodeMissingConfig,
			"filter_date",
			nil,
			nil,
		).WithSuggestion("Provide a filter date (YYYY-MM-DD) to bound the comparison")
	}
	return nil
}

// RegisterParser parses the budgeting tool's tab-separated register export
// into transaction records.
type RegisterParser struct {
	*baseParser
	config *RegisterConfig
}

// NewRegisterParser creates a register parser for a single account.
func NewRegisterParser(config *RegisterConfig) (*RegisterParser, error) {
	if config == nil {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "register_config", nil, nil)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &RegisterParser{
		baseParser: newBaseParser(&ParseConfig{
			Delimiter: '\t',
			Encoding:  EncodingUTF8,
		}, "register-parser"),
		config: config,
	}, nil
}

// Parse reads a register export and returns the account's transactions on or
// after the filter date, newest ordering preserved as written by the export.
func (p *RegisterParser) Parse(filePath string) ([]*models.TransactionRecord, *ParseStats, error) {
	file, reader, err := p.openFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	required := []string{
		registerColAccount, registerColDate, registerColPayee,
		registerColMemo, registerColOutflow, registerColInflow,
	}
	headers, err := p.readHeaders(reader, filePath, required)
	if err != nil {
		return nil, nil, err
	}

	stats := NewParseStats()
	stats.TotalLines = 1

	var records []*models.TransactionRecord
	lineNumber := 1

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNumber++
		stats.TotalLines++
		if err != nil {
			stats.AddError(&ParseError{
				Line:    lineNumber,
				Field:   "row",
				Message: "malformed row",
				Err:     err,
			})
			continue
		}
		if isEmptyRecord(row) {
			stats.Skipped++
			continue
		}
		stats.RecordsParsed++

		if headers.field(row, registerColAccount) != p.config.Account {
			stats.Skipped++
			continue
		}

		record, parseErr := p.parseRow(headers, row, lineNumber)
		if parseErr != nil {
			stats.AddError(parseErr)
			continue
		}
		if record.Date.Before(p.config.FilterDate) {
			stats.Skipped++
			continue
		}

		records = append(records, record)
		stats.RecordsValid++
	}

	p.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"account":   p.config.Account,
		"records":   len(records),
		"errors":    len(stats.Errors),
	}).Info("Register export parsed")

	return records, stats, nil
}

// parseRow converts one register row into a transaction record. The export
// splits the amount into outflow and inflow columns; the signed amount is
// inflow minus outflow.
func (p *RegisterParser) parseRow(headers headerMap, row []string, line int) (*models.TransactionRecord, *ParseError) {
	dateStr := headers.field(row, registerColDate)
	date, err := models.ParseDate(dateStr)
	if err != nil {
		return nil, &ParseError{Line: line, Field: registerColDate, Value: dateStr, Message: "invalid date", Err: err}
	}

	outflow, err := parseRegisterAmount(headers.field(row, registerColOutflow))
	if err != nil {
		return nil, &ParseError{Line: line, Field: registerColOutflow, Value: headers.field(row, registerColOutflow), Message: "invalid amount", Err: err}
	}
	inflow, err := parseRegisterAmount(headers.field(row, registerColInflow))
	if err != nil {
		return nil, &ParseError{Line: line, Field: registerColInflow, Value: headers.field(row, registerColInflow), Message: "invalid amount", Err: err}
	}

	record := models.NewTransactionRecord(
		date,
		headers.field(row, registerColPayee),
		inflow.Sub(outflow),
		headers.field(row, registerColMemo),
	)
	if err := record.Validate(); err != nil {
		return nil, &ParseError{Line: line, Field: "record", Message: "invalid record", Err: err}
	}
	return record, nil
}

// parseRegisterAmount parses an outflow or inflow cell, treating an empty
// cell as zero.
func parseRegisterAmount(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return models.ParseAmount(value)
}
