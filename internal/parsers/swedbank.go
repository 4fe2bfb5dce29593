package parsers

import (
	"io"
	"time"

	"budget-reconciler/internal/models"
	"budget-reconciler/pkg/errors"
	"budget-reconciler/pkg/logger"
)

// Swedbank statement column names. The export is Windows-1252 encoded and
// begins with a "* Transaktioner ..." preamble line before the header row.
const (
	swedbankColDate        = "Bokföringsdag"
	swedbankColDescription = "Beskrivning"
	swedbankColReference   = "Referens"
	swedbankColAmount      = "Belopp"
	swedbankColBalance     = "Bokfört saldo"
)

// SwedbankConfig configures parsing of a Swedbank statement export.
type SwedbankConfig struct {
	// FilterDate drops rows dated before it, inclusive cutoff.
	FilterDate time.Time
}

// Validate checks that the configuration is usable.
func (c *SwedbankConfig) Validate() error {
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

// SwedbankParser parses Swedbank's comma-separated statement export into
// transaction records.
type SwedbankParser struct {
	*baseParser
	config *SwedbankConfig
}

// NewSwedbankParser creates a parser for Swedbank statement exports.
func NewSwedbankParser(config *SwedbankConfig) (*SwedbankParser, error) {
	if config == nil {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "swedbank_config", nil, nil)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &SwedbankParser{
		baseParser: newBaseParser(&ParseConfig{
			Delimiter: ',',
			// Drops the "* Transaktioner ..." preamble before the header.
			Comment:  '*',
			Encoding: EncodingWindows1252,
		}, "swedbank-parser"),
		config: config,
	}, nil
}

// Parse reads a Swedbank export and returns the booked transactions on or
// after the filter date. The statement's reference column carries the
// counterparty text for transfers, so it is kept as the record memo. The
// booked balance of the newest row is reported in the stats.
func (p *SwedbankParser) Parse(filePath string) ([]*models.TransactionRecord, *ParseStats, error) {
	file, reader, err := p.openFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	required := []string{
		swedbankColDate, swedbankColDescription,
		swedbankColReference, swedbankColAmount,
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

		// Newest row first; its booked balance is the account balance.
		if stats.Balance == "" {
			stats.Balance = headers.field(row, swedbankColBalance)
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
		"records":   len(records),
		"balance":   stats.Balance,
		"errors":    len(stats.Errors),
	}).Info("Swedbank statement parsed")

	return records, stats, nil
}

func (p *SwedbankParser) parseRow(headers headerMap, row []string, line int) (*models.TransactionRecord, *ParseError) {
	dateStr := headers.field(row, swedbankColDate)
	date, err := models.ParseDate(dateStr)
	if err != nil {
		return nil, &ParseError{Line: line, Field: swedbankColDate, Value: dateStr, Message: "invalid date", Err: err}
	}

	amountStr := headers.field(row, swedbankColAmount)
	amount, err := models.ParseAmount(amountStr)
	if err != nil {
		return nil, &ParseError{Line: line, Field: swedbankColAmount, Value: amountStr, Message: "invalid amount", Err: err}
	}

	record := models.NewTransactionRecord(
		date,
		headers.field(row, swedbankColDescription),
		amount,
		headers.field(row, swedbankColReference),
	)
	if err := record.Validate(); err != nil {
		return nil, &ParseError{Line: line, Field: "record", Message: "invalid record", Err: err}
	}
	return record, nil
}
