package parsers

import (
	"io"
	"time"

	"budget-reconciler/internal/models"
	"budget-reconciler/pkg/errors"
	"budget-reconciler/pkg/logger"
)

// ICA Banken statement column names. The export is semicolon-separated and
// lists pending transactions first, recognizable by their empty balance
// column.
const (
	icaColDate        = "Datum"
	icaColDescription = "Text"
	icaColAmount      = "Belopp"
	icaColBalance     = "Saldo"
)

// ICAConfig configures parsing of an ICA Banken statement export.
type ICAConfig struct {
	// FilterDate drops rows dated before it, inclusive cutoff.
	FilterDate time.Time

	// IncludePending keeps the not-yet-booked rows at the top of the
	// export. Pending rows have no balance and often change description
	// once booked, so they are skipped by default.
	IncludePending bool
}

// Validate checks that the configuration is usable.
func (c *ICAConfig) Validate() error {
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

// ICAParser parses ICA Banken's semicolon-separated statement export into
// transaction records.
type ICAParser struct {
	*baseParser
	config *ICAConfig
}

// NewICAParser creates a parser for ICA Banken statement exports.
func NewICAParser(config *ICAConfig) (*ICAParser, error) {
	if config == nil {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "ica_config", nil, nil)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ICAParser{
		baseParser: newBaseParser(&ParseConfig{
			Delimiter: ';',
			Encoding:  EncodingUTF8,
		}, "ica-parser"),
		config: config,
	}, nil
}

// Parse reads an ICA Banken export and returns the booked transactions on or
// after the filter date. The balance of the newest booked row is reported in
// the stats.
func (p *ICAParser) Parse(filePath string) ([]*models.TransactionRecord, *ParseStats, error) {
	file, reader, err := p.openFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	required := []string{icaColDate, icaColDescription, icaColAmount, icaColBalance}
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

		pending := headers.field(row, icaColBalance) == ""
		if pending && !p.config.IncludePending {
			stats.Skipped++
			continue
		}
		if !pending && stats.Balance == "" {
			stats.Balance = headers.field(row, icaColBalance)
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
	}).Info("ICA Banken statement parsed")

	return records, stats, nil
}

func (p *ICAParser) parseRow(headers headerMap, row []string, line int) (*models.TransactionRecord, *ParseError) {
	dateStr := headers.field(row, icaColDate)
	date, err := models.ParseDate(dateStr)
	if err != nil {
		return nil, &ParseError{Line: line, Field: icaColDate, Value: dateStr, Message: "invalid date", Err: err}
	}

	amountStr := headers.field(row, icaColAmount)
	amount, err := models.ParseAmount(amountStr)
	if err != nil {
		return nil, &ParseError{Line: line, Field: icaColAmount, Value: amountStr, Message: "invalid amount", Err: err}
	}

	record := models.NewTransactionRecord(
		date,
		headers.field(row, icaColDescription),
		amount,
		"",
	)
	if err := record.Validate(); err != nil {
		return nil, &ParseError{Line: line, Field: "record", Message: "invalid record", Err: err}
	}
	return record, nil
}
