// Package parsers turns raw budget and bank exports into normalized
// transaction records.
//
// Each supported source has its own parser handling that export's quirks:
//
//   - RegisterParser: the budgeting tool's tab-separated register export,
//     with per-account filtering and split outflow/inflow columns
//   - SwedbankParser: comma-separated, Windows-1252 encoded, with a
//     non-CSV preamble line and a booked-balance column
//   - ICAParser: semicolon-separated, with leading pending-transaction rows
//     and currency-suffixed amounts
//
// All parsers apply the same normalization contract: day-precision dates,
// lowercased descriptions, exact signed decimal amounts, and an inclusive
// filter date cutting off older history.
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"budget-reconciler/pkg/errors"
	"budget-reconciler/pkg/logger"
)

// Encoding identifies the character encoding of a source file.
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1252 Encoding = "windows-1252"
)

// ParseError records a problem with a single row of a source file.
type ParseError struct {
	Line    int
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error at line %d (%s=%q): %s: %v",
			e.Line, e.Field, e.Value, e.Message, e.Err)
	}
	return fmt.Sprintf("parse error at line %d (%s=%q): %s",
		e.Line, e.Field, e.Value, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseConfig holds the CSV-level settings shared by all source parsers.
type ParseConfig struct {
	Delimiter rune
	Comment   rune
	Encoding  Encoding
}

// baseParser provides the CSV plumbing common to the source parsers: file
// opening with encoding translation, header mapping and row iteration.
type baseParser struct {
	config *ParseConfig
	logger logger.Logger
}

func newBaseParser(config *ParseConfig, component string) *baseParser {
	return &baseParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent(component),
	}
}

// openFile opens a source file and returns a configured csv.Reader over it,
// translating from the configured encoding to UTF-8 where needed.
func (bp *baseParser) openFile(filePath string) (*os.File, *csv.Reader, error) {
	bp.logger.WithField("file_path", filePath).Debug("Opening source file")

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		if os.IsPermission(err) {
			return nil, nil, errors.FileError(errors.CodeFilePermission, filePath, err)
		}
		return nil, nil, errors.FileError(errors.CodeFileCorrupted, filePath, err)
	}

	var source io.Reader = file
	if bp.config.Encoding == EncodingWindows1252 {
		source = transform.NewReader(file, charmap.Windows1252.NewDecoder())
	}

	reader := csv.NewReader(source)
	reader.Comma = bp.config.Delimiter
	reader.Comment = bp.config.Comment
	// TrimLeadingSpace must stay off: csv treats a tab delimiter as
	// trimmable white space and would collapse the empty fields of
	// tab-separated rows. Field values are trimmed after splitting instead.
	reader.FieldsPerRecord = -1

	return file, reader, nil
}

// headerMap maps cleaned header names to their column index.
type headerMap map[string]int

// readHeaders reads the header row and verifies the required columns exist.
func (bp *baseParser) readHeaders(reader *csv.Reader, filePath string, required []string) (headerMap, error) {
	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.ValidationError(
				errors.CodeMissingField,
				"file_content",
				"empty",
				nil,
			).WithSuggestion("Ensure the file contains header and data rows").
				WithContext("file", filePath)
		}
		return nil, errors.ParseError(errors.CodeInvalidFormat, filePath, 1, "headers", "", err)
	}

	hm := make(headerMap, len(headers))
	for i, h := range headers {
		hm[strings.TrimSpace(h)] = i
	}

	var missing []string
	for _, name := range required {
		if _, ok := hm[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		bp.logger.WithFields(logger.Fields{
			"missing_headers":   missing,
			"available_headers": headers,
		}).Error("Required headers are missing")

		return nil, errors.ParseError(
			errors.CodeMissingColumn,
			filePath,
			1,
			strings.Join(missing, ", "),
			"",
			nil,
		).WithSuggestion(fmt.Sprintf("Ensure the file contains these columns: %s", strings.Join(missing, ", ")))
	}

	return hm, nil
}

// field returns the value of a named column for a record, or an empty string
// when the row is shorter than the header.
func (hm headerMap) field(record []string, name string) string {
	index, ok := hm[name]
	if !ok || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

// isEmptyRecord checks if all fields in a record are empty or whitespace
func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// ParseStats holds statistics about a parsing operation.
type ParseStats struct {
	TotalLines    int
	RecordsParsed int
	RecordsValid  int
	Skipped       int
	Errors        []*ParseError

	// Balance is the booked balance reported by the export, for the source
	// formats that carry one.
	Balance string
}

// NewParseStats creates a new ParseStats instance
func NewParseStats() *ParseStats {
	return &ParseStats{
		Errors: make([]*ParseError, 0),
	}
}

// AddError adds an error to the parsing statistics
func (ps *ParseStats) AddError(err *ParseError) {
	ps.Errors = append(ps.Errors, err)
}

// HasErrors returns true if there were any parsing errors
func (ps *ParseStats) HasErrors() bool {
	return len(ps.Errors) > 0
}

// String returns a human-readable summary of parsing statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d lines, %d records (%d valid, %d skipped), %d errors",
		ps.TotalLines, ps.RecordsParsed, ps.RecordsValid, ps.Skipped, len(ps.Errors))
}
