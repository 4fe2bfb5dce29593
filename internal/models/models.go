// Package models defines the normalized transaction record shared by every
// data source, together with the parsing helpers the source parsers use to
// produce it.
//
// Every source (budget register export, budget API, bank CSV exports) is
// normalized into the same record shape before matching: a day-precision
// date, a lowercased free-text description, an exact signed decimal amount
// (outflows negative, inflows positive) and an optional lowercased memo used
// as a fallback match signal.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is the unit of comparison for reconciliation.
type TransactionRecord struct {
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Memo        string          `json:"memo,omitempty"`
}

// NewTransactionRecord creates a record with the date truncated to day
// precision and the description and memo lowercased. Similarity scoring is
// case-sensitive, so both text fields must be normalized here.
func NewTransactionRecord(date time.Time, description string, amount decimal.Decimal, memo string) *TransactionRecord {
	return &TransactionRecord{
		Date:        TruncateToDay(date),
		Description: strings.ToLower(strings.TrimSpace(description)),
		Amount:      amount,
		Memo:        strings.ToLower(strings.TrimSpace(memo)),
	}
}

// Validate performs basic validation on the TransactionRecord
func (r *TransactionRecord) Validate() error {
	if r.Date.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}

	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("transaction description cannot be empty")
	}

	return nil
}

// HasMemo reports whether the record carries a non-empty secondary text field.
func (r *TransactionRecord) HasMemo() bool {
	return strings.TrimSpace(r.Memo) != ""
}

// String returns a string representation of the TransactionRecord
func (r *TransactionRecord) String() string {
	return fmt.Sprintf("TransactionRecord{Date: %s, Description: %q, Amount: %s}",
		r.Date.Format("2006-01-02"), r.Description, r.Amount.String())
}

// MarshalJSON implements custom JSON marshaling so amounts stay exact
// decimal strings and dates render as day-precision values.
func (r *TransactionRecord) MarshalJSON() ([]byte, error) {
	type Alias TransactionRecord
	return json.Marshal(&struct {
		Date   string `json:"date"`
		Amount string `json:"amount"`
		*Alias
	}{
		Date:   r.Date.Format("2006-01-02"),
		Amount: r.Amount.String(),
		Alias:  (*Alias)(r),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for TransactionRecord
func (r *TransactionRecord) UnmarshalJSON(data []byte) error {
	type Alias TransactionRecord
	aux := &struct {
		Date   string `json:"date"`
		Amount string `json:"amount"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	r.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	r.Date, err = ParseDate(aux.Date)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}

	return nil
}

// Equals compares two records by content. Matching consumption is by handle
// identity, not content equality: two records with identical content are
// distinct consumable units.
func (r *TransactionRecord) Equals(other *TransactionRecord) bool {
	if other == nil {
		return false
	}

	return r.Date.Equal(other.Date) &&
		r.Description == other.Description &&
		r.Amount.Equal(other.Amount) &&
		r.Memo == other.Memo
}

// IsOutflow returns true if the record represents money leaving the account
func (r *TransactionRecord) IsOutflow() bool {
	return r.Amount.IsNegative()
}

// Utility functions shared by the source parsers

// TruncateToDay drops any time-of-day component, keeping a midnight-UTC date.
func TruncateToDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the absolute difference between two dates in whole
// days, after truncating both to day precision.
func DaysBetween(a, b time.Time) int {
	diff := TruncateToDay(a).Sub(TruncateToDay(b))
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}

// ParseAmount parses a decimal amount from string with validation.
//
// Swedish bank exports write amounts like "1 863,60kr" or "-150,00": a
// trailing currency suffix, comma as the decimal separator and spaces (or
// non-breaking spaces) as thousands separators. All of those are stripped
// before decimal parsing.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	cleaned = strings.TrimSuffix(cleaned, "kr")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	return d, nil
}

// ParseDate attempts to parse a calendar date from string using the formats
// seen in budget and bank exports. The result is truncated to day precision.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006/01/02",
		"02.01.2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return TruncateToDay(t), nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date %q: %w", s, lastErr)
}

// CloneRecords copies a record slice record by record, so callers holding a
// clone can never observe or cause mutation through shared handles.
func CloneRecords(records []*TransactionRecord) []*TransactionRecord {
	if records == nil {
		return nil
	}
	cloned := make([]*TransactionRecord, len(records))
	for i, r := range records {
		c := *r
		cloned[i] = &c
	}
	return cloned
}

// SumAmounts returns the sum of all record amounts.
func SumAmounts(records []*TransactionRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}
