// Package matcher implements the core matching engine that decides which
// records in one transaction collection correspond to which records in
// another, without any shared identifier between the two.
//
// The engine runs a staged heuristic for each record of the designated
// truth set against the remaining unconsumed candidates:
//
//  1. Exact amount equality selects the candidate pool. No candidates means
//     the record is reported missing.
//  2. A single candidate with the same amount is accepted unconditionally;
//     amount uniqueness alone is considered sufficient.
//  3. With several candidates, each is tried in order: candidates dated more
//     than the date window apart are skipped, otherwise a partial-ratio
//     similarity of the descriptions above the threshold accepts, with the
//     memo fields as fallback signals. The first candidate to clear any rule
//     wins.
//
// Each candidate can be consumed by at most one truth record per pass.
//
// Example usage:
//
//	engine := matcher.NewEngine(matcher.DefaultConfig())
//	missing, err := engine.Reconcile(bankRecords, budgetRecords)
package matcher

import (
	"fmt"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// SimilarityFunc scores how alike two strings are on a 0-100 scale, where
// the score reflects the best-aligned substring match rather than requiring
// full-string alignment.
type SimilarityFunc func(a, b string) int

// TraceLevel classifies the severity of a trace event emitted during matching.
type TraceLevel int

const (
	// TraceDebug marks step-by-step decisions useful when tuning thresholds.
	TraceDebug TraceLevel = iota

	// TraceWarn marks records that ended a pass unmatched.
	TraceWarn
)

// String returns the string representation of TraceLevel
func (tl TraceLevel) String() string {
	switch tl {
	case TraceDebug:
		return "debug"
	case TraceWarn:
		return "warn"
	default:
		return "unknown"
	}
}

// TraceFunc receives severity-leveled diagnostic events from the engine.
// The engine performs no direct console output; callers decide whether and
// where trace events go.
type TraceFunc func(level TraceLevel, message string, fields map[string]interface{})

// Config holds the tunable parameters of the matching heuristic.
type Config struct {
	// DateWindowDays is the maximum allowed distance in days between two
	// records before textual rules are even considered. Candidates further
	// apart are skipped without evaluating similarity.
	DateWindowDays int `json:"date_window_days"`

	// SimilarityThreshold is the score a similarity comparison must exceed
	// (strictly) for a candidate to be accepted. Scale 0-100.
	SimilarityThreshold int `json:"similarity_threshold"`

	// Similarity is the fuzzy string scoring function. Defaults to a
	// partial-ratio implementation when nil.
	Similarity SimilarityFunc `json:"-"`

	// Trace receives diagnostic events. May be nil.
	Trace TraceFunc `json:"-"`
}

// DefaultConfig returns the standard matching configuration: a week of
// posting-delay tolerance and a permissive similarity threshold suited to
// terse bank descriptions.
func DefaultConfig() *Config {
	return &Config{
		DateWindowDays:      7,
		SimilarityThreshold: 65,
		Similarity:          fuzzy.PartialRatio,
	}
}

// Validate checks if the matching configuration is valid
func (c *Config) Validate() error {
	if c.DateWindowDays < 0 {
		return fmt.Errorf("date window days cannot be negative: %d", c.DateWindowDays)
	}

	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 100 {
		return fmt.Errorf("similarity threshold must be between 0 and 100: %d", c.SimilarityThreshold)
	}

	return nil
}

// Clone creates a copy of the matching configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	return &Config{
		DateWindowDays:      c.DateWindowDays,
		SimilarityThreshold: c.SimilarityThreshold,
		Similarity:          c.Similarity,
		Trace:               c.Trace,
	}
}

// String returns a human-readable description of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{DateWindow: %d days, SimilarityThreshold: %d}",
		c.DateWindowDays, c.SimilarityThreshold)
}
