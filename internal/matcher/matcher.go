package matcher

import (
	"budget-reconciler/internal/models"
	"budget-reconciler/pkg/errors"
)

// Engine runs the staged matching heuristic between two record collections.
// An Engine is stateless across calls; the per-pass consumption state lives
// in a pool local to each Reconcile invocation, so separate calls never
// share working sets.
type Engine struct {
	config *Config
}

// NewEngine creates a matching engine with the specified configuration. A
// nil config selects the defaults.
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}

	if config.Similarity == nil {
		defaults := DefaultConfig()
		config = config.Clone()
		config.Similarity = defaults.Similarity
	}

	return &Engine{config: config}
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// Reconcile returns the subset of truth that has no corresponding record in
// candidates, preserving truth order. Neither input slice is mutated; the
// candidate consumption state is internal to the call.
//
// The engine is direction-agnostic: callers obtain the full bidirectional
// diff by calling twice with the arguments swapped.
//
// A record that fails validation aborts the pass with a validation error and
// no partial result. An unmatched record is expected output, never an error.
func (e *Engine) Reconcile(truth, candidates []*models.TransactionRecord) ([]*models.TransactionRecord, error) {
	if err := validateRecords(truth, "truth"); err != nil {
		return nil, err
	}
	if err := validateRecords(candidates, "candidates"); err != nil {
		return nil, err
	}

	pool := newCandidatePool(candidates)
	missing := []*models.TransactionRecord{}

	for _, t := range truth {
		e.trace(TraceDebug, "verifying record", map[string]interface{}{
			"description": t.Description,
			"date":        t.Date.Format("2006-01-02"),
			"amount":      t.Amount.String(),
		})

		if e.matchRecord(t, pool) {
			continue
		}

		e.trace(TraceWarn, "no match found", map[string]interface{}{
			"description": t.Description,
			"date":        t.Date.Format("2006-01-02"),
			"amount":      t.Amount.String(),
		})
		missing = append(missing, t)
	}

	return missing, nil
}

// matchRecord searches the unconsumed pool for a match for t and consumes
// the first accepted candidate. It reports whether a match was found.
func (e *Engine) matchRecord(t *models.TransactionRecord, pool *candidatePool) bool {
	sameAmount := pool.withAmount(t.Amount)
	if len(sameAmount) == 0 {
		return false
	}

	e.trace(TraceDebug, "amount candidates found", map[string]interface{}{
		"amount": t.Amount.String(),
		"count":  len(sameAmount),
	})

	// A unique amount is considered a sufficient signal on its own,
	// regardless of date or description divergence.
	if len(sameAmount) == 1 {
		e.trace(TraceDebug, "unique amount, accepting", map[string]interface{}{
			"amount":      t.Amount.String(),
			"description": sameAmount[0].Description,
		})
		return pool.consume(sameAmount[0])
	}

	for _, c := range sameAmount {
		if accepted, reason := e.evaluateCandidate(t, c); accepted {
			e.trace(TraceDebug, "candidate accepted", map[string]interface{}{
				"truth":     t.Description,
				"candidate": c.Description,
				"reason":    reason,
			})
			return pool.consume(c)
		}
	}

	return false
}

// evaluateCandidate applies the disambiguation rules in sequence and reports
// whether the candidate is accepted, together with the accepting rule.
func (e *Engine) evaluateCandidate(t, c *models.TransactionRecord) (bool, string) {
	// Records further apart than the date window are implausible postings
	// of the same transaction; skip without scoring text.
	days := models.DaysBetween(t.Date, c.Date)
	if days > e.config.DateWindowDays {
		e.trace(TraceDebug, "outside date window, skipping", map[string]interface{}{
			"truth":     t.Description,
			"candidate": c.Description,
			"days":      days,
		})
		return false, ""
	}

	if e.similar(t.Description, c.Description) {
		return true, "description"
	}

	// The truth system's description may match the candidate's memo better
	// than the candidate's own description does.
	if c.HasMemo() && e.similar(t.Description, c.Memo) {
		return true, "candidate memo"
	}

	if t.HasMemo() && e.similar(t.Memo, c.Memo) {
		return true, "memo"
	}

	return false, ""
}

// similar scores two strings and applies the strict acceptance threshold.
func (e *Engine) similar(a, b string) bool {
	score := e.config.Similarity(a, b)

	e.trace(TraceDebug, "similarity scored", map[string]interface{}{
		"a":     a,
		"b":     b,
		"score": score,
	})

	return score > e.config.SimilarityThreshold
}

func (e *Engine) trace(level TraceLevel, message string, fields map[string]interface{}) {
	if e.config.Trace != nil {
		e.config.Trace(level, message, fields)
	}
}

// validateRecords checks every record of a collection before matching
// begins, so a malformed record aborts the pass with no partial result.
func validateRecords(records []*models.TransactionRecord, collection string) error {
	for i, r := range records {
		if r == nil {
			return errors.ValidationError(
				errors.CodeMalformedRecord,
				collection,
				i,
				nil,
			).WithContext("index", i)
		}

		if err := r.Validate(); err != nil {
			return errors.ValidationError(
				errors.CodeMalformedRecord,
				collection,
				r.String(),
				err,
			).WithContext("index", i)
		}
	}

	return nil
}
