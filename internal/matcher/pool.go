package matcher

import (
	"strings"

	"github.com/shopspring/decimal"

	"budget-reconciler/internal/models"
)

// candidatePool is the engine's working copy of the candidate collection: a
// bag keyed by exact amount, mapping to the not-yet-consumed records with
// that amount in their original order.
//
// Consumption removes a specific handle, so two records with identical
// content remain distinct consumable units. The pool only ever shrinks
// during a pass; the caller's slice is never touched.
type candidatePool struct {
	byAmount map[string][]*models.TransactionRecord
	size     int
}

// newCandidatePool builds a pool from the candidate records. The input slice
// is not retained.
func newCandidatePool(candidates []*models.TransactionRecord) *candidatePool {
	pool := &candidatePool{
		byAmount: make(map[string][]*models.TransactionRecord),
	}

	for _, c := range candidates {
		key := amountKey(c.Amount)
		pool.byAmount[key] = append(pool.byAmount[key], c)
		pool.size++
	}

	return pool
}

// amountKey canonicalizes an amount for bucketing. Decimal values keep their
// scale through String(), so "-42" and "-42.00" would otherwise land in
// different buckets despite comparing equal.
func amountKey(amount decimal.Decimal) string {
	s := amount.String()
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}

// withAmount returns the unconsumed candidates whose amount equals the given
// amount exactly, in their original order. The returned slice is the pool's
// own; callers must not mutate it.
func (p *candidatePool) withAmount(amount decimal.Decimal) []*models.TransactionRecord {
	return p.byAmount[amountKey(amount)]
}

// consume removes the given record handle from the pool. It returns false if
// the handle is not present, which means it was already consumed.
func (p *candidatePool) consume(record *models.TransactionRecord) bool {
	key := amountKey(record.Amount)
	bucket := p.byAmount[key]

	for i, c := range bucket {
		if c == record {
			p.byAmount[key] = append(bucket[:i], bucket[i+1:]...)
			if len(p.byAmount[key]) == 0 {
				delete(p.byAmount, key)
			}
			p.size--
			return true
		}
	}

	return false
}

// remaining returns the number of unconsumed candidates in the pool.
func (p *candidatePool) remaining() int {
	return p.size
}
