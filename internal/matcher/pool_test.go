package matcher

import (
	"testing"

	"github.com/shopspring/decimal"

	"budget-reconciler/internal/models"
)

func TestCandidatePool_Buckets(t *testing.T) {
	a := record("2023-03-10", "Shop A", -420, "")
	b := record("2023-03-11", "Shop B", -420, "")
	c := record("2023-03-12", "Shop C", 100, "")

	pool := newCandidatePool([]*models.TransactionRecord{a, b, c})

	if got := pool.remaining(); got != 3 {
		t.Errorf("remaining() = %d, want 3", got)
	}
	if got := len(pool.withAmount(decimal.NewFromInt(-420))); got != 2 {
		t.Errorf("withAmount(-420) returned %d candidates, want 2", got)
	}
	if got := len(pool.withAmount(decimal.NewFromInt(100))); got != 1 {
		t.Errorf("withAmount(100) returned %d candidates, want 1", got)
	}
	if got := len(pool.withAmount(decimal.NewFromInt(7))); got != 0 {
		t.Errorf("withAmount(7) returned %d candidates, want 0", got)
	}
}

func TestCandidatePool_ConsumeByIdentity(t *testing.T) {
	// Content-equal records are distinct pool entries.
	a := record("2023-03-10", "Shop A", -420, "")
	b := record("2023-03-10", "Shop A", -420, "")

	pool := newCandidatePool([]*models.TransactionRecord{a, b})

	if !pool.consume(a) {
		t.Fatal("consume(a) = false, want true")
	}
	if pool.consume(a) {
		t.Error("consume(a) twice = true, want false")
	}
	if got := pool.remaining(); got != 1 {
		t.Errorf("remaining() = %d, want 1", got)
	}

	left := pool.withAmount(decimal.NewFromInt(-420))
	if len(left) != 1 || left[0] != b {
		t.Errorf("withAmount() = %v, want only the second record", left)
	}

	if !pool.consume(b) {
		t.Fatal("consume(b) = false, want true")
	}
	if got := pool.remaining(); got != 0 {
		t.Errorf("remaining() = %d, want 0", got)
	}
	if got := len(pool.withAmount(decimal.NewFromInt(-420))); got != 0 {
		t.Errorf("withAmount() after draining returned %d candidates, want 0", got)
	}
}

func TestAmountKey_ScaleInsensitive(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{"-42", "-42.00", true},
		{"100", "100.000", true},
		{"0.50", "0.5", true},
		{"-42", "-42.5", false},
		{"0", "0.00", true},
	}

	for _, tt := range tests {
		da, err := decimal.NewFromString(tt.a)
		if err != nil {
			t.Fatalf("decimal.NewFromString(%q) error = %v", tt.a, err)
		}
		db, err := decimal.NewFromString(tt.b)
		if err != nil {
			t.Fatalf("decimal.NewFromString(%q) error = %v", tt.b, err)
		}
		if got := amountKey(da) == amountKey(db); got != tt.same {
			t.Errorf("amountKey(%s) == amountKey(%s) = %v, want %v", tt.a, tt.b, got, tt.same)
		}
	}
}
