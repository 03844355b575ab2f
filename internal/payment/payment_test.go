package payment

import (
	"testing"

	"frontdesk/internal/models"

	"github.com/stretchr/testify/assert"
)

func booking(total, paid float64, ownerRef bool) *models.Booking {
	return &models.Booking{
		ID:             1,
		Status:         models.StatusCheckedIn,
		TotalAmount:    total,
		PaidAmount:     paid,
		OwnerReference: ownerRef,
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		total    float64
		paid     float64
		ownerRef bool
		want     models.PaymentCategory
	}{
		{"unpaid", 2000, 0, false, models.PaymentUnpaid},
		{"fully paid exact", 2000, 2000, false, models.PaymentFullyPaid},
		{"partial half", 3000, 1500, false, models.PaymentPartiallyPaid},
		{"owner reference with due", 5000, 0, true, models.PaymentFree},
		{"zero total", 0, 0, false, models.PaymentFree},
		{"within one rupee tolerance", 1000, 999.50, false, models.PaymentFullyPaid},
		{"overpaid", 1000, 1200, false, models.PaymentFullyPaid},
		{"just outside tolerance", 1000, 998.50, false, models.PaymentPartiallyPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(booking(tt.total, tt.paid, tt.ownerRef), DefaultTolerance)
			assert.Equal(t, tt.want, got.Category)
		})
	}
}

func TestResolvePercentage(t *testing.T) {
	got := Resolve(booking(3000, 1500, false), DefaultTolerance)
	assert.Equal(t, models.PaymentPartiallyPaid, got.Category)
	assert.Equal(t, 50, got.Percentage)
	assert.Equal(t, 1500.0, got.Remaining)
}

func TestResolveIsTotal(t *testing.T) {
	// Exactly one category for any non-negative (total, paid) pair.
	for _, total := range []float64{0, 0.5, 1, 100, 999.99, 5000} {
		for _, paid := range []float64{0, 0.5, 1, 100, 999.99, 5000} {
			got := Resolve(booking(total, paid, false), DefaultTolerance)
			assert.Contains(t, []models.PaymentCategory{
				models.PaymentFree, models.PaymentFullyPaid,
				models.PaymentPartiallyPaid, models.PaymentUnpaid,
			}, got.Category, "total=%v paid=%v", total, paid)
			// Idempotent by construction: same inputs, same output.
			assert.Equal(t, got, Resolve(booking(total, paid, false), DefaultTolerance))
		}
	}
}

func TestResolveFullyPaidTreatsRemainingAsZero(t *testing.T) {
	got := Resolve(booking(1000, 999.50, false), DefaultTolerance)
	assert.Equal(t, models.PaymentFullyPaid, got.Category)
	assert.Equal(t, 0.0, got.Remaining)
}

func TestLedgerApply(t *testing.T) {
	ledger := NewLedger(DefaultTolerance)

	t.Run("full payment clears due", func(t *testing.T) {
		b := booking(2000, 0, false)
		got, err := ledger.Apply(b, 2000, models.MethodCash, nil)
		assert.NoError(t, err)
		assert.Equal(t, 2000.0, got.NewPaidAmount)
		assert.Equal(t, 0.0, got.NewRemainingAmount)
		assert.Equal(t, models.PaymentFullyPaid, got.Status.Category)
	})

	t.Run("partial payment", func(t *testing.T) {
		b := booking(3000, 0, false)
		got, err := ledger.Apply(b, 1200, models.MethodOnline, nil)
		assert.NoError(t, err)
		assert.Equal(t, 1200.0, got.NewPaidAmount)
		assert.Equal(t, 1800.0, got.NewRemainingAmount)
		assert.Equal(t, models.PaymentPartiallyPaid, got.Status.Category)
		assert.Equal(t, 40, got.Status.Percentage)
	})

	t.Run("never negative remaining", func(t *testing.T) {
		b := booking(1000, 400, false)
		for _, amount := range []float64{100, 300, 600} {
			got, err := ledger.Apply(b, amount, models.MethodCash, nil)
			assert.NoError(t, err)
			assert.GreaterOrEqual(t, got.NewRemainingAmount, 0.0)
			assert.InDelta(t, 600-amount, got.NewRemainingAmount, 0.001)
		}
	})

	t.Run("rejects amount over due", func(t *testing.T) {
		b := booking(1000, 400, false)
		_, err := ledger.Apply(b, 601, models.MethodCash, nil)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		b := booking(1000, 0, false)
		_, err := ledger.Apply(b, -50, models.MethodCash, nil)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		b := booking(1000, 400, false)
		_, err := ledger.Apply(b, 0, models.MethodCash, nil)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects missing method", func(t *testing.T) {
		b := booking(1000, 0, false)
		_, err := ledger.Apply(b, 500, "", nil)
		assert.ErrorIs(t, err, ErrMissingMethod)
	})

	t.Run("does not mutate the booking", func(t *testing.T) {
		b := booking(1000, 0, false)
		_, err := ledger.Apply(b, 500, models.MethodCash, nil)
		assert.NoError(t, err)
		assert.Equal(t, 0.0, b.PaidAmount)
	})
}

func TestLedgerAdjustedRemaining(t *testing.T) {
	ledger := NewLedger(DefaultTolerance)

	t.Run("write-down caps the payment", func(t *testing.T) {
		b := booking(1000, 400, false)
		adjusted := 500.0 // waive 100 of the 600 due
		got, err := ledger.Apply(b, 500, models.MethodCash, &adjusted)
		assert.NoError(t, err)
		assert.Equal(t, 900.0, got.NewPaidAmount)
		assert.Equal(t, 0.0, got.NewRemainingAmount)
	})

	t.Run("amount above write-down refused", func(t *testing.T) {
		b := booking(1000, 400, false)
		adjusted := 500.0
		_, err := ledger.Apply(b, 550, models.MethodCash, &adjusted)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("write-down above due refused", func(t *testing.T) {
		b := booking(1000, 400, false)
		adjusted := 700.0
		_, err := ledger.Apply(b, 100, models.MethodCash, &adjusted)
		assert.ErrorIs(t, err, ErrInvalidAdjustment)
	})
}
