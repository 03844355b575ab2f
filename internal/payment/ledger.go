package payment

import (
	"errors"
	"fmt"
	"math"

	"frontdesk/internal/models"
)

var (
	// ErrInvalidAmount means the payment amount is missing, negative,
	// or exceeds the allowed ceiling.
	ErrInvalidAmount = errors.New("invalid payment amount")
	// ErrMissingMethod means no payment method was chosen.
	ErrMissingMethod = errors.New("payment method required")
	// ErrInvalidAdjustment means the adjusted remaining exceeds the
	// actual due amount.
	ErrInvalidAdjustment = errors.New("adjusted remaining exceeds due amount")
)

// Ledger applies payments to bookings.
type Ledger struct {
	tolerance float64
}

// NewLedger constructs a ledger with the given fully-paid tolerance.
func NewLedger(tolerance float64) *Ledger {
	if tolerance < 0 {
		tolerance = DefaultTolerance
	}
	return &Ledger{tolerance: tolerance}
}

// Applied is the outcome of a successful payment application.
type Applied struct {
	NewPaidAmount      float64
	NewRemainingAmount float64
	Status             Status
}

// Apply validates and applies a due-payment collection against the
// booking's recomputed remaining amount. adjustedRemaining, when
// non-nil, is a staff write-down of the due balance and caps the
// payment instead; it may not exceed the true remaining.
//
// Apply does not mutate the booking. The caller commits the returned
// amounts only after the backend of record confirms them.
func (l *Ledger) Apply(b *models.Booking, amount float64, method models.PaymentMethod, adjustedRemaining *float64) (Applied, error) {
	if method == "" {
		return Applied{}, ErrMissingMethod
	}
	if amount <= 0 || math.IsNaN(amount) {
		return Applied{}, fmt.Errorf("%w: %.2f", ErrInvalidAmount, amount)
	}

	ceiling := b.Remaining()
	if adjustedRemaining != nil {
		if *adjustedRemaining < 0 || *adjustedRemaining > ceiling {
			return Applied{}, fmt.Errorf("%w: %.2f (due %.2f)", ErrInvalidAdjustment, *adjustedRemaining, ceiling)
		}
		ceiling = *adjustedRemaining
	}
	if amount > ceiling {
		return Applied{}, fmt.Errorf("%w: %.2f exceeds due %.2f", ErrInvalidAmount, amount, ceiling)
	}

	newPaid := b.PaidAmount + amount
	newRemaining := ceiling - amount
	if newRemaining < 0 {
		newRemaining = 0
	}

	after := *b
	after.PaidAmount = newPaid
	return Applied{
		NewPaidAmount:      newPaid,
		NewRemainingAmount: newRemaining,
		Status:             Resolve(&after, l.tolerance),
	}, nil
}

// Tolerance returns the configured fully-paid tolerance.
func (l *Ledger) Tolerance() float64 {
	return l.tolerance
}
