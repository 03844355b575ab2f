// Package payment derives payment categories and applies due-payment
// collections to bookings.
package payment

import (
	"math"

	"frontdesk/internal/models"
)

// DefaultTolerance is the rounding slack under which a residual due
// amount still counts as fully paid.
const DefaultTolerance = 1.0

// Status is the derived payment view of a booking. It is recomputed on
// every read and never stored, since paid_amount can change underneath
// a stale view.
type Status struct {
	Category   models.PaymentCategory `json:"payment_status"`
	Remaining  float64                `json:"remaining_amount"`
	Percentage int                    `json:"payment_percentage,omitempty"`
}

// Resolve derives the payment status for a booking using the given
// fully-paid tolerance. Rules are evaluated in order: free (zero total
// or owner reference), fully paid (paid covers total within tolerance),
// partially paid, unpaid.
func Resolve(b *models.Booking, tolerance float64) Status {
	remaining := b.Remaining()

	if b.TotalAmount == 0 || b.OwnerReference {
		return Status{Category: models.PaymentFree, Remaining: remaining}
	}
	if b.PaidAmount >= b.TotalAmount || b.TotalAmount-b.PaidAmount <= tolerance {
		return Status{Category: models.PaymentFullyPaid, Remaining: 0}
	}
	if b.PaidAmount > 0 {
		pct := int(math.Round(b.PaidAmount / b.TotalAmount * 100))
		return Status{Category: models.PaymentPartiallyPaid, Remaining: remaining, Percentage: pct}
	}
	return Status{Category: models.PaymentUnpaid, Remaining: remaining}
}

// CoversTotal reports whether the booking can pass the checkout payment
// gate: only free and fully paid bookings may check out.
func CoversTotal(b *models.Booking, tolerance float64) bool {
	c := Resolve(b, tolerance).Category
	return c == models.PaymentFree || c == models.PaymentFullyPaid
}
