// Package lifecycle governs legal booking status transitions and their
// preconditions, including the payment gate on checkout.
package lifecycle

import (
	"errors"
	"fmt"

	"frontdesk/internal/models"
	"frontdesk/internal/payment"
	"frontdesk/internal/timeutil"
)

// Refusal classifies why a transition was refused, so the operator
// knows the remediation.
type Refusal string

const (
	RefusalIllegalTransition Refusal = "illegal_transition"
	RefusalMissingRoom       Refusal = "missing_room"
	RefusalMissingBooking    Refusal = "missing_booking_id"
	RefusalDateOrdering      Refusal = "check_in_not_before_check_out"
	RefusalPaymentPending    Refusal = "payment_pending"
	RefusalInvalidReason     Refusal = "invalid_cancellation_reason"
)

// TransitionError reports a refused status transition.
type TransitionError struct {
	From    models.BookingStatus
	To      models.BookingStatus
	Refusal Refusal
	Detail  string
}

func (e *TransitionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("transition %s -> %s refused: %s (%s)", e.From, e.To, e.Refusal, e.Detail)
	}
	return fmt.Sprintf("transition %s -> %s refused: %s", e.From, e.To, e.Refusal)
}

// AsTransitionError unwraps err into a *TransitionError if possible.
func AsTransitionError(err error) (*TransitionError, bool) {
	var te *TransitionError
	ok := errors.As(err, &te)
	return te, ok
}

// CheckInDetails carries the (possibly just-edited) date-time fields
// supplied with a check-in request.
type CheckInDetails struct {
	CheckInDate      string
	CheckInTime      string
	CheckInMeridiem  string
	CheckOutDate     string
	CheckOutTime     string
	CheckOutMeridiem string
}

// StateMachine holds the transition table. Confirmed bookings may check
// in or cancel; checked-in bookings may only check out. Checked-out and
// cancelled are terminal, and nothing re-enters confirmed.
type StateMachine struct {
	transitions map[models.BookingStatus][]models.BookingStatus
	tolerance   float64
}

// New creates a state machine using the given fully-paid tolerance for
// the checkout payment gate.
func New(tolerance float64) *StateMachine {
	return &StateMachine{
		transitions: map[models.BookingStatus][]models.BookingStatus{
			models.StatusConfirmed: {models.StatusCheckedIn, models.StatusCancelled},
			models.StatusCheckedIn: {models.StatusCheckedOut},
		},
		tolerance: tolerance,
	}
}

// CanTransition checks the transition table only, ignoring guards.
func (m *StateMachine) CanTransition(from, to models.BookingStatus) bool {
	for _, s := range m.transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// GuardCheckIn verifies confirmed -> checked_in: room and booking id
// must be present and the supplied check-in instant must be strictly
// before the check-out instant.
func (m *StateMachine) GuardCheckIn(b *models.Booking, d CheckInDetails) error {
	if err := m.edge(b.Status, models.StatusCheckedIn); err != nil {
		return err
	}
	if b.ID == 0 {
		return &TransitionError{From: b.Status, To: models.StatusCheckedIn, Refusal: RefusalMissingBooking}
	}
	if b.RoomNumber == "" {
		return &TransitionError{From: b.Status, To: models.StatusCheckedIn, Refusal: RefusalMissingRoom}
	}

	in, err := timeutil.Instant(d.CheckInDate, d.CheckInTime, d.CheckInMeridiem)
	if err != nil {
		return &TransitionError{
			From: b.Status, To: models.StatusCheckedIn,
			Refusal: RefusalDateOrdering, Detail: err.Error(),
		}
	}
	out, err := timeutil.Instant(d.CheckOutDate, d.CheckOutTime, d.CheckOutMeridiem)
	if err != nil {
		return &TransitionError{
			From: b.Status, To: models.StatusCheckedIn,
			Refusal: RefusalDateOrdering, Detail: err.Error(),
		}
	}
	if !in.Before(out) {
		return &TransitionError{
			From: b.Status, To: models.StatusCheckedIn,
			Refusal: RefusalDateOrdering,
			Detail:  fmt.Sprintf("check-in %s not before check-out %s", in.Format("2006-01-02 15:04"), out.Format("2006-01-02 15:04")),
		}
	}
	return nil
}

// GuardCheckOut verifies checked_in -> checked_out. The payment gate:
// only fully paid and free bookings may check out; otherwise the caller
// must route to the payment ledger first.
func (m *StateMachine) GuardCheckOut(b *models.Booking) error {
	if err := m.edge(b.Status, models.StatusCheckedOut); err != nil {
		return err
	}
	status := payment.Resolve(b, m.tolerance)
	switch status.Category {
	case models.PaymentFullyPaid, models.PaymentFree:
		return nil
	case models.PaymentPartiallyPaid:
		return &TransitionError{
			From: b.Status, To: models.StatusCheckedOut,
			Refusal: RefusalPaymentPending,
			Detail:  fmt.Sprintf("%.2f still due (%d%% paid)", status.Remaining, status.Percentage),
		}
	default:
		return &TransitionError{
			From: b.Status, To: models.StatusCheckedOut,
			Refusal: RefusalPaymentPending,
			Detail:  fmt.Sprintf("full payment of %.2f required", status.Remaining),
		}
	}
}

// GuardCancel verifies confirmed -> cancelled with a reason from the
// fixed set. Cancellation from checked_in is not permitted.
func (m *StateMachine) GuardCancel(b *models.Booking, reason models.CancellationReason) error {
	if err := m.edge(b.Status, models.StatusCancelled); err != nil {
		return err
	}
	if !models.ValidCancellationReason(reason) {
		return &TransitionError{
			From: b.Status, To: models.StatusCancelled,
			Refusal: RefusalInvalidReason, Detail: string(reason),
		}
	}
	return nil
}

func (m *StateMachine) edge(from, to models.BookingStatus) error {
	if !m.CanTransition(from, to) {
		return &TransitionError{From: from, To: to, Refusal: RefusalIllegalTransition}
	}
	return nil
}
