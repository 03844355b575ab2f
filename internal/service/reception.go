// Package service orchestrates front-desk operations: each UI action is
// guarded by the state machine, computed by the ledger or extension
// calculator, sent to the backend of record, and committed locally only
// once the server confirms it.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"frontdesk/internal/backend"
	"frontdesk/internal/events"
	"frontdesk/internal/extension"
	"frontdesk/internal/lifecycle"
	"frontdesk/internal/metrics"
	"frontdesk/internal/models"
	"frontdesk/internal/payment"
	"frontdesk/internal/store"
	"frontdesk/internal/timeutil"
)

// ErrOperationInFlight means another transition for the same booking
// has been requested and not yet confirmed. Mutual exclusion is per
// booking, not global.
var ErrOperationInFlight = errors.New("operation already in flight for booking")

// Backend is the slice of the backend-of-record client the service uses.
type Backend interface {
	CheckIn(ctx context.Context, req backend.CheckInOutRequest) (*models.Booking, error)
	CheckOut(ctx context.Context, req backend.CheckInOutRequest) (*models.Booking, error)
	CollectPayment(ctx context.Context, req backend.PaymentRequest) (*backend.PaymentResult, error)
	Extend(ctx context.Context, req backend.ExtensionRequest) (*backend.ExtensionResult, error)
	Cancel(ctx context.Context, req backend.CancellationRequest) (*backend.CancellationResult, error)
	FetchBooking(ctx context.Context, bookingID int64) (*models.Booking, error)
}

// Store is the local history cache the service reads from and commits
// confirmed state into.
type Store interface {
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpsertBooking(ctx context.Context, b *models.Booking) error
	UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status models.BookingStatus) error
	UpdateBookingAmountsWithVersion(ctx context.Context, id, version int64, total, paid float64, method models.PaymentMethod) error
	SetRoomAvailable(ctx context.Context, roomNumber string, available bool) error
	RecordAction(ctx context.Context, e store.AuditEntry) error
}

// Reception coordinates booking lifecycle operations.
type Reception struct {
	backend Backend
	store   Store
	fsm     *lifecycle.StateMachine
	ledger  *payment.Ledger
	bus     *events.Bus
	logger  *zerolog.Logger

	mu       sync.Mutex
	inflight map[int64]bool
}

// NewReception wires the reception service.
func NewReception(b Backend, s Store, tolerance float64, bus *events.Bus, logger *zerolog.Logger) *Reception {
	return &Reception{
		backend:  b,
		store:    s,
		fsm:      lifecycle.New(tolerance),
		ledger:   payment.NewLedger(tolerance),
		bus:      bus,
		logger:   logger,
		inflight: make(map[int64]bool),
	}
}

// acquire marks a booking as having a transition in flight.
func (r *Reception) acquire(bookingID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inflight[bookingID] {
		return fmt.Errorf("%w: %d", ErrOperationInFlight, bookingID)
	}
	r.inflight[bookingID] = true
	return nil
}

func (r *Reception) release(bookingID int64) {
	r.mu.Lock()
	delete(r.inflight, bookingID)
	r.mu.Unlock()
}

// CheckIn transitions a confirmed booking to checked_in, persisting the
// possibly edited date-time fields. On refusal or upstream failure the
// local booking stays at its last known-good state.
func (r *Reception) CheckIn(ctx context.Context, bookingID int64, d lifecycle.CheckInDetails) (*models.Booking, error) {
	if err := r.acquire(bookingID); err != nil {
		return nil, err
	}
	defer r.release(bookingID)

	b, err := r.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := r.fsm.GuardCheckIn(b, d); err != nil {
		r.refused(err, bookingID, "check-in")
		return nil, err
	}

	confirmed, err := r.backend.CheckIn(ctx, backend.CheckInOutRequest{
		BookingID:        bookingID,
		RoomNumber:       b.RoomNumber,
		CheckInDate:      d.CheckInDate,
		CheckInTime:      d.CheckInTime,
		CheckInMeridiem:  d.CheckInMeridiem,
		CheckOutDate:     d.CheckOutDate,
		CheckOutTime:     d.CheckOutTime,
		CheckOutMeridiem: d.CheckOutMeridiem,
	})
	if err != nil {
		r.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("check-in rejected upstream")
		return nil, err
	}

	if err := r.commit(ctx, confirmed); err != nil {
		return nil, err
	}
	if err := r.store.SetRoomAvailable(ctx, confirmed.RoomNumber, false); err != nil {
		return nil, err
	}

	metrics.IncTransition(string(models.StatusCheckedIn))
	r.audit(ctx, bookingID, "check_in", "room "+confirmed.RoomNumber, 0)
	r.logger.Info().
		Int64("booking_id", bookingID).
		Str("room", confirmed.RoomNumber).
		Msg("guest checked in")
	return confirmed, nil
}

// CheckOut transitions a checked-in booking to checked_out. The payment
// gate refuses the transition while anything is due; the caller routes
// to CollectPayment first.
func (r *Reception) CheckOut(ctx context.Context, bookingID int64) (*models.Booking, error) {
	if err := r.acquire(bookingID); err != nil {
		return nil, err
	}
	defer r.release(bookingID)

	b, err := r.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := r.fsm.GuardCheckOut(b); err != nil {
		r.refused(err, bookingID, "check-out")
		return nil, err
	}

	confirmed, err := r.backend.CheckOut(ctx, backend.CheckInOutRequest{
		BookingID:  bookingID,
		RoomNumber: b.RoomNumber,
	})
	if err != nil {
		r.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("check-out rejected upstream")
		return nil, err
	}

	if err := r.commit(ctx, confirmed); err != nil {
		return nil, err
	}
	if err := r.store.SetRoomAvailable(ctx, b.RoomNumber, true); err != nil {
		return nil, err
	}

	metrics.IncTransition(string(models.StatusCheckedOut))
	r.audit(ctx, bookingID, "check_out", "room "+b.RoomNumber, 0)
	r.logger.Info().
		Int64("booking_id", bookingID).
		Str("room", b.RoomNumber).
		Msg("guest checked out, room released")
	return confirmed, nil
}

// CollectPayment validates and applies a due payment. adjustedRemaining
// is an optional staff write-down of the due balance.
func (r *Reception) CollectPayment(ctx context.Context, bookingID int64, amount float64, method models.PaymentMethod, notes string, adjustedRemaining *float64) (*payment.Status, error) {
	if err := r.acquire(bookingID); err != nil {
		return nil, err
	}
	defer r.release(bookingID)

	b, err := r.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// Validate locally before going upstream; refusals mutate nothing.
	if _, err := r.ledger.Apply(b, amount, method, adjustedRemaining); err != nil {
		return nil, err
	}

	result, err := r.backend.CollectPayment(ctx, backend.PaymentRequest{
		BookingID:         bookingID,
		Amount:            amount,
		PaymentMethod:     method,
		Notes:             notes,
		AdjustedRemaining: adjustedRemaining,
	})
	if err != nil {
		r.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("payment rejected upstream")
		return nil, err
	}

	// Commit the server-confirmed amounts, not the local precomputation.
	if err := r.store.UpdateBookingAmountsWithVersion(ctx, bookingID, b.Version, b.TotalAmount, result.NewPaidAmount, method); err != nil {
		if errors.Is(err, store.ErrStaleVersion) {
			metrics.IncStaleUpdateDropped()
		}
		return nil, err
	}
	updated := *b
	updated.PaidAmount = result.NewPaidAmount
	updated.RemainingAmount = result.NewRemainingAmount
	updated.PaymentMethod = method
	updated.Version = b.Version + 1
	updated.UpdatedAt = time.Now()
	r.bus.Publish(events.Change{Booking: updated, Source: "local"})

	metrics.IncPaymentCollected(string(method), amount)
	r.audit(ctx, bookingID, "pay_due", string(method), amount)
	r.logger.Info().
		Int64("booking_id", bookingID).
		Float64("amount", amount).
		Str("method", string(method)).
		Str("status", string(result.PaymentStatus)).
		Msg("due payment collected")

	status := payment.Resolve(&updated, r.ledger.Tolerance())
	return &status, nil
}

// ProposeExtension computes the suggested charge and new checkout date
// for extending a stay. Pure; nothing is sent upstream.
func (r *Reception) ProposeExtension(ctx context.Context, bookingID int64, daysToAdd int) (extension.Proposal, error) {
	b, err := r.store.GetBooking(ctx, bookingID)
	if err != nil {
		return extension.Proposal{}, err
	}
	return extension.Propose(b, daysToAdd)
}

// ConfirmExtension sends a staff-approved extension upstream and
// commits the confirmed checkout fields and new total.
func (r *Reception) ConfirmExtension(ctx context.Context, bookingID int64, c extension.Confirmation) (*models.Booking, error) {
	if err := r.acquire(bookingID); err != nil {
		return nil, err
	}
	defer r.release(bookingID)

	b, err := r.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := extension.Validate(b, c); err != nil {
		return nil, err
	}

	result, err := r.backend.Extend(ctx, backend.ExtensionRequest{
		BookingID:        bookingID,
		RoomNumber:       b.RoomNumber,
		DaysToExtend:     c.DaysToAdd,
		NewCheckoutDate:  c.NewCheckoutDate,
		NewCheckoutTime:  c.NewCheckoutTime,
		NewCheckoutAMPM:  c.NewCheckoutAMPM,
		AdditionalAmount: c.AdditionalAmount,
	})
	if err != nil {
		r.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("extension rejected upstream")
		return nil, err
	}

	updated := *b
	updated.CheckOutDate = result.Booking.CheckOutDate
	updated.CheckOutTime = result.Booking.CheckOutTime
	updated.CheckOutMeridiem = result.Booking.CheckOutMeridiem
	updated.TotalAmount = result.Booking.TotalAmount
	updated.RemainingAmount = updated.Remaining()
	updated.Version = b.Version + 1
	updated.UpdatedAt = time.Now()
	if err := r.commit(ctx, &updated); err != nil {
		return nil, err
	}

	metrics.IncExtension()
	r.audit(ctx, bookingID, "extend", fmt.Sprintf("%d days, new checkout %s", c.DaysToAdd, updated.CheckOutDate), c.AdditionalAmount)
	r.logger.Info().
		Int64("booking_id", bookingID).
		Int("days", c.DaysToAdd).
		Float64("additional", c.AdditionalAmount).
		Str("new_checkout", updated.CheckOutDate).
		Msg("stay extended")
	return &updated, nil
}

// Cancel cancels a confirmed booking, frees the room, and records the
// refund outcome computed upstream.
func (r *Reception) Cancel(ctx context.Context, bookingID int64, reason models.CancellationReason) (*backend.CancellationResult, error) {
	if err := r.acquire(bookingID); err != nil {
		return nil, err
	}
	defer r.release(bookingID)

	b, err := r.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := r.fsm.GuardCancel(b, reason); err != nil {
		r.refused(err, bookingID, "cancel")
		return nil, err
	}

	result, err := r.backend.Cancel(ctx, backend.CancellationRequest{
		BookingID: bookingID,
		Reason:    reason,
	})
	if err != nil {
		r.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("cancellation rejected upstream")
		return nil, err
	}

	if err := r.store.UpdateBookingStatusWithVersion(ctx, bookingID, b.Version, models.StatusCancelled); err != nil {
		if errors.Is(err, store.ErrStaleVersion) {
			metrics.IncStaleUpdateDropped()
		}
		return nil, err
	}
	updated := *b
	updated.Status = models.StatusCancelled
	updated.Version = b.Version + 1
	updated.UpdatedAt = time.Now()
	r.bus.Publish(events.Change{Booking: updated, Source: "local"})
	if err := r.store.SetRoomAvailable(ctx, b.RoomNumber, true); err != nil {
		return nil, err
	}

	metrics.IncTransition(string(models.StatusCancelled))
	r.audit(ctx, bookingID, "cancel", string(reason), result.RefundAmount)
	r.logger.Info().
		Int64("booking_id", bookingID).
		Str("reason", string(reason)).
		Float64("refund", result.RefundAmount).
		Float64("fee", result.CancellationFee).
		Msg("booking cancelled, room released")
	return result, nil
}

// RefreshBooking re-reads the authoritative state from the backend and
// commits it into the local cache. A response older than the stored
// version is dropped and the stored state returned instead.
func (r *Reception) RefreshBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	fresh, err := r.backend.FetchBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := r.commit(ctx, fresh); err != nil {
		if errors.Is(err, store.ErrStaleVersion) {
			return r.store.GetBooking(ctx, bookingID)
		}
		return nil, err
	}
	return fresh, nil
}

// PaymentStatus re-derives the payment category for display. Always
// computed from the stored amounts, never cached.
func (r *Reception) PaymentStatus(ctx context.Context, bookingID int64) (*payment.Status, error) {
	b, err := r.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	status := payment.Resolve(b, r.ledger.Tolerance())
	return &status, nil
}

// StayDuration renders the stay length for display from the booking's
// date-time fields.
func (r *Reception) StayDuration(ctx context.Context, bookingID int64) (string, error) {
	b, err := r.store.GetBooking(ctx, bookingID)
	if err != nil {
		return "", err
	}
	d, err := timeutil.DurationBetween(
		b.CheckInDate, b.CheckInTime, b.CheckInMeridiem,
		b.CheckOutDate, b.CheckOutTime, b.CheckOutMeridiem,
	)
	if err != nil {
		return "", err
	}
	return timeutil.FormatDuration(d), nil
}

// commit writes a server-confirmed booking into the local cache and
// announces it on the notification bus.
func (r *Reception) commit(ctx context.Context, b *models.Booking) error {
	if err := r.store.UpsertBooking(ctx, b); err != nil {
		metrics.IncStaleUpdateDropped()
		return err
	}
	r.bus.Publish(events.Change{Booking: *b, Source: "local"})
	return nil
}

// audit appends to the action trail. Trail failures are logged, never
// propagated; the operation already committed.
func (r *Reception) audit(ctx context.Context, bookingID int64, action, detail string, amount float64) {
	err := r.store.RecordAction(ctx, store.AuditEntry{
		BookingID: bookingID,
		Action:    action,
		Detail:    detail,
		Amount:    amount,
	})
	if err != nil {
		r.logger.Warn().Err(err).Int64("booking_id", bookingID).Str("action", action).Msg("audit entry not recorded")
	}
}

func (r *Reception) refused(err error, bookingID int64, op string) {
	if te, ok := lifecycle.AsTransitionError(err); ok {
		metrics.IncTransitionRefused(string(te.Refusal))
		r.logger.Warn().
			Int64("booking_id", bookingID).
			Str("op", op).
			Str("reason", string(te.Refusal)).
			Str("detail", te.Detail).
			Msg("transition refused")
	}
}
