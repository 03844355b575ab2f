// Package extension computes stay-extension proposals: the new checkout
// date and a pro-rata additional charge based on the booking's daily rate.
package extension

import (
	"errors"
	"fmt"
	"math"
	"time"

	"frontdesk/internal/models"
	"frontdesk/internal/timeutil"
)

const (
	// MinDays and MaxDays bound a single extension confirmation.
	MinDays = 1
	MaxDays = 30
)

var (
	// ErrDaysOutOfRange means daysToAdd is outside [MinDays, MaxDays].
	ErrDaysOutOfRange = errors.New("days to extend out of range")
	// ErrNotCheckedIn means the booking is not in a state that can be extended.
	ErrNotCheckedIn = errors.New("only checked-in bookings can be extended")
)

// Proposal is a suggested extension. Staff may override the amount
// before confirming.
type Proposal struct {
	NewCheckoutDate           string  `json:"new_checkout_date"`
	SuggestedAdditionalAmount float64 `json:"suggested_additional_amount"`
	DailyRate                 float64 `json:"daily_rate"`
	CurrentDays               int     `json:"current_days"`
}

// Propose computes the new checkout date and the suggested charge for
// extending the stay by daysToAdd days. The daily rate is the current
// total spread over the current stay length (minimum one day).
func Propose(b *models.Booking, daysToAdd int) (Proposal, error) {
	if daysToAdd < MinDays || daysToAdd > MaxDays {
		return Proposal{}, fmt.Errorf("%w: %d", ErrDaysOutOfRange, daysToAdd)
	}

	checkIn, err := timeutil.ParseDate(b.CheckInDate)
	if err != nil {
		return Proposal{}, err
	}
	checkOut, err := timeutil.ParseDate(b.CheckOutDate)
	if err != nil {
		return Proposal{}, err
	}

	days := int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))
	if days < 1 {
		days = 1
	}

	rate := b.TotalAmount / float64(days)
	suggested := math.Round(rate*float64(daysToAdd)*100) / 100

	return Proposal{
		NewCheckoutDate:           timeutil.FormatDate(checkOut.AddDate(0, 0, daysToAdd)),
		SuggestedAdditionalAmount: suggested,
		DailyRate:                 rate,
		CurrentDays:               days,
	}, nil
}

// Confirmation carries the staff-approved extension values sent to the
// backend of record. Checkout time and meridiem default to the prior
// values but are editable independently.
type Confirmation struct {
	DaysToAdd        int
	NewCheckoutDate  string
	NewCheckoutTime  string
	NewCheckoutAMPM  string
	AdditionalAmount float64
}

// Validate checks a confirmation against the booking before it is sent
// upstream. Extension is only legal while the booking is checked in.
func Validate(b *models.Booking, c Confirmation) error {
	if b.Status != models.StatusCheckedIn {
		return fmt.Errorf("%w: status %s", ErrNotCheckedIn, b.Status)
	}
	if c.DaysToAdd < MinDays || c.DaysToAdd > MaxDays {
		return fmt.Errorf("%w: %d", ErrDaysOutOfRange, c.DaysToAdd)
	}
	if c.AdditionalAmount < 0 {
		return fmt.Errorf("additional amount must be non-negative: %.2f", c.AdditionalAmount)
	}
	if _, err := timeutil.ParseDate(c.NewCheckoutDate); err != nil {
		return err
	}
	if _, err := timeutil.To24Hour(c.NewCheckoutTime, c.NewCheckoutAMPM); err != nil {
		return err
	}
	return nil
}

// ApplyConfirmed mutates a copy of the booking with the confirmed
// extension values, as reported back by the backend of record.
func ApplyConfirmed(b models.Booking, c Confirmation, confirmedAt time.Time) models.Booking {
	b.TotalAmount += c.AdditionalAmount
	b.CheckOutDate = c.NewCheckoutDate
	b.CheckOutTime = c.NewCheckoutTime
	b.CheckOutMeridiem = c.NewCheckoutAMPM
	b.RemainingAmount = b.Remaining()
	b.UpdatedAt = confirmedAt
	return b
}
