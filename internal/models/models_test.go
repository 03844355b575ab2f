package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusConfirmed.IsTerminal())
	assert.False(t, StatusCheckedIn.IsTerminal())
	assert.True(t, StatusCheckedOut.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestBooking_Remaining(t *testing.T) {
	b := &Booking{TotalAmount: 2000, PaidAmount: 500}
	assert.Equal(t, 1500.0, b.Remaining())

	t.Run("overpayment clamps to zero", func(t *testing.T) {
		b := &Booking{TotalAmount: 2000, PaidAmount: 2500}
		assert.Equal(t, 0.0, b.Remaining())
	})

	t.Run("stored field is ignored", func(t *testing.T) {
		b := &Booking{TotalAmount: 2000, PaidAmount: 2000, RemainingAmount: 999}
		assert.Equal(t, 0.0, b.Remaining())
	})
}

func TestValidCancellationReason(t *testing.T) {
	assert.True(t, ValidCancellationReason(ReasonGuestRequest))
	assert.True(t, ValidCancellationReason(ReasonForceMajeure))
	assert.False(t, ValidCancellationReason("changed_my_mind"))
	assert.False(t, ValidCancellationReason(""))
}

func TestBooking_IsCorporate(t *testing.T) {
	assert.True(t, (&Booking{Source: SourceCorporate}).IsCorporate())
	assert.False(t, (&Booking{Source: SourceWalkIn}).IsCorporate())
}

func TestBookingJSONFieldNames(t *testing.T) {
	b := Booking{ID: 42, Status: StatusConfirmed, CheckInMeridiem: "PM", OwnerReference: true}
	raw, err := json.Marshal(b)
	assert.NoError(t, err)

	var m map[string]any
	assert.NoError(t, json.Unmarshal(raw, &m))
	assert.Contains(t, m, "booking_id")
	assert.Contains(t, m, "booking_status")
	assert.Contains(t, m, "check_in_ampm")
	assert.Contains(t, m, "owner_reference")
}
