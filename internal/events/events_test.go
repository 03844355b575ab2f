package events

import (
	"testing"

	"frontdesk/internal/models"

	"github.com/stretchr/testify/assert"
)

func change(id, version int64, status models.BookingStatus) Change {
	return Change{
		Booking: models.Booking{ID: id, Version: version, Status: status},
		Source:  "poll",
	}
}

func TestPublishDeliversInVersionOrder(t *testing.T) {
	bus := NewBus()

	var seen []int64
	bus.Subscribe(func(c Change) {
		seen = append(seen, c.Booking.Version)
	})

	assert.True(t, bus.Publish(change(1, 1, models.StatusConfirmed)))
	assert.True(t, bus.Publish(change(1, 2, models.StatusCheckedIn)))
	assert.Equal(t, []int64{1, 2}, seen)
	assert.Equal(t, int64(2), bus.Version(1))
}

func TestPublishDropsStale(t *testing.T) {
	bus := NewBus()

	var delivered int
	bus.Subscribe(func(c Change) { delivered++ })

	assert.True(t, bus.Publish(change(1, 5, models.StatusCheckedIn)))

	// A late poll response carrying an older snapshot is dropped.
	assert.False(t, bus.Publish(change(1, 3, models.StatusConfirmed)))
	// Same version re-delivered (poll and push racing) is also dropped.
	assert.False(t, bus.Publish(change(1, 5, models.StatusCheckedIn)))

	assert.Equal(t, 1, delivered)
	assert.Equal(t, int64(5), bus.Version(1))
}

func TestVersionsAreIndependentPerBooking(t *testing.T) {
	bus := NewBus()

	assert.True(t, bus.Publish(change(1, 10, models.StatusCheckedIn)))
	assert.True(t, bus.Publish(change(2, 1, models.StatusConfirmed)))
	assert.Equal(t, int64(10), bus.Version(1))
	assert.Equal(t, int64(1), bus.Version(2))
	assert.Equal(t, int64(10), bus.HighWatermark())
}
