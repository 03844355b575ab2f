// Package events is the single change-notification surface for booking
// updates. Both the polling loop and push notifications publish here;
// subscribers see each booking's updates in version order, with stale
// versions discarded instead of overwriting newer state.
package events

import (
	"sync"
	"time"

	"frontdesk/internal/models"
)

// Change describes one booking update from any source.
type Change struct {
	Booking    models.Booking
	Source     string // "poll", "push", "local"
	ReceivedAt time.Time
}

// Handler reacts to an accepted change.
type Handler func(change Change)

// Bus fans booking changes out to subscribers. A per-booking monotonic
// version watermark drops updates that arrive out of order, which is
// how a late poll response loses to a newer optimistic local commit.
type Bus struct {
	mu          sync.RWMutex
	subscribers []Handler
	versions    map[int64]int64
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{versions: make(map[int64]int64)}
}

// Subscribe registers a handler for accepted changes.
func (b *Bus) Subscribe(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, handler)
}

// Publish offers a change to the bus. It returns true when the change
// advanced the booking's version watermark and was delivered, false
// when it was stale and dropped.
func (b *Bus) Publish(change Change) bool {
	b.mu.Lock()
	current, seen := b.versions[change.Booking.ID]
	if seen && change.Booking.Version <= current {
		b.mu.Unlock()
		return false
	}
	b.versions[change.Booking.ID] = change.Booking.Version
	handlers := append([]Handler(nil), b.subscribers...)
	b.mu.Unlock()

	if change.ReceivedAt.IsZero() {
		change.ReceivedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		handler(change)
	}
	return true
}

// Version returns the last accepted version for a booking, zero when
// the booking has not been seen.
func (b *Bus) Version(bookingID int64) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.versions[bookingID]
}

// HighWatermark returns the highest version accepted across all
// bookings, which the poller uses as its since-version cursor.
func (b *Bus) HighWatermark() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var max int64
	for _, v := range b.versions {
		if v > max {
			max = v
		}
	}
	return max
}
