// Package poller periodically asks the backend for bookings changed
// since the last seen version and feeds them to the notification bus.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"frontdesk/internal/events"
	"frontdesk/internal/models"
)

// Source fetches changed bookings from the backend of record.
type Source interface {
	ChangedSince(ctx context.Context, version int64) ([]models.Booking, error)
}

// Poller runs the update-polling loop.
type Poller struct {
	source   Source
	bus      *events.Bus
	interval time.Duration
	logger   *zerolog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// New creates a poller. Intervals below one second are clamped to the
// default thirty seconds.
func New(source Source, bus *events.Bus, interval time.Duration, logger *zerolog.Logger) *Poller {
	if interval < time.Second {
		interval = 30 * time.Second
	}
	return &Poller{
		source:   source,
		bus:      bus,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the polling loop and blocks until the context is done
// or Stop is called.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	p.logger.Info().Dur("interval", p.interval).Msg("update poller started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("update poller stopped by context")
			return
		case <-p.stopCh:
			p.logger.Info().Msg("update poller stopped")
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

// Stop stops the polling loop.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.running {
		p.running = false
		close(p.stopCh)
	}
	p.mu.Unlock()
}

func (p *Poller) pollOnce(ctx context.Context) {
	since := p.bus.HighWatermark()
	changed, err := p.source.ChangedSince(ctx, since)
	if err != nil {
		p.logger.Error().Err(err).Int64("since_version", since).Msg("poll for changes failed")
		return
	}

	accepted := 0
	for _, b := range changed {
		if p.bus.Publish(events.Change{Booking: b, Source: "poll"}) {
			accepted++
		}
	}
	if len(changed) > 0 {
		p.logger.Debug().
			Int("changed", len(changed)).
			Int("accepted", accepted).
			Msg("poll cycle applied updates")
	}
}
