// Package guest suggests previous guest records by phone or company
// prefix to pre-fill repeat bookings. Matching is advisory only; it
// never merges or deduplicates stored records.
package guest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"frontdesk/internal/models"
	"frontdesk/internal/store"
)

// DefaultMinPrefix is the minimum phone prefix length before the
// matcher queries history.
const DefaultMinPrefix = 3

// ErrSuperseded is returned when a newer query was issued while this
// one was in flight. Search-as-you-type callers drop these results
// instead of racing them against the newer response.
var ErrSuperseded = errors.New("suggestion query superseded")

// Store is the slice of the history store the matcher needs.
type Store interface {
	SearchGuests(ctx context.Context, q store.GuestQuery) ([]models.Guest, error)
}

// Remote is the backend suggestion source, consulted when the local
// history has no rows for a prefix. May be nil for a local-only matcher.
type Remote interface {
	SuggestGuests(ctx context.Context, phonePrefix string, includeCheckedOut bool) ([]models.Guest, error)
}

// Matcher answers prefix queries against booking history. Each new
// query cancels the prior in-flight one, so only the latest keystroke's
// results are ever delivered.
type Matcher struct {
	store     Store
	remote    Remote
	minPrefix int

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewMatcher creates a matcher over the given history store. remote,
// when non-nil, backfills suggestions for guests this terminal has
// never seen.
func NewMatcher(s Store, remote Remote, minPrefix int) *Matcher {
	if minPrefix <= 0 {
		minPrefix = DefaultMinPrefix
	}
	return &Matcher{store: s, remote: remote, minPrefix: minPrefix}
}

// Suggest returns guests whose phone starts with phonePrefix, scoped to
// active bookings unless includeCheckedOut widens the history. Prefixes
// shorter than the minimum return an empty list without querying.
func (m *Matcher) Suggest(ctx context.Context, phonePrefix string, includeCheckedOut bool) ([]models.Guest, error) {
	return m.run(ctx, store.GuestQuery{
		PhonePrefix:       strings.TrimSpace(phonePrefix),
		IncludeCheckedOut: includeCheckedOut,
	})
}

// SuggestCorporate is Suggest scoped to corporate bookings, optionally
// narrowed by a company-name prefix.
func (m *Matcher) SuggestCorporate(ctx context.Context, phonePrefix, companyPrefix string, includeCheckedOut bool) ([]models.Guest, error) {
	return m.run(ctx, store.GuestQuery{
		PhonePrefix:       strings.TrimSpace(phonePrefix),
		CompanyPrefix:     strings.TrimSpace(companyPrefix),
		CorporateOnly:     true,
		IncludeCheckedOut: includeCheckedOut,
	})
}

func (m *Matcher) run(ctx context.Context, q store.GuestQuery) ([]models.Guest, error) {
	if len(q.PhonePrefix) < m.minPrefix {
		return []models.Guest{}, nil
	}

	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	queryCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.cancel = cancel
	m.seq++
	mySeq := m.seq
	m.mu.Unlock()

	guests, err := m.store.SearchGuests(queryCtx, q)
	if err == nil && len(guests) == 0 && m.remote != nil && !q.CorporateOnly {
		guests, err = m.remote.SuggestGuests(queryCtx, q.PhonePrefix, q.IncludeCheckedOut)
	}

	m.mu.Lock()
	superseded := m.seq != mySeq
	m.mu.Unlock()

	if superseded {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	if guests == nil {
		guests = []models.Guest{}
	}
	return guests, nil
}
