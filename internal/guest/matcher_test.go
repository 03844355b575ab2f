package guest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"frontdesk/internal/models"
	"frontdesk/internal/store"

	"github.com/stretchr/testify/assert"
)

type fakeStore struct {
	mu       sync.Mutex
	queries  []store.GuestQuery
	contexts []context.Context
	results  []models.Guest
	err      error
	block    chan struct{} // when set, SearchGuests waits until closed
}

func (f *fakeStore) SearchGuests(ctx context.Context, q store.GuestQuery) ([]models.Guest, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.contexts = append(f.contexts, ctx)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.results, f.err
}

func TestSuggestShortPrefix(t *testing.T) {
	fs := &fakeStore{results: []models.Guest{{Name: "Ravi"}}}
	m := NewMatcher(fs, nil, DefaultMinPrefix)

	guests, err := m.Suggest(context.Background(), "98", false)
	assert.NoError(t, err)
	assert.Empty(t, guests)
	assert.Empty(t, fs.queries, "store must not be queried below the minimum prefix")
}

func TestSuggest(t *testing.T) {
	fs := &fakeStore{results: []models.Guest{{Name: "Ravi", Phone: "9876543210"}}}
	m := NewMatcher(fs, nil, DefaultMinPrefix)

	guests, err := m.Suggest(context.Background(), "987", true)
	assert.NoError(t, err)
	assert.Len(t, guests, 1)
	assert.Equal(t, "Ravi", guests[0].Name)

	assert.Len(t, fs.queries, 1)
	assert.Equal(t, "987", fs.queries[0].PhonePrefix)
	assert.True(t, fs.queries[0].IncludeCheckedOut)
	assert.False(t, fs.queries[0].CorporateOnly)
}

func TestSuggestCorporate(t *testing.T) {
	fs := &fakeStore{results: []models.Guest{}}
	m := NewMatcher(fs, nil, DefaultMinPrefix)

	_, err := m.Suggest(context.Background(), "987", false)
	assert.NoError(t, err)

	_, err = m.SuggestCorporate(context.Background(), "987", "Acme", false)
	assert.NoError(t, err)

	q := fs.queries[len(fs.queries)-1]
	assert.True(t, q.CorporateOnly)
	assert.Equal(t, "Acme", q.CompanyPrefix)
}

func TestSuggestNilResultsBecomeEmpty(t *testing.T) {
	fs := &fakeStore{results: nil}
	m := NewMatcher(fs, nil, DefaultMinPrefix)

	guests, err := m.Suggest(context.Background(), "987", false)
	assert.NoError(t, err)
	assert.NotNil(t, guests)
	assert.Empty(t, guests)
}

type fakeRemote struct {
	mu       sync.Mutex
	calls    int
	prefixes []string
	results  []models.Guest
	err      error
}

func (f *fakeRemote) SuggestGuests(_ context.Context, phonePrefix string, _ bool) ([]models.Guest, error) {
	f.mu.Lock()
	f.calls++
	f.prefixes = append(f.prefixes, phonePrefix)
	f.mu.Unlock()
	return f.results, f.err
}

func TestSuggestFallsBackToRemote(t *testing.T) {
	fs := &fakeStore{results: nil}
	remote := &fakeRemote{results: []models.Guest{{Name: "Asha", Phone: "9871112222"}}}
	m := NewMatcher(fs, remote, DefaultMinPrefix)

	guests, err := m.Suggest(context.Background(), "987", false)
	assert.NoError(t, err)
	assert.Len(t, guests, 1)
	assert.Equal(t, "Asha", guests[0].Name)
	assert.Equal(t, []string{"987"}, remote.prefixes)
}

func TestLocalRowsSkipRemote(t *testing.T) {
	fs := &fakeStore{results: []models.Guest{{Name: "Ravi"}}}
	remote := &fakeRemote{results: []models.Guest{{Name: "Asha"}}}
	m := NewMatcher(fs, remote, DefaultMinPrefix)

	guests, err := m.Suggest(context.Background(), "987", false)
	assert.NoError(t, err)
	assert.Len(t, guests, 1)
	assert.Equal(t, "Ravi", guests[0].Name)
	assert.Zero(t, remote.calls, "remote consulted only when local history is empty")
}

func TestCorporateQueriesStayLocal(t *testing.T) {
	fs := &fakeStore{results: nil}
	remote := &fakeRemote{results: []models.Guest{{Name: "Asha"}}}
	m := NewMatcher(fs, remote, DefaultMinPrefix)

	guests, err := m.SuggestCorporate(context.Background(), "987", "Acme", false)
	assert.NoError(t, err)
	assert.Empty(t, guests)
	assert.Zero(t, remote.calls)
}

func TestQueryContextReleasedAfterCompletion(t *testing.T) {
	fs := &fakeStore{results: []models.Guest{{Name: "Ravi"}}}
	m := NewMatcher(fs, nil, DefaultMinPrefix)

	_, err := m.Suggest(context.Background(), "987", false)
	assert.NoError(t, err)

	assert.Len(t, fs.contexts, 1)
	assert.ErrorIs(t, fs.contexts[0].Err(), context.Canceled,
		"derived query context must be released once the query completes")
}

func TestNewKeystrokeSupersedesInFlightQuery(t *testing.T) {
	block := make(chan struct{})
	fs := &fakeStore{results: []models.Guest{{Name: "Ravi"}}, block: block}
	m := NewMatcher(fs, nil, DefaultMinPrefix)

	firstDone := make(chan error, 1)
	go func() {
		_, err := m.Suggest(context.Background(), "987", false)
		firstDone <- err
	}()

	// Wait for the first query to reach the store.
	for {
		fs.mu.Lock()
		n := len(fs.queries)
		fs.mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	// Second keystroke cancels the first query's context.
	fs.mu.Lock()
	fs.block = nil
	fs.mu.Unlock()
	guests, err := m.Suggest(context.Background(), "9876", false)
	assert.NoError(t, err)
	assert.Len(t, guests, 1)

	err = <-firstDone
	assert.Error(t, err)
	superseded := errors.Is(err, ErrSuperseded) || errors.Is(err, context.Canceled)
	assert.True(t, superseded, "got %v", err)
	close(block)
}
