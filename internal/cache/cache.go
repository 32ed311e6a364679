// Package cache implements the timestamped-payload-with-TTL policy shared
// by every remote data feed. Entries are replaced wholesale on successful
// fetches and are never cleared on failure: stale data keeps being served
// while a refresh is attempted (stale-while-revalidate), so consumers never
// see an empty state for data they have already fetched once.
package cache

import (
	"sync"
	"time"
)

// Per-feed TTLs. Each feed owns its freshness policy independently; these
// are deliberately not one shared constant.
const (
	TTLWeather        = 15 * time.Minute
	TTLSegmentEfforts = 15 * time.Minute
	TTLWeeklyStats    = 15 * time.Minute
	TTLRoutes         = 60 * time.Minute
	TTLBriefing       = 2 * time.Hour
)

// Entry wraps one fetched payload with its fetch time.
type Entry[T any] struct {
	Payload   T
	FetchedAt time.Time
}

// Fresh reports whether the entry exists and is younger than ttl.
func (e *Entry[T]) Fresh(ttl time.Duration, now time.Time) bool {
	return e != nil && now.Sub(e.FetchedAt) < ttl
}

// Slot is one feed's cache slot. Writes are token-guarded: Begin issues a
// request token before a fetch starts, and CompleteWith only accepts the
// result if no newer fetch has begun since. A superseded fetch that
// completes late is discarded, so an old response can never overwrite data
// from a later request.
type Slot[T any] struct {
	mu     sync.Mutex
	entry  *Entry[T]
	latest uint64
	now    func() time.Time
}

// NewSlot returns an empty slot using the wall clock.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{now: time.Now}
}

// NewSlotWithClock returns an empty slot with an injected clock, for tests.
func NewSlotWithClock[T any](now func() time.Time) *Slot[T] {
	return &Slot[T]{now: now}
}

// Get returns the current entry, or nil if nothing has ever been fetched.
// The entry may be stale; freshness is the caller's refetch gate, not a
// read gate.
func (s *Slot[T]) Get() *Entry[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry == nil {
		return nil
	}
	e := *s.entry
	return &e
}

// Fresh reports whether the slot holds an entry younger than ttl.
func (s *Slot[T]) Fresh(ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry.Fresh(ttl, s.now())
}

// Begin registers the start of a fetch and returns its token. Any token
// issued earlier becomes stale.
func (s *Slot[T]) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	return s.latest
}

// CompleteWith installs payload as the new entry if token is still the most
// recently issued one. Returns whether the result was accepted.
func (s *Slot[T]) CompleteWith(token uint64, payload T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.latest {
		return false
	}
	s.entry = &Entry[T]{Payload: payload, FetchedAt: s.now()}
	return true
}

// Set unconditionally replaces the entry, timestamped now. Used when there
// is no competing fetch to guard against.
func (s *Slot[T]) Set(payload T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	s.entry = &Entry[T]{Payload: payload, FetchedAt: s.now()}
}

// FailFlag is the transient "last sync failed" signal surfaced to the
// presentation layer. It auto-clears after a short display window instead
// of requiring an explicit dismissal.
type FailFlag struct {
	mu       sync.Mutex
	failedAt *time.Time
	window   time.Duration
	now      func() time.Time
}

// DefaultFailWindow is how long a sync failure stays visible.
const DefaultFailWindow = 10 * time.Second

// NewFailFlag returns a flag with the given display window; window <= 0
// uses DefaultFailWindow.
func NewFailFlag(window time.Duration) *FailFlag {
	if window <= 0 {
		window = DefaultFailWindow
	}
	return &FailFlag{window: window, now: time.Now}
}

// NewFailFlagWithClock is NewFailFlag with an injected clock, for tests.
func NewFailFlagWithClock(window time.Duration, now func() time.Time) *FailFlag {
	f := NewFailFlag(window)
	f.now = now
	return f
}

// Set records a sync failure at the current instant.
func (f *FailFlag) Set() {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.now()
	f.failedAt = &t
}

// Failed reports whether a failure happened within the display window.
func (f *FailFlag) Failed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failedAt == nil {
		return false
	}
	if f.now().Sub(*f.failedAt) >= f.window {
		f.failedAt = nil
		return false
	}
	return true
}
