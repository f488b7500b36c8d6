package deploy

import (
	"sync"
	"time"

	lrucache "github.com/cognusion/go-cache-lru"
)

// backoffMaxEntries bounds the cross-session backoff map the way the pack's
// LRU-capped session cache bounds itself: a safety net against unbounded
// growth, not a correctness mechanism (see DESIGN.md).
const backoffMaxEntries = 10000

type backoffEntry struct {
	timeout time.Time
	numFail int
}

// Backoff tracks per-device deploy failure counts and cools down retries
// with the formula `(2 + min(numFail, 20)) * 10s`, keyed by device path and
// shared across sessions (a device that reconnects mid-backoff must not
// reset the clock).
type Backoff struct {
	mu      sync.Mutex
	entries *lrucache.Cache
	clock   func() time.Time
}

// BackoffOption configures a Backoff.
type BackoffOption func(*Backoff)

// WithClock overrides the time source, for deterministic tests.
func WithClock(clock func() time.Time) BackoffOption {
	return func(b *Backoff) {
		b.clock = clock
	}
}

// NewBackoff builds a Backoff with no expiration on individual entries
// (failure state is only ever cleared by a success) and an LRU cap on the
// overall map size.
func NewBackoff(opts ...BackoffOption) *Backoff {
	b := &Backoff{
		entries: lrucache.New(lrucache.NoExpiration, time.Minute, backoffMaxEntries),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// InBackoff reports whether devicePath is still cooling down from a
// previous failure.
func (b *Backoff) InBackoff(devicePath string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.entries.Get(devicePath)
	if !ok {
		return false
	}
	return b.clock().Before(entry.(*backoffEntry).timeout)
}

// RecordFailure increments the failure counter for devicePath and sets a new
// cooldown timeout per the backoff formula.
func (b *Backoff) RecordFailure(devicePath string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry := b.getLocked(devicePath)
	entry.numFail++
	secs := (2 + min(entry.numFail, 20)) * 10
	entry.timeout = b.clock().Add(time.Duration(secs) * time.Second)
	b.entries.Set(devicePath, entry, lrucache.NoExpiration)
}

// Reset clears the failure counter and cooldown for devicePath after a
// successful deploy.
func (b *Backoff) Reset(devicePath string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries.Set(devicePath, &backoffEntry{}, lrucache.NoExpiration)
}

// NumFail returns the current failure count for devicePath.
func (b *Backoff) NumFail(devicePath string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.getLocked(devicePath).numFail
}

func (b *Backoff) getLocked(devicePath string) *backoffEntry {
	if v, ok := b.entries.Get(devicePath); ok {
		return v.(*backoffEntry)
	}
	return &backoffEntry{}
}
