package attendance

import (
	"sync"
	"time"

	"github.com/kozaktomas/rollcall/internal/constants"
)

// DebounceGate suppresses repeat marks for the same person within a window.
// Entries expire lazily on access.
type DebounceGate struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]time.Time // personID -> expiresAt
	now     func() time.Time
}

// NewDebounceGate creates a gate with the given cool-down window.
func NewDebounceGate(window time.Duration) *DebounceGate {
	if window <= 0 {
		window = constants.DefaultDebounceWindow
	}
	return &DebounceGate{
		window:  window,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// ShouldAttemptMark reports whether a mark for personID may be sent now.
func (g *DebounceGate) ShouldAttemptMark(personID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	expiresAt, ok := g.entries[personID]
	if !ok {
		return true
	}
	if !g.now().Before(expiresAt) {
		delete(g.entries, personID)
		return true
	}
	return false
}

// RecordMark starts the cool-down for personID.
func (g *DebounceGate) RecordMark(personID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.entries[personID] = now.Add(g.window)
	g.prune(now)
}

// Window returns the cool-down duration.
func (g *DebounceGate) Window() time.Duration {
	return g.window
}

// Reset forgets every entry, e.g. when the lecture changes.
func (g *DebounceGate) Reset() {
	g.mu.Lock()
	clear(g.entries)
	g.mu.Unlock()
}

// Len returns the number of entries, expired or not.
func (g *DebounceGate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

func (g *DebounceGate) prune(now time.Time) {
	for id, expiresAt := range g.entries {
		if !now.Before(expiresAt) {
			delete(g.entries, id)
		}
	}
}

// ShouldRecord reports whether an outcome starts the cool-down. A mark the
// backend already holds counts; rejected or failed attempts may be retried.
func ShouldRecord(outcome Outcome) bool {
	return outcome == Marked || outcome == AlreadyMarked
}
