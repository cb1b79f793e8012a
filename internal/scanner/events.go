package scanner

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/kozaktomas/rollcall/internal/attendance"
	"github.com/kozaktomas/rollcall/internal/constants"
)

// EventKind names the terminal outcome of a scan cycle.
type EventKind string

const (
	EventNoFace     EventKind = "no_face"    // frame had no usable face
	EventUnknown    EventKind = "unknown"    // face not recognized
	EventSuppressed EventKind = "suppressed" // known face inside its debounce window
	EventMark       EventKind = "mark"       // mark attempted, see Mark.Outcome
	EventError      EventKind = "error"      // detector or backend failure
)

// Event is published once for every completed cycle that had a frame.
type Event struct {
	ID      string                `json:"id"`
	Cycle   uint64                `json:"cycle"`
	Kind    EventKind             `json:"kind"`
	Session attendance.Session    `json:"session"`
	Faces   int                   `json:"faces"`
	Result  *attendance.Result    `json:"result,omitempty"`
	Mark    *attendance.MarkEvent `json:"mark,omitempty"`
	Stage   string                `json:"stage,omitempty"` // failing step for EventError
	Error   string                `json:"error,omitempty"`
	At      time.Time             `json:"at"`

	err error
}

// Err returns the underlying error of an EventError.
func (e Event) Err() error {
	return e.err
}

// Broadcaster fans events out to listeners. Slow listeners miss events
// rather than blocking the loop; misses are counted.
type Broadcaster struct {
	listeners []chan Event
	mu        sync.RWMutex
	dropped   atomic.Uint64
}

// AddListener adds an event listener.
func (b *Broadcaster) AddListener() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener and closes its channel.
func (b *Broadcaster) RemoveListener(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// SendEvent sends an event to all listeners and returns how many of them
// had a full buffer and missed it.
func (b *Broadcaster) SendEvent(event Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	missed := 0
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			missed++
		}
	}
	b.dropped.Add(uint64(missed))
	return missed
}

// Dropped returns the number of deliveries missed since creation.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Close removes and closes every listener.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.listeners {
		close(ch)
	}
	b.listeners = nil
}
