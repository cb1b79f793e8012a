// Package notify keeps the short-lived user notifications the kiosk shows
// for scan outcomes.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/rollcall/internal/attendance"
	"github.com/kozaktomas/rollcall/internal/constants"
	"github.com/kozaktomas/rollcall/internal/scanner"
)

// Kind is the notification severity.
type Kind string

const (
	Success Kind = "success"
	Failure Kind = "failure"
	Warning Kind = "warning"
	Info    Kind = "info"
)

// Notification is one visible message.
type Notification struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Queue holds notifications in creation order. Each one expires after the
// display duration independently of the others.
type Queue struct {
	mu     sync.Mutex
	ttl    time.Duration
	items  []Notification
	now    func() time.Time
	logger *slog.Logger
}

// NewQueue creates a queue with the given display duration.
func NewQueue(ttl time.Duration, logger *slog.Logger) *Queue {
	if ttl <= 0 {
		ttl = constants.DefaultNotificationTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{ttl: ttl, now: time.Now, logger: logger.With("component", "notify")}
}

// Push adds a notification and returns it.
func (q *Queue) Push(kind Kind, text string) Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	n := Notification{
		ID:        uuid.NewString(),
		Text:      text,
		Kind:      kind,
		CreatedAt: now,
		ExpiresAt: now.Add(q.ttl),
	}
	q.prune(now)
	q.items = append(q.items, n)
	q.logger.Debug("notification", "kind", kind, "text", text)
	return n
}

// Active returns the unexpired notifications, oldest first.
func (q *Queue) Active() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.prune(q.now())
	out := make([]Notification, len(q.items))
	copy(out, q.items)
	return out
}

// TTL returns the display duration.
func (q *Queue) TTL() time.Duration {
	return q.ttl
}

func (q *Queue) prune(now time.Time) {
	kept := q.items[:0]
	for _, n := range q.items {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	clear(q.items[len(kept):])
	q.items = kept
}

// Consume pushes one notification per scan event until ctx is done or the
// channel is closed.
func (q *Queue) Consume(ctx context.Context, events <-chan scanner.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			kind, text := FromEvent(e)
			q.Push(kind, text)
		}
	}
}

// FromEvent maps a scan event to its notification.
func FromEvent(e scanner.Event) (Kind, string) {
	switch e.Kind {
	case scanner.EventNoFace:
		return Info, "No face detected"
	case scanner.EventUnknown:
		return Warning, "⚠️ Unknown face"
	case scanner.EventSuppressed:
		name := "Student"
		if e.Result.Known() {
			name = e.Result.Identity.DisplayName
		}
		return Info, name + " was marked recently"
	case scanner.EventMark:
		switch e.Mark.Outcome {
		case attendance.Marked:
			return Success, "✅ Present"
		case attendance.AlreadyMarked:
			return Warning, "⚠️ Already marked"
		default:
			return Failure, "❌ Not recorded"
		}
	case scanner.EventError:
		return Failure, "⚠️ Backend error"
	}
	return Info, string(e.Kind)
}
