package scanner

import (
	"sync"
	"time"

	"github.com/kozaktomas/rollcall/internal/attendance"
)

// HistoryEntry is one recognized face as shown in the scan history table.
type HistoryEntry struct {
	At         time.Time          `json:"at"`
	RollNo     string             `json:"rollNo"`
	Name       string             `json:"name"`
	Confidence float64            `json:"confidence"`
	Lecture    string             `json:"lecture"`
	Slot       int                `json:"slot"`
	Status     string             `json:"status"`
	Outcome    attendance.Outcome `json:"outcome,omitempty"`
}

// History is the append-only list of recognized faces of this process.
type History struct {
	mu      sync.RWMutex
	entries []HistoryEntry
}

// Record appends an entry for events that carry a recognized identity.
func (h *History) Record(e Event) bool {
	if e.Result == nil || !e.Result.Known() {
		return false
	}
	entry := HistoryEntry{
		At:         e.At,
		RollNo:     e.Result.Identity.PersonID,
		Name:       e.Result.Identity.DisplayName,
		Confidence: e.Result.Confidence,
		Lecture:    e.Session.Lecture,
		Slot:       e.Session.Slot,
	}
	switch {
	case e.Mark != nil:
		entry.Status = e.Mark.ServerMessage
		entry.Outcome = e.Mark.Outcome
	case e.Kind == EventSuppressed:
		entry.Status = "recently marked"
	case e.Kind == EventError:
		entry.Status = e.Error
	default:
		return false
	}

	h.mu.Lock()
	h.entries = append(h.entries, entry)
	h.mu.Unlock()
	return true
}

// Entries returns up to limit of the newest entries, oldest first. A
// non-positive limit returns everything.
func (h *History) Entries(limit int) []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	start := 0
	if limit > 0 && len(h.entries) > limit {
		start = len(h.entries) - limit
	}
	out := make([]HistoryEntry, len(h.entries)-start)
	copy(out, h.entries[start:])
	return out
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
