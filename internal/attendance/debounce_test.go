package attendance

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestGate(window time.Duration) (*DebounceGate, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	g := NewDebounceGate(window)
	g.now = clock.Now
	return g, clock
}

func TestDebounceGate_SuppressesWithinWindow(t *testing.T) {
	g, clock := newTestGate(10 * time.Second)

	if !g.ShouldAttemptMark("21") {
		t.Fatal("expected first attempt to be allowed")
	}
	g.RecordMark("21")

	clock.Advance(9 * time.Second)
	if g.ShouldAttemptMark("21") {
		t.Error("expected attempt inside the window to be suppressed")
	}
	if !g.ShouldAttemptMark("22") {
		t.Error("expected another person to be unaffected")
	}

	clock.Advance(time.Second)
	if !g.ShouldAttemptMark("21") {
		t.Error("expected attempt at window end to be allowed")
	}
	if g.Len() != 0 {
		t.Errorf("expected expired entry to be removed, got %d entries", g.Len())
	}
}

func TestDebounceGate_RecordPrunesExpired(t *testing.T) {
	g, clock := newTestGate(5 * time.Second)

	g.RecordMark("1")
	g.RecordMark("2")
	clock.Advance(6 * time.Second)
	g.RecordMark("3")

	if g.Len() != 1 {
		t.Errorf("expected only the fresh entry to remain, got %d", g.Len())
	}
}

func TestDebounceGate_Reset(t *testing.T) {
	g, _ := newTestGate(time.Minute)
	g.RecordMark("21")
	g.Reset()

	if !g.ShouldAttemptMark("21") {
		t.Error("expected reset gate to allow attempts")
	}
}

func TestNewDebounceGate_DefaultWindow(t *testing.T) {
	if w := NewDebounceGate(0).Window(); w != 10*time.Second {
		t.Errorf("expected default window 10s, got %v", w)
	}
}

func TestShouldRecord(t *testing.T) {
	tests := []struct {
		outcome  Outcome
		expected bool
	}{
		{Marked, true},
		{AlreadyMarked, true},
		{Rejected, false},
	}
	for _, tt := range tests {
		if got := ShouldRecord(tt.outcome); got != tt.expected {
			t.Errorf("ShouldRecord(%s) = %v, want %v", tt.outcome, got, tt.expected)
		}
	}
}

func TestSession(t *testing.T) {
	tests := []struct {
		session Session
		active  bool
	}{
		{Session{Lecture: "COA", Slot: 1}, true},
		{Session{Lecture: "None"}, false},
		{Session{Lecture: "none"}, false},
		{Session{Lecture: "  "}, false},
		{Session{}, false},
	}
	for _, tt := range tests {
		if got := tt.session.Active(); got != tt.active {
			t.Errorf("%+v.Active() = %v, want %v", tt.session, got, tt.active)
		}
	}

	if s := (Session{Lecture: " COA "}).WithDefaults(); s.Slot != 1 || s.Lecture != "COA" {
		t.Errorf("unexpected defaults %+v", s)
	}
}
