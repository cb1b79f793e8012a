package scanner

import (
	"fmt"
	"strings"

	"github.com/kozaktomas/rollcall/internal/attendance"
)

// State is the scan loop state.
type State string

const (
	StateIdle          State = "idle"
	StateArmed         State = "armed"
	StateCycleInFlight State = "cycle_in_flight"
)

// Banner is the coarse status colour shown by the kiosk.
type Banner string

const (
	BannerIdle    Banner = "idle"
	BannerSuccess Banner = "success"
	BannerWarning Banner = "warning"
	BannerFail    Banner = "fail"
)

// Status is a point-in-time view of the loop.
type Status struct {
	State     State              `json:"state"`
	Session   attendance.Session `json:"session"`
	Paused    bool               `json:"paused"`
	Completed uint64             `json:"completed"` // cycles that produced an event
	NoFrame   uint64             `json:"noFrame"`   // cycles skipped for lack of a frame
	Skipped   uint64             `json:"skipped"`   // ticks dropped while a cycle was in flight
	Discarded uint64             `json:"discarded"` // results dropped after pause or session change
	Dropped   uint64             `json:"dropped"`   // event deliveries missed by slow listeners
	Banner    Banner             `json:"banner"`
	Message   string             `json:"message"`
	LastEvent *Event             `json:"lastEvent,omitempty"`
}

// describe returns the banner and status line for an event.
func describe(e Event) (Banner, string) {
	switch e.Kind {
	case EventNoFace:
		return BannerIdle, "No face detected"
	case EventUnknown:
		return BannerFail, "❌ No face recognized"
	case EventSuppressed:
		return BannerIdle, fmt.Sprintf("%s | recently marked", who(e.Result))
	case EventMark:
		line := fmt.Sprintf("%s | %s", who(e.Result), orDefault(e.Mark.ServerMessage, "No response"))
		switch e.Mark.Outcome {
		case attendance.Marked:
			return BannerSuccess, "✅ " + line
		case attendance.AlreadyMarked:
			return BannerWarning, "✅ " + line
		default:
			return BannerFail, "❌ " + line
		}
	case EventError:
		return BannerFail, "⚠️ Backend error"
	}
	return BannerIdle, ""
}

func who(r *attendance.Result) string {
	if !r.Known() {
		return "Unknown"
	}
	return fmt.Sprintf("%s (%s) | %.1f%%", r.Identity.DisplayName, r.Identity.PersonID, r.Confidence*100)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
