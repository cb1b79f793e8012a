// Package attendance holds the recognition and marking domain: identities,
// lecture sessions, mark outcomes, response classification and the local
// debounce gate.
package attendance

import (
	"strings"
	"time"

	"github.com/kozaktomas/rollcall/internal/constants"
	"github.com/kozaktomas/rollcall/internal/facematch"
)

// Identity is a recognized person. PersonID is the roll number.
type Identity struct {
	PersonID    string `json:"rollNo"`
	DisplayName string `json:"name"`
}

// Session is the lecture and slot attendance is marked for.
type Session struct {
	Lecture string `json:"lecture"`
	Slot    int    `json:"slot"`
}

// Active reports whether the session selects a real lecture.
func (s Session) Active() bool {
	l := strings.TrimSpace(s.Lecture)
	return l != "" && !strings.EqualFold(l, constants.NoLecture)
}

// WithDefaults fills in the default slot.
func (s Session) WithDefaults() Session {
	s.Lecture = strings.TrimSpace(s.Lecture)
	if s.Slot < 1 {
		s.Slot = constants.DefaultSlot
	}
	return s
}

// Candidate is one identity the recognizer considered.
type Candidate struct {
	Identity   Identity `json:"identity"`
	Confidence float64  `json:"confidence"`
}

// Result is the outcome of one recognition call. A nil Identity means the
// face is unknown, which is a successful result.
type Result struct {
	Identity     *Identity         `json:"identity,omitempty"`
	Confidence   float64           `json:"confidence"`
	Region       *facematch.Region `json:"region,omitempty"`
	Alternatives []Candidate       `json:"alternatives,omitempty"`
	Status       string            `json:"status,omitempty"` // free text from the recognizer
}

// Known reports whether the face matched an identity.
func (r *Result) Known() bool {
	return r != nil && r.Identity != nil
}

// Outcome is the classified result of a mark request.
type Outcome string

const (
	Marked        Outcome = "marked"
	AlreadyMarked Outcome = "already_marked"
	Rejected      Outcome = "rejected"
)

// MarkEvent records one mark attempt. It is never mutated after creation.
type MarkEvent struct {
	Identity      Identity  `json:"identity"`
	Session       Session   `json:"session"`
	Outcome       Outcome   `json:"outcome"`
	ServerMessage string    `json:"serverMessage"`
	Reason        string    `json:"reason,omitempty"` // why the response was rejected when unclear
	At            time.Time `json:"at"`
}
