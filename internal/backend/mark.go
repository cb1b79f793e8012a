package backend

import (
	"context"
	"net/url"
	"strconv"

	"github.com/kozaktomas/rollcall/internal/attendance"
)

// Marker records attendance for a recognized identity.
type Marker interface {
	Mark(ctx context.Context, identity attendance.Identity, session attendance.Session) (*attendance.MarkEvent, error)
}

// Mark asks the backend to record attendance. A 2xx response is always
// classified into an event; failures to talk to the backend are returned
// as *TransportError.
func (c *Client) Mark(ctx context.Context, identity attendance.Identity, session attendance.Session) (*attendance.MarkEvent, error) {
	session = session.WithDefaults()
	query := url.Values{
		"name":    {identity.DisplayName},
		"rollNo":  {identity.PersonID},
		"lecture": {session.Lecture},
		"slot":    {strconv.Itoa(session.Slot)},
	}

	body, err := c.doPost(ctx, "mark", c.resolveURL("attendance/mark", query))
	if err != nil {
		return nil, err
	}

	outcome, message, reason := attendance.ClassifyMarkResponse(string(body))
	event := &attendance.MarkEvent{
		Identity:      identity,
		Session:       session,
		Outcome:       outcome,
		ServerMessage: message,
		At:            c.now(),
	}
	if reason != nil {
		event.Reason = reason.Error()
		c.logger.Warn("mark response could not be classified",
			"rollNo", identity.PersonID, "lecture", session.Lecture, "error", reason)
	}

	return event, nil
}
