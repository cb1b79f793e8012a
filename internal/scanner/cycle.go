package scanner

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kozaktomas/rollcall/internal/attendance"
	"github.com/kozaktomas/rollcall/internal/camera"
	"github.com/kozaktomas/rollcall/internal/constants"
	"github.com/kozaktomas/rollcall/internal/facematch"
)

// runCycle executes one capture, locate, normalize, recognize and mark pass.
// It returns nil when the source had no frame; otherwise exactly one event.
// A cycle invalidated while recognizing does not start a mark request.
func (l *Loop) runCycle(ctx context.Context, id, gen uint64, session attendance.Session) *Event {
	frame, err := l.cfg.Source.Capture(ctx)
	if err != nil {
		if !errors.Is(err, camera.ErrNoDeviceFrame) {
			l.logger.Warn("capture failed", "cycle", id, "error", err)
		}
		return nil
	}

	event := &Event{ID: uuid.NewString(), Cycle: id, Session: session}

	regions, err := l.cfg.Locator.Locate(ctx, frame)
	if err != nil {
		return l.fail(event, "detect", err)
	}
	event.Faces = len(regions)

	primary, ok := facematch.SelectPrimary(regions, l.cfg.PrimaryFace)
	if !ok {
		return l.finish(event, EventNoFace)
	}

	input, err := l.recognizeInput(frame, primary)
	if err != nil {
		return l.fail(event, "normalize", err)
	}

	result, err := l.cfg.Recognizer.Recognize(ctx, input, session)
	if err != nil {
		return l.fail(event, "recognize", err)
	}
	result.Region = overlayRegion(result.Region, primary)
	event.Result = result

	if !result.Known() {
		return l.finish(event, EventUnknown)
	}

	personID := result.Identity.PersonID
	if !l.cfg.Gate.ShouldAttemptMark(personID) {
		return l.finish(event, EventSuppressed)
	}

	if l.stale(gen) {
		l.logger.Debug("cycle invalidated, mark skipped", "cycle", id, "rollNo", personID)
		return l.finish(event, EventSuppressed)
	}

	mark, err := l.cfg.Marker.Mark(ctx, *result.Identity, session)
	if err != nil {
		return l.fail(event, "mark", err)
	}
	if attendance.ShouldRecord(mark.Outcome) && !l.stale(gen) {
		l.cfg.Gate.RecordMark(personID)
	}
	event.Mark = mark
	return l.finish(event, EventMark)
}

// overlayRegion keeps the recognizer's box when it matches the detected face
// in frame coordinates. Boxes relative to an aligned crop fall back to the
// detector region, which also carries the landmarks.
func overlayRegion(recognized *facematch.Region, primary facematch.Region) *facematch.Region {
	if recognized != nil && recognized.IoU(primary) >= constants.MatchFaceIoU {
		return recognized
	}
	return &primary
}

func (l *Loop) recognizeInput(frame *camera.Frame, primary facematch.Region) ([]byte, error) {
	if l.cfg.RecognizeInput == InputFrame {
		return frame.JPEG()
	}
	face, err := l.cfg.Normalizer.Normalize(frame.Image, primary)
	if err != nil {
		return nil, err
	}
	return face.JPEG()
}

func (l *Loop) finish(e *Event, kind EventKind) *Event {
	e.Kind = kind
	e.At = l.cfg.Now()
	return e
}

func (l *Loop) fail(e *Event, stage string, err error) *Event {
	e.Stage = stage
	e.Error = err.Error()
	e.err = err
	return l.finish(e, EventError)
}
