package camera

import (
	"context"
	"sync"
	"time"

	"github.com/kozaktomas/rollcall/internal/constants"
)

// Push holds the latest frame delivered by a client (the kiosk page's
// webcam). New frames overwrite the previous one; nothing is queued.
type Push struct {
	mu     sync.Mutex
	latest *Frame
	seq    uint64
	maxAge time.Duration
	now    func() time.Time
}

// NewPush creates a push source. Frames older than maxAge are not served.
func NewPush(maxAge time.Duration) *Push {
	if maxAge <= 0 {
		maxAge = constants.DefaultMaxFrameAge
	}
	return &Push{maxAge: maxAge, now: time.Now}
}

// Put decodes and stores a frame, replacing the previous one.
func (p *Push) Put(data []byte) (*Frame, error) {
	frame, err := DecodeFrame(data, 0, p.now())
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	frame.Seq = p.seq
	p.latest = frame
	return frame, nil
}

// Capture returns the latest frame when it is fresh enough.
func (p *Push) Capture(_ context.Context) (*Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.latest == nil || p.now().Sub(p.latest.CapturedAt) > p.maxAge {
		return nil, ErrNoDeviceFrame
	}
	return p.latest, nil
}

// LastSeq returns the sequence number of the newest stored frame.
func (p *Push) LastSeq() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq
}

// Reset drops the stored frame, e.g. when the delivering client disconnects.
func (p *Push) Reset() {
	p.mu.Lock()
	p.latest = nil
	p.mu.Unlock()
}
