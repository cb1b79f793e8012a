package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/rollcall/internal/attendance"
	"github.com/kozaktomas/rollcall/internal/backend"
	"github.com/kozaktomas/rollcall/internal/camera"
	"github.com/kozaktomas/rollcall/internal/collector"
	"github.com/kozaktomas/rollcall/internal/facematch"
	"github.com/kozaktomas/rollcall/internal/scanner"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeScanner records control calls.
type fakeScanner struct {
	mu       sync.Mutex
	status   scanner.Status
	sessions []attendance.Session
	err      error
	events   scanner.Broadcaster
	history  scanner.History
	pauses   int
	resumes  int
}

func (f *fakeScanner) Status() scanner.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeScanner) SelectSession(_ context.Context, s attendance.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sessions = append(f.sessions, s)
	f.status.Session = s
	if s.Active() {
		f.status.State = scanner.StateArmed
	} else {
		f.status.State = scanner.StateIdle
	}
	return nil
}

func (f *fakeScanner) Pause(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.pauses++
	f.status.Paused = true
	return nil
}

func (f *fakeScanner) Resume(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.resumes++
	f.status.Paused = false
	return nil
}

func (f *fakeScanner) Events() *scanner.Broadcaster { return &f.events }
func (f *fakeScanner) History() *scanner.History    { return &f.history }

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 3), uint8(y * 5), 90, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

type frameSource struct {
	t *testing.T
}

func (s frameSource) Capture(context.Context) (*camera.Frame, error) {
	return camera.DecodeFrame(testJPEG(s.t, 120, 120), 1, time.Now())
}

type oneFace struct{}

func (oneFace) Locate(context.Context, *camera.Frame) ([]facematch.Region, error) {
	return []facematch.Region{{X: 30, Y: 30, Width: 60, Height: 60, Score: 0.95}}, nil
}

type fakeUploader struct {
	mu  sync.Mutex
	err error
	got []string
}

func (u *fakeUploader) Register(_ context.Context, _, _ string, files []backend.SampleFile) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return u.err
	}
	for _, f := range files {
		u.got = append(u.got, f.Filename)
	}
	return nil
}

func (u *fakeUploader) SaveSample(context.Context, backend.SampleFile) error { return u.err }
func (u *fakeUploader) Train(context.Context) error                         { return u.err }

func newTestCollector(t *testing.T, guard *camera.Guard, up *fakeUploader) *collector.Collector {
	t.Helper()
	return collector.New(collector.Config{
		Source:   frameSource{t: t},
		Locator:  oneFace{},
		Uploader: up,
		Guard:    guard,
		Logger:   testLogger(),
	})
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
