package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/rollcall/internal/attendance"
	"github.com/kozaktomas/rollcall/internal/camera"
	"github.com/kozaktomas/rollcall/internal/collector"
	"github.com/kozaktomas/rollcall/internal/config"
	"github.com/kozaktomas/rollcall/internal/notify"
	"github.com/kozaktomas/rollcall/internal/scanner"
)

type stubScanner struct {
	events  scanner.Broadcaster
	history scanner.History
}

func (s *stubScanner) Status() scanner.Status {
	return scanner.Status{State: scanner.StateIdle}
}
func (s *stubScanner) SelectSession(context.Context, attendance.Session) error { return nil }
func (s *stubScanner) Pause(context.Context) error                             { return nil }
func (s *stubScanner) Resume(context.Context) error                            { return nil }
func (s *stubScanner) Events() *scanner.Broadcaster                            { return &s.events }
func (s *stubScanner) History() *scanner.History                               { return &s.history }

func newTestServer() *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Catalogue: config.CatalogueConfig{Slots: 2, Lectures: []config.Lecture{{Code: "COA"}}},
		Web:       config.WebConfig{AllowedOrigins: []string{"https://kiosk.example"}},
	}
	deps := Deps{
		Scanner:       &stubScanner{},
		Collector:     collector.New(collector.Config{Logger: logger}),
		Notifications: notify.NewQueue(time.Second, logger),
		Push:          camera.NewPush(time.Second),
		Logger:        logger,
	}
	return NewServer(cfg, deps, 0, "127.0.0.1")
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		method   string
		path     string
		body     string
		expected int
	}{
		{http.MethodGet, "/api/v1/health", "", http.StatusOK},
		{http.MethodGet, "/api/v1/lectures", "", http.StatusOK},
		{http.MethodGet, "/api/v1/scanner", "", http.StatusOK},
		{http.MethodPut, "/api/v1/scanner/session", `{"lecture":"COA","slot":1}`, http.StatusOK},
		{http.MethodPost, "/api/v1/scanner/pause", "", http.StatusOK},
		{http.MethodGet, "/api/v1/notifications", "", http.StatusOK},
		{http.MethodGet, "/api/v1/history", "", http.StatusOK},
		{http.MethodGet, "/api/v1/camera", "", http.StatusOK},
		{http.MethodGet, "/api/v1/collector", "", http.StatusOK},
		{http.MethodPost, "/api/v1/collector/upload", "", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/photos", "", http.StatusNotFound},
		{http.MethodDelete, "/api/v1/scanner", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			s.Router().ServeHTTP(rec, req)

			if rec.Code != tt.expected {
				t.Errorf("expected status %d, got %d: %s", tt.expected, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestServer_Middleware(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scanner", nil)
	req.Header.Set("Origin", "https://kiosk.example")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://kiosk.example" {
		t.Errorf("expected configured origin to be allowed, got %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("expected no-store, got %q", got)
	}

	var status scanner.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to unmarshal status: %v", err)
	}
	if status.State != scanner.StateIdle {
		t.Errorf("expected idle, got %s", status.State)
	}
}
