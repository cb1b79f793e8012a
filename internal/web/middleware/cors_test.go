package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOrigins_Allowed(t *testing.T) {
	origins := NewOrigins([]string{"https://kiosk.school.example/", " "})

	tests := []struct {
		origin   string
		expected bool
	}{
		{"", false},
		{"http://localhost:5173", true},
		{"http://localhost", true},
		{"https://127.0.0.1:8443", true},
		{"http://localhost.evil.example", false},
		{"https://kiosk.school.example", true},
		{"https://other.example", false},
		{"ftp://localhost", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			if got := origins.Allowed(tt.origin); got != tt.expected {
				t.Errorf("Allowed(%q) = %v, want %v", tt.origin, got, tt.expected)
			}
		})
	}
}

func TestOrigins_CheckOrigin(t *testing.T) {
	origins := NewOrigins(nil)

	tests := []struct {
		name     string
		host     string
		origin   string
		expected bool
	}{
		{"no origin", "kiosk:8090", "", true},
		{"same host", "kiosk:8090", "http://kiosk:8090", true},
		{"foreign", "kiosk:8090", "https://evil.example", false},
		{"localhost", "kiosk:8090", "http://localhost:3000", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/camera/ws", nil)
			req.Host = tt.host
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := origins.CheckOrigin(req); got != tt.expected {
				t.Errorf("CheckOrigin() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	called := false
	handler := CORS(NewOrigins(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/scanner", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", rec.Code)
	}
	if called {
		t.Error("expected preflight not to reach the handler")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("expected origin echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/scanner", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("expected GET to reach the handler")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header for foreign origin, got %q", got)
	}
}

func TestNoStore(t *testing.T) {
	handler := NoStore()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("expected no-store, got %q", rec.Header().Get("Cache-Control"))
	}
}
