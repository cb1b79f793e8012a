package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNewConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("cycle completed", "lecture", "COA", "took", 1500*time.Millisecond)
	logger.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "cycle completed") {
		t.Errorf("expected level and message in output, got %q", out)
	}
	if !strings.Contains(out, "lecture=COA") {
		t.Errorf("expected lecture attr, got %q", out)
	}
	if !strings.Contains(out, "took=1.5s") {
		t.Errorf("expected rounded duration, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug record must be filtered at info level")
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("buffer output must not be colorized")
	}
}

func TestNewConsoleQuotesAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.WithGroup("scanner").With("state", "armed").Debug("tick", "message", "already marked")

	out := buf.String()
	if !strings.Contains(out, "scanner.state=armed") {
		t.Errorf("expected grouped attr, got %q", out)
	}
	if !strings.Contains(out, `scanner.message="already marked"`) {
		t.Errorf("expected quoted value, got %q", out)
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("ignored")
	logger.Warn("backend unreachable", "status", 502)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected a single JSON record, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "backend unreachable" {
		t.Errorf("unexpected msg %v", record["msg"])
	}
}

func TestNewUnsupportedFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
