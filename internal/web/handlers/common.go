// Package handlers implements the kiosk HTTP API.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/kozaktomas/rollcall/internal/backend"
	"github.com/kozaktomas/rollcall/internal/camera"
	"github.com/kozaktomas/rollcall/internal/collector"
	"github.com/kozaktomas/rollcall/internal/scanner"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, camera.ErrDeviceBusy),
		errors.Is(err, collector.ErrUploadRunning):
		return http.StatusConflict
	case errors.Is(err, camera.ErrNoDeviceFrame):
		return http.StatusServiceUnavailable
	case errors.Is(err, collector.ErrMissingLabel),
		errors.Is(err, collector.ErrEmptySet),
		errors.Is(err, scanner.ErrUnknownLecture):
		return http.StatusBadRequest
	case errors.Is(err, collector.ErrNoFace):
		return http.StatusUnprocessableEntity
	case errors.Is(err, collector.ErrNoSample):
		return http.StatusNotFound
	case errors.Is(err, scanner.ErrStopped):
		return http.StatusServiceUnavailable
	case backend.IsTransportError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondErr sends err with the status derived from its type.
func respondErr(w http.ResponseWriter, err error) {
	respondError(w, statusForError(err), err.Error())
}

// sendSSEEvent writes one server-sent event and flushes it.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
