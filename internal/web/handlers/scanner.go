package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kozaktomas/rollcall/internal/attendance"
	"github.com/kozaktomas/rollcall/internal/config"
	"github.com/kozaktomas/rollcall/internal/constants"
	"github.com/kozaktomas/rollcall/internal/notify"
	"github.com/kozaktomas/rollcall/internal/scanner"
)

// Scanner is the part of the scan loop the kiosk controls.
type Scanner interface {
	Status() scanner.Status
	SelectSession(ctx context.Context, s attendance.Session) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Events() *scanner.Broadcaster
	History() *scanner.History
}

// ScannerHandler serves scanner control, history and notifications.
type ScannerHandler struct {
	scanner       Scanner
	catalogue     config.CatalogueConfig
	notifications *notify.Queue
	logger        *slog.Logger
}

// NewScannerHandler creates a new scanner handler.
func NewScannerHandler(s Scanner, catalogue config.CatalogueConfig, notifications *notify.Queue, logger *slog.Logger) *ScannerHandler {
	return &ScannerHandler{scanner: s, catalogue: catalogue, notifications: notifications, logger: logger}
}

// LecturesResponse lists the selectable lectures. The first entry is always
// the "None" sentinel.
type LecturesResponse struct {
	Slots    int              `json:"slots"`
	Lectures []config.Lecture `json:"lectures"`
}

// Lectures returns the lecture catalogue.
func (h *ScannerHandler) Lectures(w http.ResponseWriter, r *http.Request) {
	lectures := make([]config.Lecture, 0, len(h.catalogue.Lectures)+1)
	lectures = append(lectures, config.Lecture{Code: constants.NoLecture, Title: "No lecture"})
	lectures = append(lectures, h.catalogue.Lectures...)
	respondJSON(w, http.StatusOK, LecturesResponse{Slots: h.catalogue.Slots, Lectures: lectures})
}

// Status returns the scanner state snapshot.
func (h *ScannerHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.scanner.Status())
}

// SessionRequest selects the lecture and slot.
type SessionRequest struct {
	Lecture string `json:"lecture"`
	Slot    int    `json:"slot"`
}

// SelectSession changes the session. Selecting "None" stops scanning.
func (h *ScannerHandler) SelectSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Slot < 0 || (h.catalogue.Slots > 0 && req.Slot > h.catalogue.Slots) {
		respondError(w, http.StatusBadRequest, "slot out of range")
		return
	}

	session := attendance.Session{Lecture: req.Lecture, Slot: req.Slot}.WithDefaults()
	if err := h.scanner.SelectSession(r.Context(), session); err != nil {
		h.logger.Warn("session change rejected", "lecture", sanitizeForLog(session.Lecture), "error", err)
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.scanner.Status())
}

// Pause pauses scanning.
func (h *ScannerHandler) Pause(w http.ResponseWriter, r *http.Request) {
	if err := h.scanner.Pause(r.Context()); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.scanner.Status())
}

// Resume resumes scanning.
func (h *ScannerHandler) Resume(w http.ResponseWriter, r *http.Request) {
	if err := h.scanner.Resume(r.Context()); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.scanner.Status())
}

// Events streams scan events over SSE. Every scan event is followed by a
// fresh status snapshot.
func (h *ScannerHandler) Events(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	// The stream outlives the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	events := h.scanner.Events()
	eventCh := events.AddListener()
	defer events.RemoveListener(eventCh)

	sendSSEEvent(w, flusher, "status", h.scanner.Status())

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, string(event.Kind), event)
			sendSSEEvent(w, flusher, "status", h.scanner.Status())
		}
	}
}

// History returns the newest scan history entries, oldest first.
func (h *ScannerHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := constants.DefaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	respondJSON(w, http.StatusOK, h.scanner.History().Entries(limit))
}

// Notifications returns the notifications that have not yet expired.
func (h *ScannerHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	items := h.notifications.Active()
	if items == nil {
		items = []notify.Notification{}
	}
	respondJSON(w, http.StatusOK, items)
}
