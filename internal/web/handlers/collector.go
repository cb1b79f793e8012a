package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/rollcall/internal/collector"
)

// CollectorHandler serves the training sample collector.
type CollectorHandler struct {
	collector *collector.Collector
	logger    *slog.Logger
}

// NewCollectorHandler creates a new collector handler.
func NewCollectorHandler(c *collector.Collector, logger *slog.Logger) *CollectorHandler {
	return &CollectorHandler{collector: c, logger: logger}
}

// CollectorState is the collector as shown by the kiosk.
type CollectorState struct {
	RollNo     string             `json:"rollNo"`
	Name       string             `json:"name"`
	UploadMode string             `json:"uploadMode"`
	Samples    []collector.Sample `json:"samples"`
}

func (h *CollectorHandler) state() CollectorState {
	rollNo, name := h.collector.Label()
	return CollectorState{
		RollNo:     rollNo,
		Name:       name,
		UploadMode: h.collector.UploadMode(),
		Samples:    h.collector.Samples(),
	}
}

// Get returns the label and the current sample set.
func (h *CollectorHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.state())
}

// LabelRequest sets the person the samples belong to.
type LabelRequest struct {
	RollNo string `json:"rollNo"`
	Name   string `json:"name"`
}

// SetLabel changes the roll number and name, clearing the set on change.
func (h *CollectorHandler) SetLabel(w http.ResponseWriter, r *http.Request) {
	var req LabelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	cleared, err := h.collector.SetLabel(req.RollNo, req.Name)
	if err != nil {
		respondErr(w, err)
		return
	}
	if cleared {
		h.logger.Info("label changed, samples discarded", "rollNo", sanitizeForLog(req.RollNo))
	}
	respondJSON(w, http.StatusOK, h.state())
}

// Capture takes one sample. Fails with 409 while the scanner owns the camera.
func (h *CollectorHandler) Capture(w http.ResponseWriter, r *http.Request) {
	sample, err := h.collector.Capture(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, sample)
}

// Preview returns the JPEG of one sample.
func (h *CollectorHandler) Preview(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sample index")
		return
	}
	sample, err := h.collector.Sample(index)
	if err != nil {
		respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Disposition", `inline; filename="`+sample.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(sample.JPEG())
}

// Discard drops all samples.
func (h *CollectorHandler) Discard(w http.ResponseWriter, r *http.Request) {
	if err := h.collector.Discard(); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.state())
}

// UploadResponse reports an upload.
type UploadResponse struct {
	Uploaded int    `json:"uploaded"`
	Mode     string `json:"mode"`
}

// Upload sends the whole set to the backend. On failure the set is kept.
func (h *CollectorHandler) Upload(w http.ResponseWriter, r *http.Request) {
	count := len(h.collector.Samples())
	if err := h.collector.Upload(r.Context(), nil); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, UploadResponse{Uploaded: count, Mode: h.collector.UploadMode()})
}
