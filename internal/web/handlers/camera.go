package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kozaktomas/rollcall/internal/camera"
	"github.com/kozaktomas/rollcall/internal/constants"
	"github.com/kozaktomas/rollcall/internal/scanner"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = (pongWait * 9) / 10
)

// CameraHandler receives webcam frames from the kiosk page.
type CameraHandler struct {
	push     *camera.Push
	scanner  Scanner
	upgrader websocket.Upgrader
	logger   *slog.Logger

	clients atomic.Int32
	mu      sync.Mutex
	facing  string
}

// NewCameraHandler creates a camera handler. checkOrigin guards websocket
// upgrades; scanner status is pushed to connected pages when s is set.
func NewCameraHandler(push *camera.Push, s Scanner, checkOrigin func(*http.Request) bool, logger *slog.Logger) *CameraHandler {
	return &CameraHandler{
		push:    push,
		scanner: s,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 << 10,
			WriteBufferSize: 4 << 10,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// CameraInfo describes the push source.
type CameraInfo struct {
	Facing  string `json:"facing,omitempty"` // label reported by the page, e.g. "user"
	LastSeq uint64 `json:"lastSeq"`
	Clients int    `json:"clients"`
}

// Info returns the camera source state.
func (h *CameraHandler) Info(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	facing := h.facing
	h.mu.Unlock()
	respondJSON(w, http.StatusOK, CameraInfo{
		Facing:  facing,
		LastSeq: h.push.LastSeq(),
		Clients: int(h.clients.Load()),
	})
}

// FrameAck answers a stored frame.
type FrameAck struct {
	Type   string `json:"type"`
	Seq    uint64 `json:"seq,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Frame stores a single frame uploaded as multipart field "file".
func (h *CameraHandler) Frame(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxFrameBytes+constants.MaxUploadMemory)
	if err := r.ParseMultipartForm(constants.MaxUploadMemory); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, constants.MaxFrameBytes+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read file")
		return
	}
	frame, err := h.push.Put(data)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, FrameAck{Type: "frame", Seq: frame.Seq, Width: frame.Width(), Height: frame.Height()})
}

// controlMessage is a text message sent by the page.
type controlMessage struct {
	Type   string `json:"type"`
	Facing string `json:"facing"`
}

// WebSocket accepts binary JPEG frames and answers each with a FrameAck.
// Text messages of type "facing" record the camera the page uses. Scanner
// status snapshots are pushed after every scan event.
func (h *CameraHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(constants.MaxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.clients.Add(1)
	defer func() {
		if h.clients.Add(-1) == 0 {
			h.push.Reset()
		}
	}()
	h.logger.Info("camera connected", "remote", r.RemoteAddr)

	var eventCh chan scanner.Event
	if h.scanner != nil {
		events := h.scanner.Events()
		eventCh = events.AddListener()
		defer events.RemoveListener(eventCh)
	}

	writeMu := &sync.Mutex{}
	done := make(chan struct{})
	defer close(done)
	go h.pushLoop(conn, writeMu, eventCh, done)

	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			h.logger.Info("camera disconnected", "remote", r.RemoteAddr, "error", err)
			return
		}
		switch messageType {
		case websocket.BinaryMessage:
			ack := FrameAck{Type: "frame"}
			frame, err := h.push.Put(payload)
			if err != nil {
				ack = FrameAck{Type: "error", Error: err.Error()}
			} else {
				ack.Seq, ack.Width, ack.Height = frame.Seq, frame.Width(), frame.Height()
			}
			if err := writeJSON(conn, writeMu, ack); err != nil {
				return
			}
		case websocket.TextMessage:
			var msg controlMessage
			if err := json.Unmarshal(payload, &msg); err != nil || msg.Type != "facing" {
				continue
			}
			h.mu.Lock()
			h.facing = msg.Facing
			h.mu.Unlock()
			h.logger.Info("camera facing changed", "facing", sanitizeForLog(msg.Facing))
		}
	}
}

// pushLoop pings the page and forwards scanner status until done closes.
func (h *CameraHandler) pushLoop(conn *websocket.Conn, writeMu *sync.Mutex, eventCh <-chan scanner.Event, done <-chan struct{}) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := writeMessage(conn, writeMu, websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		case _, ok := <-eventCh:
			if !ok {
				eventCh = nil
				continue
			}
			status := map[string]any{"type": "status", "status": h.scanner.Status()}
			if err := writeJSON(conn, writeMu, status); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, writeMu *sync.Mutex, payload any) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(payload)
}

func writeMessage(conn *websocket.Conn, writeMu *sync.Mutex, messageType int, payload []byte) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, payload)
}
