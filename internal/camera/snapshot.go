package camera

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/kozaktomas/rollcall/internal/constants"
)

// Snapshot captures by fetching a still image from an IP camera URL.
type Snapshot struct {
	url    string
	client *http.Client
	logger *slog.Logger
	seq    atomic.Uint64
	now    func() time.Time
}

// NewSnapshot creates a snapshot source for the given URL.
func NewSnapshot(url string, logger *slog.Logger) *Snapshot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Snapshot{
		url:    url,
		client: &http.Client{Timeout: constants.SnapshotTimeout},
		logger: logger,
		now:    time.Now,
	}
}

// Capture fetches one snapshot. Every failure is reported as ErrNoDeviceFrame.
func (s *Snapshot) Capture(ctx context.Context) (*Frame, error) {
	if s.url == "" {
		return nil, fmt.Errorf("%w: no snapshot URL configured", ErrNoDeviceFrame)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDeviceFrame, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("snapshot request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrNoDeviceFrame, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: snapshot status %d", ErrNoDeviceFrame, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxFrameBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDeviceFrame, err)
	}

	frame, err := DecodeFrame(data, s.seq.Add(1), s.now())
	if err != nil {
		s.logger.Debug("snapshot not decodable", "error", err, "bytes", len(data))
		return nil, fmt.Errorf("%w: %v", ErrNoDeviceFrame, err)
	}
	return frame, nil
}
