// Package camera provides the frame sources the scanner and the sample
// collector capture from, plus the exclusivity primitives that keep them
// from using the device at the same time.
package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/rollcall/internal/constants"
)

var (
	// ErrNoDeviceFrame means the source has no ready frame right now.
	// Callers treat it as a silent skip.
	ErrNoDeviceFrame = errors.New("no device frame available")

	// ErrDeviceBusy means another owner holds the camera.
	ErrDeviceBusy = errors.New("camera is in use")
)

// Frame is a single decoded capture. Width and height derive from the image.
type Frame struct {
	Seq        uint64
	CapturedAt time.Time
	Image      image.Image
	Encoded    []byte // original bytes, kept when they are already JPEG
}

// Source yields the most recent frame. Capture must not block waiting for a
// frame; it fails with ErrNoDeviceFrame instead.
type Source interface {
	Capture(ctx context.Context) (*Frame, error)
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.Image.Bounds().Dx() }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.Image.Bounds().Dy() }

// JPEG returns the frame as JPEG bytes, re-encoding only when the source
// delivered another format.
func (f *Frame) JPEG() ([]byte, error) {
	if isJPEG(f.Encoded) {
		return f.Encoded, nil
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, f.Image, &jpeg.Options{Quality: constants.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeFrame decodes JPEG, PNG, GIF, BMP or WebP bytes into a frame.
func DecodeFrame(data []byte, seq uint64, capturedAt time.Time) (*Frame, error) {
	if len(data) == 0 {
		return nil, errors.New("empty frame")
	}
	if len(data) > constants.MaxFrameBytes {
		return nil, fmt.Errorf("frame too large (%d bytes)", len(data))
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.New("frame has no pixels")
	}
	frame := &Frame{Seq: seq, CapturedAt: capturedAt, Image: img}
	if isJPEG(data) {
		frame.Encoded = data
	}
	return frame, nil
}

func isJPEG(data []byte) bool {
	return len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF
}
