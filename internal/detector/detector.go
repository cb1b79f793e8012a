// Package detector locates faces in frames using a remote InsightFace-style
// detection service.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/kozaktomas/rollcall/internal/camera"
	"github.com/kozaktomas/rollcall/internal/constants"
	"github.com/kozaktomas/rollcall/internal/facematch"
)

const defaultDetectorURL = "http://localhost:8000"

// Locator finds face regions in a frame.
type Locator interface {
	Locate(ctx context.Context, frame *camera.Frame) ([]facematch.Region, error)
}

// Client talks to the detection service.
type Client struct {
	baseURL   string
	threshold float64
	client    *http.Client
	logger    *slog.Logger
}

// NewClient creates a detector client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultDetectorURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		threshold: constants.DetectionThreshold,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// faceDetection represents a single detected face
type faceDetection struct {
	FaceIndex int         `json:"face_index"`
	BBox      []float64   `json:"bbox"` // [x1, y1, x2, y2]
	DetScore  float64     `json:"det_score"`
	Kps       [][]float64 `json:"kps"`
	Landmarks [][]float64 `json:"landmarks"`
}

// faceResponse represents the response from the face endpoint
type faceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
	Model      string          `json:"model"`
}

// Locate detects faces in the frame. Faces below the detection threshold,
// without a usable box, or overlapping an earlier face are dropped; the rest
// keep detector order and are clamped to the frame. No faces is an empty, non-nil slice.
func (c *Client) Locate(ctx context.Context, frame *camera.Frame) ([]facematch.Region, error) {
	data, err := frame.JPEG()
	if err != nil {
		return nil, err
	}

	body, err := c.postMultipartImage(ctx, "/embed/face", data)
	if err != nil {
		return nil, err
	}

	var resp faceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse detector response: %w", err)
	}

	regions := make([]facematch.Region, 0, len(resp.Faces))
	bounds := frame.Image.Bounds()
	for _, face := range resp.Faces {
		if face.DetScore < c.threshold {
			continue
		}
		region, ok := facematch.RegionFromCorners(face.BBox)
		if !ok {
			c.logger.Debug("dropping face with invalid box", "bbox", face.BBox)
			continue
		}
		region.Score = face.DetScore
		region.Landmarks = toPoints(face.Kps)
		if region.Landmarks == nil {
			region.Landmarks = toPoints(face.Landmarks)
		}
		region, ok = region.ClampTo(bounds)
		if !ok {
			c.logger.Debug("dropping face outside frame", "bbox", face.BBox)
			continue
		}
		if overlapsKept(regions, region) {
			c.logger.Debug("dropping duplicate face box", "bbox", face.BBox)
			continue
		}
		regions = append(regions, region)
	}

	return regions, nil
}

// overlapsKept reports whether r is a second box for a face already kept.
func overlapsKept(kept []facematch.Region, r facematch.Region) bool {
	for _, k := range kept {
		if k.IoU(r) > constants.DuplicateFaceIoU {
			return true
		}
	}
	return false
}

func toPoints(raw [][]float64) []facematch.Point {
	if len(raw) == 0 {
		return nil
	}
	points := make([]facematch.Point, 0, len(raw))
	for _, p := range raw {
		if len(p) < 2 {
			return nil
		}
		points = append(points, facematch.Point{X: p[0], Y: p[1]})
	}
	return points
}

// postMultipartImage posts the image as form field "file" and returns the response body.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="frame.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detector request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}
