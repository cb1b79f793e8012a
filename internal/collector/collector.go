// Package collector builds labelled face sample sets for training and
// uploads them to the backend as one all-or-nothing batch.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/rollcall/internal/backend"
	"github.com/kozaktomas/rollcall/internal/camera"
	"github.com/kozaktomas/rollcall/internal/constants"
	"github.com/kozaktomas/rollcall/internal/detector"
	"github.com/kozaktomas/rollcall/internal/facematch"
	"github.com/kozaktomas/rollcall/internal/fingerprint"
)

// Upload modes.
const (
	ModeRegister = "register" // one combined register request
	ModeTrain    = "train"    // save-sample per sample, then train
)

// GuardOwner is the camera guard owner name used during a capture.
const GuardOwner = "collector"

var (
	ErrEmptySet      = errors.New("no samples captured")
	ErrMissingLabel  = errors.New("roll number and name are required")
	ErrNoFace        = errors.New("no face in frame")
	ErrUploadRunning = errors.New("upload in progress")
	ErrNoSample      = errors.New("no such sample")
)

// Uploader is the backend side of sample upload.
type Uploader interface {
	Register(ctx context.Context, rollNo, name string, files []backend.SampleFile) error
	SaveSample(ctx context.Context, file backend.SampleFile) error
	Train(ctx context.Context) error
}

// Config wires the collector to its collaborators.
type Config struct {
	Source      camera.Source
	Locator     detector.Locator
	Normalizer  *facematch.Normalizer
	Uploader    Uploader
	Guard       *camera.Guard
	UploadMode  string
	PrimaryFace string
	Logger      *slog.Logger
	Now         func() time.Time
}

// Sample is one captured, aligned face.
type Sample struct {
	Index         int       `json:"index"`
	Filename      string    `json:"filename"`
	Hash          string    `json:"hash"`
	NearDuplicate bool      `json:"nearDuplicate"` // looks like the previous sample
	Aligned       bool      `json:"aligned"`
	CapturedAt    time.Time `json:"capturedAt"`

	jpeg []byte
	hash uint64
}

// JPEG returns the encoded face.
func (s Sample) JPEG() []byte { return s.jpeg }

// Progress is called after each finished upload request.
type Progress func(done, total int)

// Collector holds the current sample set for one roll number and name.
type Collector struct {
	cfg    Config
	logger *slog.Logger

	mu        sync.Mutex
	rollNo    string
	name      string
	samples   []Sample
	uploading bool
}

// New creates a collector.
func New(cfg Config) *Collector {
	if cfg.Normalizer == nil {
		cfg.Normalizer = facematch.NewNormalizer(constants.FaceSize)
	}
	if cfg.UploadMode != ModeTrain {
		cfg.UploadMode = ModeRegister
	}
	if cfg.PrimaryFace == "" {
		cfg.PrimaryFace = facematch.PrimaryFirst
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Collector{cfg: cfg, logger: cfg.Logger.With("component", "collector")}
}

// SetLabel sets the roll number and name. Changing either discards the
// current set, since its filenames belong to the old label.
func (c *Collector) SetLabel(rollNo, name string) (cleared bool, err error) {
	rollNo, name = strings.TrimSpace(rollNo), strings.TrimSpace(name)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.uploading {
		return false, ErrUploadRunning
	}
	if rollNo == c.rollNo && name == c.name {
		return false, nil
	}
	cleared = len(c.samples) > 0
	c.rollNo, c.name = rollNo, name
	c.samples = nil
	return cleared, nil
}

// Label returns the current roll number and name.
func (c *Collector) Label() (rollNo, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rollNo, c.name
}

// Samples returns the current set in capture order.
func (c *Collector) Samples() []Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Sample, len(c.samples))
	copy(out, c.samples)
	return out
}

// Sample returns the sample with the given 1-based index.
func (c *Collector) Sample(index int) (Sample, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 1 || index > len(c.samples) {
		return Sample{}, fmt.Errorf("%w: %d", ErrNoSample, index)
	}
	return c.samples[index-1], nil
}

// Discard drops the current set.
func (c *Collector) Discard() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uploading {
		return ErrUploadRunning
	}
	c.samples = nil
	return nil
}

// Filename returns the training filename for a 1-based sample index.
func Filename(rollNo, name string, index int) string {
	return fmt.Sprintf("%s_%s_%02d.jpg", facematch.FilenameToken(rollNo), facematch.FilenameToken(name), index)
}

// Capture runs one capture, locate and normalize pass and appends the face
// to the set. The camera must not be owned by the scanner.
func (c *Collector) Capture(ctx context.Context) (*Sample, error) {
	c.mu.Lock()
	rollNo, name, uploading := c.rollNo, c.name, c.uploading
	c.mu.Unlock()

	if uploading {
		return nil, ErrUploadRunning
	}
	if rollNo == "" || name == "" {
		return nil, ErrMissingLabel
	}

	if c.cfg.Guard != nil {
		release, err := c.cfg.Guard.Acquire(GuardOwner)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	frame, err := c.cfg.Source.Capture(ctx)
	if err != nil {
		return nil, err
	}

	regions, err := c.cfg.Locator.Locate(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	primary, ok := facematch.SelectPrimary(regions, c.cfg.PrimaryFace)
	if !ok {
		return nil, ErrNoFace
	}

	face, err := c.cfg.Normalizer.Normalize(frame.Image, primary)
	if err != nil {
		return nil, fmt.Errorf("normalize face: %w", err)
	}
	data, err := face.JPEG()
	if err != nil {
		return nil, err
	}
	hash := fingerprint.DHash(face.Image)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rollNo != rollNo || c.name != name {
		return nil, errors.New("label changed during capture")
	}
	// An upload started while this capture ran has already taken its
	// snapshot of the set.
	if c.uploading {
		return nil, ErrUploadRunning
	}

	sample := Sample{
		Index:      len(c.samples) + 1,
		Hash:       fingerprint.Hex(hash),
		Aligned:    face.Aligned,
		CapturedAt: c.cfg.Now(),
		jpeg:       data,
		hash:       hash,
	}
	sample.Filename = Filename(rollNo, name, sample.Index)
	if n := len(c.samples); n > 0 {
		prev := c.samples[n-1]
		sample.NearDuplicate = fingerprint.Similar(prev.hash, hash, constants.DuplicateHashDistance)
	}
	c.samples = append(c.samples, sample)

	if sample.NearDuplicate {
		c.logger.Warn("sample looks like the previous one", "filename", sample.Filename, "hash", sample.Hash)
	}
	c.logger.Info("sample captured", "filename", sample.Filename, "aligned", sample.Aligned)
	return &sample, nil
}

// Upload sends every sample followed by one train or register request. The
// set is cleared only when all requests succeed.
func (c *Collector) Upload(ctx context.Context, progress Progress) error {
	c.mu.Lock()
	if c.uploading {
		c.mu.Unlock()
		return ErrUploadRunning
	}
	if c.rollNo == "" || c.name == "" {
		c.mu.Unlock()
		return ErrMissingLabel
	}
	if len(c.samples) == 0 {
		c.mu.Unlock()
		return ErrEmptySet
	}
	rollNo, name := c.rollNo, c.name
	files := make([]backend.SampleFile, len(c.samples))
	for i, s := range c.samples {
		files[i] = backend.SampleFile{Filename: s.Filename, Data: s.jpeg}
	}
	c.uploading = true
	c.mu.Unlock()

	err := c.upload(ctx, rollNo, name, files, progress)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploading = false
	if err != nil {
		c.logger.Error("sample upload failed, keeping samples", "rollNo", rollNo, "samples", len(files), "error", err)
		return err
	}
	c.samples = nil
	c.logger.Info("samples uploaded", "rollNo", rollNo, "samples", len(files), "mode", c.cfg.UploadMode)
	return nil
}

func (c *Collector) upload(ctx context.Context, rollNo, name string, files []backend.SampleFile, progress Progress) error {
	if progress == nil {
		progress = func(int, int) {}
	}

	if c.cfg.UploadMode == ModeRegister {
		if err := c.cfg.Uploader.Register(ctx, rollNo, name, files); err != nil {
			return fmt.Errorf("register samples: %w", err)
		}
		progress(1, 1)
		return nil
	}

	total := len(files) + 1
	for i, f := range files {
		if err := c.cfg.Uploader.SaveSample(ctx, f); err != nil {
			return fmt.Errorf("save sample %s: %w", f.Filename, err)
		}
		progress(i+1, total)
	}
	if err := c.cfg.Uploader.Train(ctx); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	progress(total, total)
	return nil
}

// UploadMode returns the configured upload protocol.
func (c *Collector) UploadMode() string {
	return c.cfg.UploadMode
}

// SaveTo writes the current samples into dir and returns the written paths.
func (c *Collector) SaveTo(dir string) ([]string, error) {
	samples := c.Samples()
	if len(samples) == 0 {
		return nil, ErrEmptySet
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create %s: %w", dir, err)
	}
	paths := make([]string, 0, len(samples))
	for _, s := range samples {
		path := filepath.Join(dir, s.Filename)
		if err := os.WriteFile(path, s.jpeg, 0o644); err != nil {
			return paths, fmt.Errorf("could not write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
