package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/kozaktomas/rollcall/internal/attendance"
	"github.com/kozaktomas/rollcall/internal/backend"
	"github.com/kozaktomas/rollcall/internal/camera"
	"github.com/kozaktomas/rollcall/internal/collector"
	"github.com/kozaktomas/rollcall/internal/config"
	"github.com/kozaktomas/rollcall/internal/detector"
	"github.com/kozaktomas/rollcall/internal/facematch"
	"github.com/kozaktomas/rollcall/internal/scanner"
)

// pipeline holds the remote clients shared by every command.
type pipeline struct {
	cfg        *config.Config
	logger     *slog.Logger
	backend    *backend.Client
	detector   *detector.Client
	normalizer *facematch.Normalizer
}

func newPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline, error) {
	bc, err := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout, logger)
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}
	return &pipeline{
		cfg:        cfg,
		logger:     logger,
		backend:    bc,
		detector:   detector.NewClient(cfg.Detector.URL, cfg.Backend.Timeout, logger),
		normalizer: facematch.NewNormalizer(cfg.Scanner.FaceSize),
	}, nil
}

// scanLoop builds a scan loop reading from source.
func (p *pipeline) scanLoop(source camera.Source, guard *camera.Guard) *scanner.Loop {
	return scanner.New(scanner.Config{
		Source:         source,
		Locator:        p.detector,
		Normalizer:     p.normalizer,
		Recognizer:     p.backend,
		Marker:         p.backend,
		Gate:           attendance.NewDebounceGate(p.cfg.Scanner.DebounceWindow),
		Guard:          guard,
		Interval:       p.cfg.Scanner.Interval,
		PrimaryFace:    p.cfg.Scanner.PrimaryFace,
		RecognizeInput: p.cfg.Scanner.RecognizeInput,
		HasLecture:     p.cfg.Catalogue.HasLecture,
		Logger:         p.logger,
	})
}

// collector builds a sample collector reading from source.
func (p *pipeline) collector(source camera.Source, guard *camera.Guard, uploadMode string) *collector.Collector {
	if uploadMode == "" {
		uploadMode = p.cfg.Collector.UploadMode
	}
	return collector.New(collector.Config{
		Source:      source,
		Locator:     p.detector,
		Normalizer:  p.normalizer,
		Uploader:    p.backend,
		Guard:       guard,
		UploadMode:  uploadMode,
		PrimaryFace: p.cfg.Scanner.PrimaryFace,
		Logger:      p.logger,
	})
}

// lockCamera takes the cross-process camera lock for headless commands.
func lockCamera(cfg *config.Config, logger *slog.Logger) (func(), error) {
	lock := camera.NewDeviceLock(cfg.Camera.LockPath)
	if err := lock.TryLock(); err != nil {
		return nil, err
	}
	logger.Debug("camera lock acquired", "path", lock.Path())
	return func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("camera lock release failed", "error", err)
		}
	}, nil
}

// snapshotSource returns the IP camera source for headless commands.
func snapshotSource(cfg *config.Config, override string, logger *slog.Logger) (*camera.Snapshot, error) {
	url := cfg.Camera.SnapshotURL
	if override != "" {
		url = override
	}
	if url == "" {
		return nil, errors.New("CAMERA_SNAPSHOT_URL or --snapshot-url is required")
	}
	return camera.NewSnapshot(url, logger), nil
}
