package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/rollcall/internal/constants"
)

//go:embed lectures.yaml
var lecturesYAML []byte

type Config struct {
	Backend   BackendConfig
	Detector  DetectorConfig
	Camera    CameraConfig
	Scanner   ScannerConfig
	Collector CollectorConfig
	Web       WebConfig
	Log       LogConfig
	Catalogue CatalogueConfig
}

type BackendConfig struct {
	URL     string        // attendance backend base URL including the /api prefix
	Timeout time.Duration // transport timeout for a single request
}

type DetectorConfig struct {
	URL string // defaults to http://localhost:8000
}

type CameraConfig struct {
	SnapshotURL string        // JPEG snapshot endpoint used by the headless commands
	MaxFrameAge time.Duration // frames pushed by the browser older than this are stale
	LockPath    string        // flock file guarding the physical device
}

type ScannerConfig struct {
	Interval        time.Duration
	DebounceWindow  time.Duration
	NotificationTTL time.Duration
	PrimaryFace     string // "first" or "confidence"
	RecognizeInput  string // "aligned" or "frame"
	FaceSize        int
}

type CollectorConfig struct {
	UploadMode string // "register" or "train"
}

type WebConfig struct {
	AllowedOrigins []string // extra CORS origins; localhost is always allowed
}

type LogConfig struct {
	Level  string
	Format string
}

type CatalogueConfig struct {
	Slots    int       `yaml:"slots"`
	Lectures []Lecture `yaml:"lectures"`
}

type Lecture struct {
	Code  string `yaml:"code" json:"code"`
	Title string `yaml:"title" json:"title"`
}

// HasLecture reports whether code is part of the catalogue.
// An empty catalogue accepts every lecture.
func (c *CatalogueConfig) HasLecture(code string) bool {
	if len(c.Lectures) == 0 {
		return true
	}
	return slices.ContainsFunc(c.Lectures, func(l Lecture) bool {
		return strings.EqualFold(l.Code, code)
	})
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envDuration reads a Go duration ("1500ms", "2s"). Bare integers are seconds.
// Returns the default value if the env var is unset, invalid, or not positive.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n > 0 {
			return time.Duration(n) * time.Second
		}
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

// envChoice returns the lower-cased env value when it is one of allowed.
func envChoice(key, defaultVal string, allowed ...string) string {
	s := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if slices.Contains(allowed, s) {
		return s
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma-separated env value, dropping empty items.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	var catalogue CatalogueConfig
	if err := yaml.Unmarshal(lecturesYAML, &catalogue); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded lectures.yaml: " + err.Error())
	}
	if catalogue.Slots <= 0 {
		catalogue.Slots = 1
	}

	return &Config{
		Backend: BackendConfig{
			URL:     strings.TrimSuffix(envString("BACKEND_URL", "http://localhost:8080/api"), "/"),
			Timeout: envDuration("BACKEND_TIMEOUT", 15*time.Second),
		},
		Detector: DetectorConfig{
			URL: envString("DETECTOR_URL", "http://localhost:8000"),
		},
		Camera: CameraConfig{
			SnapshotURL: os.Getenv("CAMERA_SNAPSHOT_URL"),
			MaxFrameAge: envDuration("CAMERA_MAX_FRAME_AGE", constants.DefaultMaxFrameAge),
			LockPath:    envString("CAMERA_LOCK_PATH", filepath.Join(os.TempDir(), "rollcall-camera.lock")),
		},
		Scanner: ScannerConfig{
			Interval:        envDuration("SCAN_INTERVAL", constants.DefaultScanInterval),
			DebounceWindow:  envDuration("DEBOUNCE_WINDOW", constants.DefaultDebounceWindow),
			NotificationTTL: envDuration("NOTIFICATION_TTL", constants.DefaultNotificationTTL),
			PrimaryFace:     envChoice("PRIMARY_FACE", "first", "first", "confidence"),
			RecognizeInput:  envChoice("RECOGNIZE_INPUT", "aligned", "aligned", "frame"),
			FaceSize:        envInt("FACE_SIZE", constants.FaceSize),
		},
		Collector: CollectorConfig{
			UploadMode: envChoice("SAMPLE_UPLOAD_MODE", "register", "register", "train"),
		},
		Web: WebConfig{
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "console"),
		},
		Catalogue: catalogue,
	}
}
