package camera

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// DeviceLock gives one process at a time the camera.
type DeviceLock struct {
	path string
	lock *flock.Flock
}

// NewDeviceLock creates a lock backed by the file at path. An empty path
// uses rollcall-camera.lock in the temp directory.
func NewDeviceLock(path string) *DeviceLock {
	if path == "" {
		path = filepath.Join(os.TempDir(), "rollcall-camera.lock")
	}
	return &DeviceLock{path: path, lock: flock.New(path)}
}

// Path returns the lock file location.
func (l *DeviceLock) Path() string { return l.path }

// TryLock acquires the lock without blocking.
func (l *DeviceLock) TryLock() error {
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire camera lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: lock %s is held by another process", ErrDeviceBusy, l.path)
	}
	return nil
}

// Unlock releases the lock.
func (l *DeviceLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release camera lock: %w", err)
	}
	return nil
}
