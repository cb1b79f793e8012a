// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Scan loop constants
const (
	// DefaultScanInterval is the period between two scan cycles
	DefaultScanInterval = 2 * time.Second

	// DefaultDebounceWindow is the cool-down during which a repeat mark for the
	// same person is suppressed locally
	DefaultDebounceWindow = 10 * time.Second

	// DefaultNotificationTTL is how long a notification stays visible
	DefaultNotificationTTL = 3 * time.Second

	// DefaultSlot is the lecture slot used when none is given
	DefaultSlot = 1

	// NoLecture is the catalogue sentinel meaning "no session selected"
	NoLecture = "None"
)

// Face alignment constants
const (
	// FaceSize is the width and height of an aligned face in pixels
	FaceSize = 160

	// ExpandFactor scales a detected box about its center before cropping
	ExpandFactor = 1.3

	// DetectionThreshold is the minimum detector score for a face to be kept
	DetectionThreshold = 0.6

	// JPEGQuality is used whenever frames or faces are re-encoded
	JPEGQuality = 90

	// DuplicateFaceIoU is the overlap above which a later detection is treated
	// as a second box for an earlier face
	DuplicateFaceIoU = 0.6

	// MatchFaceIoU is the overlap a recognizer box needs with the detected
	// face to replace it as the overlay box
	MatchFaceIoU = 0.3
)

// Camera constants
const (
	// DefaultMaxFrameAge is how old a pushed frame may be before it counts as stale
	DefaultMaxFrameAge = 2 * time.Second

	// SnapshotTimeout bounds a single snapshot fetch so capture never blocks for long
	SnapshotTimeout = 1500 * time.Millisecond

	// MaxFrameBytes limits the size of a single uploaded or fetched frame
	MaxFrameBytes = 8 << 20
)

// Sample collection constants
const (
	// DuplicateHashDistance is the dHash Hamming distance at or below which two
	// consecutive samples are flagged as near-duplicates
	DuplicateHashDistance = 4
)
