// Package constants provides shared constants used across the codebase.
package constants

// Handler constants
const (
	// DefaultHistoryLimit is the default number of history entries returned by the API
	DefaultHistoryLimit = 100

	// MaxUploadMemory is the multipart memory budget for frame uploads
	MaxUploadMemory = 10 << 20
)

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for event channels
	EventChannelBuffer = 100
)

// Backend client constants
const (
	// MaxErrorBody limits how much of a failed response is kept for the error
	MaxErrorBody = 4 << 10
)
