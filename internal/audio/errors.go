package audio

import "errors"

// Sentinel errors for device resolution and validation. Device absence is
// recoverable by waiting for a topology change; configuration mismatches
// are recoverable by retrying after the user changes a selection.
var (
	// ErrNoInputDevice is returned when no capture device matches the selection.
	ErrNoInputDevice = errors.New("input device not found")
	// ErrNoOutputDevice is returned when no render device matches the selection.
	ErrNoOutputDevice = errors.New("output device not found")
	// ErrInvalidConfiguration is returned when a resolved device pair cannot
	// be used together (sample rate mismatch, non-stereo channel count).
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
