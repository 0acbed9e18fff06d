// Package audio provides device enumeration, resolution, and stream
// handling for the capture and render endpoints. The platform backend is
// hidden behind the Host interface so the session layer can be exercised
// against fakes.
package audio

// Role selects the direction a device serves.
type Role int

const (
	// Capture identifies input (recording) devices.
	Capture Role = iota
	// Render identifies output (playback) devices.
	Render
)

// String returns the role name for logging.
func (r Role) String() string {
	if r == Capture {
		return "capture"
	}
	return "render"
}

// Device describes an audio endpoint and its native format.
type Device struct {
	// ID is the backend device identifier.
	ID string
	// Name is the device display name.
	Name string
	// SampleRate is the device's native sample rate in Hz.
	SampleRate int
	// Channels is the device's native channel count.
	Channels int
	// IsDefault reports whether this is the platform default for its role.
	IsDefault bool
}

// StreamConfig describes the format a stream is opened with.
type StreamConfig struct {
	// SampleRate in Hz.
	SampleRate int
	// Channels per frame.
	Channels int
	// PeriodFrames is the preferred callback granularity in frames.
	PeriodFrames int
}

// Stream is a startable audio stream bound to one device.
type Stream interface {
	// Start begins callback delivery.
	Start() error
	// Close stops the stream and releases the device.
	Close() error
}

// CaptureFunc receives an interleaved float buffer from the device. It
// runs on the OS audio thread and must never block.
type CaptureFunc func(samples []float32)

// RenderFunc must fill the interleaved float buffer synchronously. It
// runs on the OS audio thread and must never block.
type RenderFunc func(out []float32)

// ErrorFunc is invoked when a running stream fails.
type ErrorFunc func(err error)

// Host abstracts the platform audio backend.
type Host interface {
	// Devices enumerates the endpoints for a role.
	Devices(role Role) ([]Device, error)
	// DefaultDevice returns the platform default endpoint for a role.
	DefaultDevice(role Role) (Device, error)
	// OpenCapture opens a capture stream on dev delivering interleaved
	// samples to onData.
	OpenCapture(dev Device, cfg StreamConfig, onData CaptureFunc, onError ErrorFunc) (Stream, error)
	// OpenRender opens a render stream on dev pulling interleaved samples
	// through onData.
	OpenRender(dev Device, cfg StreamConfig, onData RenderFunc, onError ErrorFunc) (Stream, error)
	// Close releases the backend.
	Close() error
}
