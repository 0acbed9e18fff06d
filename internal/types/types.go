// Package types provides shared type definitions used across micwire.
package types

import (
	"time"
)

// PipelineState represents the current state of the audio pipeline.
type PipelineState string

const (
	// StateStopped indicates the pipeline is not running.
	StateStopped PipelineState = "stopped"
	// StateStarting indicates the pipeline is resolving devices and opening streams.
	StateStarting PipelineState = "starting"
	// StateRunning indicates audio is flowing through the processing loop.
	StateRunning PipelineState = "running"
	// StateRecovering indicates the pipeline is waiting for a device topology change.
	StateRecovering PipelineState = "recovering"
	// StateRetrying indicates the pipeline is waiting before the next start attempt.
	StateRetrying PipelineState = "retrying"
)

// PipelineStatus contains runtime status for the audio pipeline.
type PipelineStatus struct {
	State         PipelineState `json:"state"`                    // Current pipeline state
	Uptime        string        `json:"uptime,omitempty"`         // Time since the session started
	LastError     string        `json:"last_error,omitempty"`     // Most recent session error
	InputDevice   string        `json:"input_device,omitempty"`   // Resolved capture device name
	OutputDevice  string        `json:"output_device,omitempty"`  // Resolved render device name
	SampleRate    int           `json:"sample_rate,omitempty"`    // Session sample rate in Hz
	DroppedFrames uint64        `json:"dropped_frames,omitempty"` // Frames dropped across both bridges
}

// VersionInfo contains version comparison data.
type VersionInfo struct {
	Current     string `json:"current"`              // Current version
	Latest      string `json:"latest,omitempty"`     // Latest available version
	UpdateAvail bool   `json:"update_available"`     // Update is available
	Commit      string `json:"commit,omitempty"`     // Git commit hash
	BuildTime   string `json:"build_time,omitempty"` // Build timestamp
}

// Audio format constants for the processing pipeline.
const (
	// BlockSize is the number of samples per channel handed to the engine per call.
	BlockSize = 512
	// Channels is the number of audio channels (stereo only).
	Channels = 2
	// BridgeFrames is the capacity of each frame bridge. Four blocks of slack
	// absorbs one assembly cycle of jitter without growing latency unbounded.
	BridgeFrames = 4 * BlockSize
)

const (
	// RetryDelay is the fixed wait between session start attempts after a
	// stream or configuration error.
	RetryDelay = 100 * time.Millisecond
	// DebounceWindow is the interval during which further parameter change
	// signals are absorbed before a single persistence write.
	DebounceWindow = 200 * time.Millisecond
	// WatchPollInterval is how often the device watcher samples the topology.
	WatchPollInterval = 1 * time.Second
	// ShutdownTimeout is the duration to wait for graceful shutdown.
	ShutdownTimeout = 3 * time.Second
)
