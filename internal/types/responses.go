package types

// DeviceEntry describes one audio endpoint in a devices/list response.
type DeviceEntry struct {
	Name       string `json:"name"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
	IsDefault  bool   `json:"is_default"`
}

// WSStatusResponse is the periodic status message pushed to WebSocket
// clients and the body of /api/status.
type WSStatusResponse struct {
	Type         string             `json:"type"` // "status"
	Pipeline     PipelineStatus     `json:"pipeline"`
	Parameters   map[string]float32 `json:"parameters"`
	InputDevice  string             `json:"input_device"`
	OutputDevice string             `json:"output_device"`
	Version      any                `json:"version,omitempty"`
}

// WSDevicesResponse is sent in response to devices/list and is the body
// of /api/devices.
type WSDevicesResponse struct {
	Type    string        `json:"type"` // "devices"
	Inputs  []DeviceEntry `json:"inputs"`
	Outputs []DeviceEntry `json:"outputs"`
}
