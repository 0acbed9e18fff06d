package server

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/micwire/micwire/internal/audio"
	"github.com/micwire/micwire/internal/engine"
	"github.com/micwire/micwire/internal/params"
	"github.com/micwire/micwire/internal/types"
)

// WSCommand is a command received from a WebSocket client.
type WSCommand struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Pipeline is the supervisor surface the command handler drives.
type Pipeline interface {
	Status() types.PipelineStatus
	Restart()
}

// CommandHandler processes WebSocket commands.
type CommandHandler struct {
	store    *params.Store
	adapter  *engine.Adapter
	pipeline Pipeline
	host     audio.Host
}

// NewCommandHandler creates a new command handler.
func NewCommandHandler(store *params.Store, adapter *engine.Adapter, pipeline Pipeline, host audio.Host) *CommandHandler {
	return &CommandHandler{
		store:    store,
		adapter:  adapter,
		pipeline: pipeline,
		host:     host,
	}
}

// Handle processes a WebSocket command and performs the requested action.
// Commands use slash-style format: namespace/action (e.g., "params/update")
func (h *CommandHandler) Handle(cmd WSCommand, send chan<- any, triggerStatusUpdate func()) {
	parts := strings.SplitN(cmd.Type, "/", 2)
	namespace := parts[0]
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	switch namespace {
	case "params":
		h.handleParams(action, cmd, send)
	case "devices":
		h.handleDevices(action, cmd, send)
	case "pipeline":
		h.handlePipeline(action, cmd, send)
	case "status":
		h.handleStatus(action)
	default:
		slog.Warn("unknown WebSocket command", "type", cmd.Type)
	}

	triggerStatusUpdate()
}

// --- Namespace handlers ---

// handleParams routes params/* commands
func (h *CommandHandler) handleParams(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "update":
		h.handleParamsUpdate(cmd, send)
	case "get":
		SendSuccess(send, cmd.Type, h.ParameterValues())
	default:
		slog.Warn("unknown params action", "action", action)
	}
}

// handleDevices routes devices/* commands
func (h *CommandHandler) handleDevices(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "list":
		h.handleDevicesList(cmd, send)
	case "update":
		h.handleDevicesUpdate(cmd, send)
	default:
		slog.Warn("unknown devices action", "action", action)
	}
}

// handlePipeline routes pipeline/* commands
func (h *CommandHandler) handlePipeline(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "restart":
		h.pipeline.Restart()
		SendSuccess(send, cmd.Type, nil)
	default:
		slog.Warn("unknown pipeline action", "action", action)
	}
}

// handleStatus routes status/* commands
func (h *CommandHandler) handleStatus(action string) {
	switch action {
	case "get":
		// Status is pushed by the event loop; the trailing trigger in
		// Handle forces an immediate update.
	default:
		slog.Warn("unknown status action", "action", action)
	}
}

// --- Command implementations ---

// handleParamsUpdate processes a params/update command. Each supplied
// field is written to the store and forwarded into the engine; omitted
// fields are untouched.
func (h *CommandHandler) handleParamsUpdate(cmd WSCommand, send chan<- any) {
	HandleCommand(cmd, send, func(req *ParamsUpdateRequest) error {
		edits := []struct {
			id    params.ID
			value *float32
		}{
			{params.SidechainHPF, req.SidechainHPF},
			{params.InputLevel, req.InputLevel},
			{params.Sensitivity, req.Sensitivity},
			{params.Ratio, req.Ratio},
			{params.Attack, req.Attack},
			{params.Release, req.Release},
			{params.Makeup, req.Makeup},
			{params.Mix, req.Mix},
			{params.OutputLevel, req.OutputLevel},
			{params.Sidechain, req.Sidechain},
			{params.FullBandwidth, req.FullBandwidth},
		}

		for _, e := range edits {
			if e.value == nil {
				continue
			}
			if err := h.store.Set(e.id, *e.value); err != nil {
				return err
			}
			h.adapter.SetParameter(e.id, *e.value)
		}
		return nil
	})
}

// handleDevicesList processes a devices/list command.
func (h *CommandHandler) handleDevicesList(cmd WSCommand, send chan<- any) {
	devices, err := h.DeviceList()
	if err != nil {
		SendError(send, cmd.Type, err)
		return
	}
	SendSuccess(send, cmd.Type, devices)
}

// handleDevicesUpdate processes a devices/update command. A changed
// selection restarts the pipeline so the new device takes effect.
func (h *CommandHandler) handleDevicesUpdate(cmd WSCommand, send chan<- any) {
	HandleCommand(cmd, send, func(req *DevicesUpdateRequest) error {
		currentIn, currentOut := h.store.Devices()
		changed := false

		if req.InputDevice != nil && *req.InputDevice != currentIn {
			slog.Info("devices/update: changing input selection", "input", *req.InputDevice)
			h.store.SetInputDevice(*req.InputDevice)
			changed = true
		}
		if req.OutputDevice != nil && *req.OutputDevice != currentOut {
			slog.Info("devices/update: changing output selection", "output", *req.OutputDevice)
			h.store.SetOutputDevice(*req.OutputDevice)
			changed = true
		}

		if changed {
			h.pipeline.Restart()
		}
		return nil
	})
}

// --- Shared builders ---

// ParameterValues returns the current parameter set keyed by field name.
func (h *CommandHandler) ParameterValues() map[string]float32 {
	values := make(map[string]float32, params.Count)
	for id := params.ID(0); id.Valid(); id++ {
		values[id.String()] = h.store.Get(id)
	}
	return values
}

// DeviceList enumerates both device roles for clients.
func (h *CommandHandler) DeviceList() (types.WSDevicesResponse, error) {
	inputs, err := h.host.Devices(audio.Capture)
	if err != nil {
		return types.WSDevicesResponse{}, err
	}
	outputs, err := h.host.Devices(audio.Render)
	if err != nil {
		return types.WSDevicesResponse{}, err
	}

	return types.WSDevicesResponse{
		Type:    "devices",
		Inputs:  deviceEntries(inputs),
		Outputs: deviceEntries(outputs),
	}, nil
}

func deviceEntries(devices []audio.Device) []types.DeviceEntry {
	entries := make([]types.DeviceEntry, 0, len(devices))
	for _, d := range devices {
		entries = append(entries, types.DeviceEntry{
			Name:       d.Name,
			SampleRate: d.SampleRate,
			Channels:   d.Channels,
			IsDefault:  d.IsDefault,
		})
	}
	return entries
}
