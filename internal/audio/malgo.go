package audio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/gen2brain/malgo"

	"github.com/micwire/micwire/internal/util"
)

// ErrDeviceStopped is reported through a stream's ErrorFunc when the
// backend stops the device outside our control (unplugged, format lost).
var ErrDeviceStopped = errors.New("device stopped by backend")

// malgoHost is the production Host over a miniaudio context.
type malgoHost struct {
	ctx *malgo.AllocatedContext

	mu  sync.Mutex
	ids map[string]malgo.DeviceID // display ID -> backend ID, filled on enumeration
}

// NewHost initializes the platform audio backend.
func NewHost() (Host, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, util.WrapError("initialize audio context", err)
	}
	return &malgoHost{
		ctx: ctx,
		ids: make(map[string]malgo.DeviceID),
	}, nil
}

// Close releases the backend context.
func (h *malgoHost) Close() error {
	if err := h.ctx.Uninit(); err != nil {
		return util.WrapError("uninitialize audio context", err)
	}
	h.ctx.Free()
	return nil
}

// deviceType maps a Role to the backend device type.
func deviceType(role Role) malgo.DeviceType {
	if role == Capture {
		return malgo.Capture
	}
	return malgo.Playback
}

// Devices enumerates the endpoints for a role with their native formats.
func (h *malgoHost) Devices(role Role) ([]Device, error) {
	infos, err := h.ctx.Devices(deviceType(role))
	if err != nil {
		return nil, util.WrapError(fmt.Sprintf("enumerate %s devices", role), err)
	}

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, h.toDevice(role, info))
	}
	return devices, nil
}

// DefaultDevice returns the platform default endpoint for a role.
func (h *malgoHost) DefaultDevice(role Role) (Device, error) {
	infos, err := h.ctx.Devices(deviceType(role))
	if err != nil {
		return Device{}, util.WrapError(fmt.Sprintf("enumerate %s devices", role), err)
	}
	for _, info := range infos {
		if info.IsDefault != 0 {
			return h.toDevice(role, info), nil
		}
	}
	return Device{}, fmt.Errorf("no default %s device", role)
}

// toDevice converts backend device info, registering the backend ID for
// later stream opens.
func (h *malgoHost) toDevice(role Role, info malgo.DeviceInfo) Device {
	id := fmt.Sprintf("%x", info.ID)

	h.mu.Lock()
	h.ids[id] = info.ID
	h.mu.Unlock()

	dev := Device{
		ID:        id,
		Name:      info.Name(),
		IsDefault: info.IsDefault != 0,
	}

	// The detailed query exposes the device's native data formats; the
	// first entry is the preferred one.
	if full, err := h.ctx.DeviceInfo(deviceType(role), info.ID, malgo.Shared); err == nil && full.FormatCount > 0 {
		dev.SampleRate = int(full.Formats[0].SampleRate)
		dev.Channels = int(full.Formats[0].Channels)
	}

	return dev
}

// backendID resolves a display ID back to the backend device ID.
func (h *malgoHost) backendID(id string) (malgo.DeviceID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	backend, ok := h.ids[id]
	return backend, ok
}

// malgoStream wraps a backend device as a Stream.
type malgoStream struct {
	device   *malgo.Device
	closed   *atomic.Bool
	stopOnce sync.Once
}

// Start begins callback delivery.
func (s *malgoStream) Start() error {
	return s.device.Start()
}

// Close stops the stream and releases the device.
func (s *malgoStream) Close() error {
	var err error
	s.stopOnce.Do(func() {
		s.closed.Store(true)
		err = s.device.Stop()
		s.device.Uninit()
	})
	return err
}

// OpenCapture opens a capture stream delivering interleaved float32
// samples. The data callback runs on the OS audio thread.
func (h *malgoHost) OpenCapture(dev Device, cfg StreamConfig, onData CaptureFunc, onError ErrorFunc) (Stream, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(cfg.PeriodFrames)
	deviceConfig.Alsa.NoMMap = 1

	if backend, ok := h.backendID(dev.ID); ok {
		deviceConfig.Capture.DeviceID = backend.Pointer()
	}

	closed := new(atomic.Bool)
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			if frameCount == 0 || len(input) == 0 {
				return
			}
			onData(floatSamples(input))
		},
		Stop: func() {
			// Stop also fires during an orderly Close; only unexpected
			// stops are failures.
			if !closed.Load() && onError != nil {
				onError(ErrDeviceStopped)
			}
		},
	}

	device, err := malgo.InitDevice(h.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, util.WrapError("open capture stream", err)
	}
	return &malgoStream{device: device, closed: closed}, nil
}

// OpenRender opens a render stream pulling interleaved float32 samples.
// The data callback runs on the OS audio thread.
func (h *malgoHost) OpenRender(dev Device, cfg StreamConfig, onData RenderFunc, onError ErrorFunc) (Stream, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(cfg.PeriodFrames)
	deviceConfig.Alsa.NoMMap = 1

	if backend, ok := h.backendID(dev.ID); ok {
		deviceConfig.Playback.DeviceID = backend.Pointer()
	}

	closed := new(atomic.Bool)
	callbacks := malgo.DeviceCallbacks{
		Data: func(output, _ []byte, frameCount uint32) {
			if frameCount == 0 || len(output) == 0 {
				return
			}
			onData(floatSamples(output))
		},
		Stop: func() {
			if !closed.Load() && onError != nil {
				onError(ErrDeviceStopped)
			}
		},
	}

	device, err := malgo.InitDevice(h.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, util.WrapError("open render stream", err)
	}
	return &malgoStream{device: device, closed: closed}, nil
}

// floatSamples reinterprets a backend byte buffer as float32 samples.
// The buffer is only valid for the duration of the callback.
func floatSamples(buf []byte) []float32 {
	return unsafe.Slice((*float32)(unsafe.Pointer(&buf[0])), len(buf)/4)
}
