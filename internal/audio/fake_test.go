package audio

import (
	"errors"
	"sync"
)

// fakeHost is an in-memory Host with a mutable device topology.
type fakeHost struct {
	mu       sync.Mutex
	captures []Device
	renders  []Device
	failEnum bool
}

func (h *fakeHost) setDevices(captures, renders []Device) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.captures = captures
	h.renders = renders
}

func (h *fakeHost) Devices(role Role) ([]Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failEnum {
		return nil, errors.New("enumeration failed")
	}
	if role == Capture {
		return append([]Device(nil), h.captures...), nil
	}
	return append([]Device(nil), h.renders...), nil
}

func (h *fakeHost) DefaultDevice(role Role) (Device, error) {
	devices, err := h.Devices(role)
	if err != nil {
		return Device{}, err
	}
	for _, d := range devices {
		if d.IsDefault {
			return d, nil
		}
	}
	return Device{}, errors.New("no default device")
}

func (h *fakeHost) OpenCapture(Device, StreamConfig, CaptureFunc, ErrorFunc) (Stream, error) {
	return nil, errors.New("not supported")
}

func (h *fakeHost) OpenRender(Device, StreamConfig, RenderFunc, ErrorFunc) (Stream, error) {
	return nil, errors.New("not supported")
}

func (h *fakeHost) Close() error { return nil }
