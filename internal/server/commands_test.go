package server

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/micwire/micwire/internal/audio"
	"github.com/micwire/micwire/internal/engine"
	"github.com/micwire/micwire/internal/params"
	"github.com/micwire/micwire/internal/types"
)

// --- In-package fakes ---

type fakePipeline struct {
	restarts int
	status   types.PipelineStatus
}

func (p *fakePipeline) Status() types.PipelineStatus { return p.status }

func (p *fakePipeline) Restart() { p.restarts++ }

type fakeEngine struct {
	values map[int32]float32
}

func (f *fakeEngine) Configure(int, int) error { return nil }

func (f *fakeEngine) Initialize() error { return nil }

func (f *fakeEngine) Process(in, out engine.Block) {}

func (f *fakeEngine) GetParameter(index int32) float32 { return f.values[index] }

func (f *fakeEngine) SetParameter(i int32, v float32) { f.values[i] = v }

func (f *fakeEngine) SetAutomationCallback(engine.AutomationFunc) {}

type fakeHost struct {
	captures []audio.Device
	renders  []audio.Device
	failEnum bool
}

func (h *fakeHost) Devices(role audio.Role) ([]audio.Device, error) {
	if h.failEnum {
		return nil, errors.New("enumeration failed")
	}
	if role == audio.Capture {
		return h.captures, nil
	}
	return h.renders, nil
}

func (h *fakeHost) DefaultDevice(audio.Role) (audio.Device, error) {
	return audio.Device{}, errors.New("not supported")
}

func (h *fakeHost) OpenCapture(audio.Device, audio.StreamConfig, audio.CaptureFunc, audio.ErrorFunc) (audio.Stream, error) {
	return nil, errors.New("not supported")
}

func (h *fakeHost) OpenRender(audio.Device, audio.StreamConfig, audio.RenderFunc, audio.ErrorFunc) (audio.Stream, error) {
	return nil, errors.New("not supported")
}

func (h *fakeHost) Close() error { return nil }

// --- Helpers ---

type testRig struct {
	handler  *CommandHandler
	store    *params.Store
	engine   *fakeEngine
	pipeline *fakePipeline
	send     chan any
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	store, err := params.Load(filepath.Join(t.TempDir(), "params.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	eng := &fakeEngine{values: make(map[int32]float32)}
	pipeline := &fakePipeline{}
	host := &fakeHost{
		captures: []audio.Device{{Name: "Mic", SampleRate: 48000, Channels: 2, IsDefault: true}},
		renders:  []audio.Device{{Name: "Speakers", SampleRate: 48000, Channels: 2, IsDefault: true}},
	}

	return &testRig{
		handler:  NewCommandHandler(store, engine.NewAdapter(eng, store), pipeline, host),
		store:    store,
		engine:   eng,
		pipeline: pipeline,
		send:     make(chan any, 16),
	}
}

func (r *testRig) handle(t *testing.T, cmdType string, data any) map[string]any {
	t.Helper()
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			t.Fatal(err)
		}
		raw = b
	}

	r.handler.Handle(WSCommand{Type: cmdType, Data: raw}, r.send, func() {})

	select {
	case msg := <-r.send:
		result, ok := msg.(map[string]any)
		if !ok {
			t.Fatalf("response type %T, want map", msg)
		}
		return result
	default:
		return nil
	}
}

// --- Tests ---

func TestParamsUpdate(t *testing.T) {
	rig := newTestRig(t)

	result := rig.handle(t, "params/update", map[string]any{
		"sensitivity":   0.8,
		"sidechain_hpf": 120,
	})
	if result == nil || result["success"] != true {
		t.Fatalf("params/update result = %v, want success", result)
	}

	if got := rig.store.Get(params.Sensitivity); got != 0.8 {
		t.Errorf("store sensitivity = %v, want 0.8", got)
	}
	if got := rig.engine.values[params.Sensitivity.EngineIndex()]; got != 0.8 {
		t.Errorf("engine sensitivity = %v, want 0.8", got)
	}
	if got := rig.store.Get(params.SidechainHPF); got != 120 {
		t.Errorf("store sidechain_hpf = %v, want 120", got)
	}

	// Untouched parameters keep their values.
	if got := rig.store.Get(params.Mix); got != params.Default(params.Mix) {
		t.Errorf("mix changed to %v without being requested", got)
	}
}

func TestParamsUpdateValidation(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
	}{
		{"ratio above range", map[string]any{"ratio": 1.5}},
		{"mix below range", map[string]any{"mix": -0.1}},
		{"hpf below range", map[string]any{"sidechain_hpf": 5}},
		{"hpf above range", map[string]any{"sidechain_hpf": 20000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rig := newTestRig(t)
			result := rig.handle(t, "params/update", tt.data)
			if result == nil || result["success"] != false {
				t.Fatalf("result = %v, want validation failure", result)
			}
			// Nothing may have been applied.
			for id := params.ID(0); id.Valid(); id++ {
				if got := rig.store.Get(id); got != params.Default(id) {
					t.Errorf("%v = %v after rejected update, want default", id, got)
				}
			}
		})
	}
}

func TestParamsGet(t *testing.T) {
	rig := newTestRig(t)
	result := rig.handle(t, "params/get", nil)
	if result == nil || result["success"] != true {
		t.Fatalf("params/get result = %v, want success", result)
	}

	values, ok := result["data"].(map[string]float32)
	if !ok {
		t.Fatalf("data type %T, want map[string]float32", result["data"])
	}
	if len(values) != params.Count {
		t.Errorf("params/get returned %d values, want %d", len(values), params.Count)
	}
	if values["mix"] != params.Default(params.Mix) {
		t.Errorf("mix = %v, want default", values["mix"])
	}
}

func TestDevicesUpdateRestartsPipeline(t *testing.T) {
	rig := newTestRig(t)

	result := rig.handle(t, "devices/update", map[string]any{"input_device": "USB"})
	if result == nil || result["success"] != true {
		t.Fatalf("devices/update result = %v, want success", result)
	}

	in, out := rig.store.Devices()
	if in != "USB" || out != params.DefaultDevice {
		t.Errorf("selections = %q, %q; want USB, Default", in, out)
	}
	if rig.pipeline.restarts != 1 {
		t.Errorf("pipeline restarts = %d, want 1", rig.pipeline.restarts)
	}

	// Re-sending the same selection must not restart again.
	rig.handle(t, "devices/update", map[string]any{"input_device": "USB"})
	if rig.pipeline.restarts != 1 {
		t.Errorf("pipeline restarts = %d after no-op update, want 1", rig.pipeline.restarts)
	}
}

func TestDevicesList(t *testing.T) {
	rig := newTestRig(t)
	result := rig.handle(t, "devices/list", nil)
	if result == nil || result["success"] != true {
		t.Fatalf("devices/list result = %v, want success", result)
	}

	devices, ok := result["data"].(types.WSDevicesResponse)
	if !ok {
		t.Fatalf("data type %T, want WSDevicesResponse", result["data"])
	}
	if len(devices.Inputs) != 1 || devices.Inputs[0].Name != "Mic" {
		t.Errorf("inputs = %+v, want one entry named Mic", devices.Inputs)
	}
	if len(devices.Outputs) != 1 || devices.Outputs[0].Name != "Speakers" {
		t.Errorf("outputs = %+v, want one entry named Speakers", devices.Outputs)
	}
}

func TestPipelineRestart(t *testing.T) {
	rig := newTestRig(t)
	result := rig.handle(t, "pipeline/restart", nil)
	if result == nil || result["success"] != true {
		t.Fatalf("pipeline/restart result = %v, want success", result)
	}
	if rig.pipeline.restarts != 1 {
		t.Errorf("pipeline restarts = %d, want 1", rig.pipeline.restarts)
	}
}

// TestUnknownCommand verifies unknown namespaces and actions are logged
// and ignored, never panic.
func TestUnknownCommand(t *testing.T) {
	rig := newTestRig(t)
	if result := rig.handle(t, "bogus/none", nil); result != nil {
		t.Errorf("unknown command produced response %v", result)
	}
	if result := rig.handle(t, "params/bogus", nil); result != nil {
		t.Errorf("unknown action produced response %v", result)
	}
}

func TestMalformedJSON(t *testing.T) {
	rig := newTestRig(t)
	rig.handler.Handle(WSCommand{Type: "params/update", Data: json.RawMessage("{broken")}, rig.send, func() {})

	msg := <-rig.send
	result, ok := msg.(map[string]any)
	if !ok || result["success"] != false {
		t.Fatalf("malformed JSON result = %v, want failure", msg)
	}
}
