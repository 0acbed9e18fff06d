// Package engine defines the block processing contract and adapts it to
// the parameter store.
package engine

import (
	"log/slog"

	"github.com/micwire/micwire/internal/params"
	"github.com/micwire/micwire/internal/types"
	"github.com/micwire/micwire/internal/util"
)

// Block is one planar processing block, one sample slice per channel.
// Both slices are exactly types.BlockSize long.
type Block [types.Channels][]float32

// AutomationFunc receives parameter changes originating inside the
// engine. It is invoked synchronously on the engine's own call path.
type AutomationFunc func(index int32, value float32)

// Engine is a block-oriented stereo processor.
//
// Configure is called once per session with the resolved stream format.
// Initialize is called exactly once per process lifetime, after the
// first Configure. Process is synchronous and is only ever called from
// the processing goroutine.
type Engine interface {
	Configure(sampleRate, blockSize int) error
	Initialize() error
	Process(in, out Block)
	GetParameter(index int32) float32
	SetParameter(index int32, value float32)
	SetAutomationCallback(fn AutomationFunc)
}

// Adapter binds an Engine to the parameter store. It pushes the full
// parameter set into the engine at session start and routes engine
// automation back into the store.
type Adapter struct {
	engine      Engine
	store       *params.Store
	initialized bool
}

// NewAdapter wires the engine's automation callback into the store.
func NewAdapter(engine Engine, store *params.Store) *Adapter {
	a := &Adapter{engine: engine, store: store}
	engine.SetAutomationCallback(func(index int32, value float32) {
		a.store.SetFromEngine(index, value)
	})
	return a
}

// Start configures the engine for a new session and applies the current
// parameter set. The one-time initialization happens on the first
// session only.
func (a *Adapter) Start(sampleRate int) error {
	if err := a.engine.Configure(sampleRate, types.BlockSize); err != nil {
		return util.WrapError("configure engine", err)
	}
	if !a.initialized {
		if err := a.engine.Initialize(); err != nil {
			return util.WrapError("initialize engine", err)
		}
		a.initialized = true
	}
	a.applyAll()
	return nil
}

// applyAll pushes every stored parameter value into the engine.
func (a *Adapter) applyAll() {
	for id := params.ID(0); id.Valid(); id++ {
		a.engine.SetParameter(id.EngineIndex(), a.store.Get(id))
	}
}

// Process runs one block through the engine.
func (a *Adapter) Process(in, out Block) {
	a.engine.Process(in, out)
}

// SetParameter forwards a store-side edit into the engine. Unknown
// parameters are logged and dropped.
func (a *Adapter) SetParameter(id params.ID, value float32) {
	if !id.Valid() {
		slog.Warn("Ignoring edit for unknown parameter", "id", int(id))
		return
	}
	a.engine.SetParameter(id.EngineIndex(), value)
}

// GetParameter reads a parameter value back from the engine.
func (a *Adapter) GetParameter(id params.ID) float32 {
	return a.engine.GetParameter(id.EngineIndex())
}
