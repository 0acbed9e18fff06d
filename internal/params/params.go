// Package params provides the concurrently mutated processing parameter
// store and its debounced persistence worker. Numeric parameters are
// individually atomic; the store itself lives for the process lifetime
// and is the single source of truth for the engine and the control
// surface.
package params

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
)

// ErrUnknownParameter is returned when a parameter index or ID is out of range.
var ErrUnknownParameter = errors.New("unknown parameter")

// ID identifies a processing parameter. The declaration order is the
// engine's parameter index order; reordering breaks saved files and the
// engine binding.
type ID int

// Processing parameters, in engine index order.
const (
	SidechainHPF ID = iota
	InputLevel
	Sensitivity
	Ratio
	Attack
	Release
	Makeup
	Mix
	OutputLevel
	Sidechain
	FullBandwidth

	numParams
)

// Count is the number of processing parameters.
const Count = int(numParams)

// names is the single mapping between IDs, persisted field names, and
// control-surface keys.
var names = [Count]string{
	SidechainHPF:  "sidechain_hpf",
	InputLevel:    "input_level",
	Sensitivity:   "sensitivity",
	Ratio:         "ratio",
	Attack:        "attack",
	Release:       "release",
	Makeup:        "makeup",
	Mix:           "mix",
	OutputLevel:   "output_level",
	Sidechain:     "sidechain",
	FullBandwidth: "full_bandwidth",
}

// defaults holds the factory value for each parameter.
var defaults = [Count]float32{
	SidechainHPF:  20.0,
	InputLevel:    1.0,
	Sensitivity:   0.48333332,
	Ratio:         1.0,
	Attack:        0.0,
	Release:       0.09090909,
	Makeup:        0.33333334,
	Mix:           1.0,
	OutputLevel:   1.0,
	Sidechain:     0.0,
	FullBandwidth: 1.0,
}

// DefaultDevice is the selection string that binds to the platform default device.
const DefaultDevice = "Default"

// Valid reports whether id names a known parameter.
func (id ID) Valid() bool {
	return id >= 0 && id < numParams
}

// String returns the stable field name for id.
func (id ID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("param(%d)", int(id))
	}
	return names[id]
}

// EngineIndex returns the engine's numeric index for id.
func (id ID) EngineIndex() int32 {
	return int32(id)
}

// FromEngineIndex maps an engine parameter index back to an ID.
func FromEngineIndex(index int32) (ID, bool) {
	id := ID(index)
	return id, id.Valid()
}

// FromName maps a persisted or control-surface field name to an ID.
func FromName(name string) (ID, bool) {
	for id, n := range names {
		if n == name {
			return ID(id), true
		}
	}
	return 0, false
}

// Default returns the factory value for id.
func Default(id ID) float32 {
	return defaults[id]
}

// Set is a point-in-time copy of all parameter values and device selections.
type Set struct {
	Values       [Count]float32
	InputDevice  string
	OutputDevice string
}

// DefaultSet returns a Set populated with factory values.
func DefaultSet() Set {
	return Set{
		Values:       defaults,
		InputDevice:  DefaultDevice,
		OutputDevice: DefaultDevice,
	}
}

// Store is the live, concurrently-accessed parameter set. Each numeric
// parameter is independently atomic; device selections take the mutex.
// Cross-field atomicity is not guaranteed, only per-field atomicity.
type Store struct {
	values [Count]atomic.Uint32 // float32 bit patterns

	mu           sync.RWMutex // guards device selections
	inputDevice  string
	outputDevice string

	path   string
	dirty  atomic.Bool
	notify chan struct{}
}

// newStore returns a Store seeded from set, persisting to path.
func newStore(path string, set Set) *Store {
	s := &Store{
		path:         path,
		inputDevice:  set.InputDevice,
		outputDevice: set.OutputDevice,
		notify:       make(chan struct{}, 1),
	}
	for i := range s.values {
		s.values[i].Store(math.Float32bits(set.Values[i]))
	}
	return s
}

// Path returns the location of the persisted parameter file.
func (s *Store) Path() string {
	return s.path
}

// Get returns the current value of id. Unknown IDs return 0.
func (s *Store) Get(id ID) float32 {
	if !id.Valid() {
		return 0
	}
	return math.Float32frombits(s.values[id].Load())
}

// Set stores a new value for id and marks the store dirty.
func (s *Store) Set(id ID, value float32) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownParameter, int(id))
	}
	s.values[id].Store(math.Float32bits(value))
	s.markDirty()
	return nil
}

// SetFromEngine is the automation write path from the engine. Invalid
// indices are logged and dropped rather than surfaced, because the engine
// drives this callback from its own UI and must never be crashed by it.
func (s *Store) SetFromEngine(index int32, value float32) {
	id, ok := FromEngineIndex(index)
	if !ok {
		slog.Error("invalid parameter index from engine", "index", index)
		return
	}
	s.values[id].Store(math.Float32bits(value))
	s.markDirty()
}

// Devices returns the input and output device selections.
func (s *Store) Devices() (input, output string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inputDevice, s.outputDevice
}

// SetInputDevice updates the input device selection and marks the store dirty.
func (s *Store) SetInputDevice(device string) {
	s.mu.Lock()
	s.inputDevice = device
	s.mu.Unlock()
	s.markDirty()
}

// SetOutputDevice updates the output device selection and marks the store dirty.
func (s *Store) SetOutputDevice(device string) {
	s.mu.Lock()
	s.outputDevice = device
	s.mu.Unlock()
	s.markDirty()
}

// Snapshot returns a point-in-time copy of all values. Individual fields
// may interleave with concurrent writers.
func (s *Store) Snapshot() Set {
	var set Set
	for i := range s.values {
		set.Values[i] = math.Float32frombits(s.values[i].Load())
	}
	set.InputDevice, set.OutputDevice = s.Devices()
	return set
}

// Notify returns the channel signalled on the first dirty transition.
func (s *Store) Notify() <-chan struct{} {
	return s.notify
}

// markDirty flags unsaved changes and signals the persistence worker.
// The signal is edge-triggered: repeated writes while already dirty do
// not flood the channel.
func (s *Store) markDirty() {
	if !s.dirty.Swap(true) {
		select {
		case s.notify <- struct{}{}:
		default:
		}
	}
}

// clearDirty resets the dirty flag before a snapshot is persisted.
func (s *Store) clearDirty() {
	s.dirty.Store(false)
}

// isDirty reports whether the store has unsaved changes.
func (s *Store) isDirty() bool {
	return s.dirty.Load()
}
