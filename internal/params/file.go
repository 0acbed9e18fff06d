package params

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/micwire/micwire/internal/util"
)

// fileParams is the on-disk representation of a parameter set. Field
// names are stable; renaming them breaks existing saved files.
type fileParams struct {
	SidechainHPF  float32 `json:"sidechain_hpf"`
	InputLevel    float32 `json:"input_level"`
	Sensitivity   float32 `json:"sensitivity"`
	Ratio         float32 `json:"ratio"`
	Attack        float32 `json:"attack"`
	Release       float32 `json:"release"`
	Makeup        float32 `json:"makeup"`
	Mix           float32 `json:"mix"`
	OutputLevel   float32 `json:"output_level"`
	Sidechain     float32 `json:"sidechain"`
	FullBandwidth float32 `json:"full_bandwidth"`
	InputDevice   string  `json:"input_device"`
	OutputDevice  string  `json:"output_device"`
}

// toFile converts a Set to its on-disk form.
func toFile(set Set) fileParams {
	return fileParams{
		SidechainHPF:  set.Values[SidechainHPF],
		InputLevel:    set.Values[InputLevel],
		Sensitivity:   set.Values[Sensitivity],
		Ratio:         set.Values[Ratio],
		Attack:        set.Values[Attack],
		Release:       set.Values[Release],
		Makeup:        set.Values[Makeup],
		Mix:           set.Values[Mix],
		OutputLevel:   set.Values[OutputLevel],
		Sidechain:     set.Values[Sidechain],
		FullBandwidth: set.Values[FullBandwidth],
		InputDevice:   set.InputDevice,
		OutputDevice:  set.OutputDevice,
	}
}

// toSet converts the on-disk form back to a Set.
func (f fileParams) toSet() Set {
	set := Set{
		InputDevice:  f.InputDevice,
		OutputDevice: f.OutputDevice,
	}
	set.Values[SidechainHPF] = f.SidechainHPF
	set.Values[InputLevel] = f.InputLevel
	set.Values[Sensitivity] = f.Sensitivity
	set.Values[Ratio] = f.Ratio
	set.Values[Attack] = f.Attack
	set.Values[Release] = f.Release
	set.Values[Makeup] = f.Makeup
	set.Values[Mix] = f.Mix
	set.Values[OutputLevel] = f.OutputLevel
	set.Values[Sidechain] = f.Sidechain
	set.Values[FullBandwidth] = f.FullBandwidth
	return set
}

// DefaultPath returns the per-user location of the parameter file.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", util.WrapError("locate user config directory", err)
	}
	return filepath.Join(dir, "micwire", "params.json"), nil
}

// Load reads the parameter file at path and returns a Store seeded from
// it. A missing or unparsable file seeds the store from defaults, which
// are persisted immediately; the old file contents are never what decides
// whether startup succeeds. Read failures other than absence are returned.
// Fields absent from the file keep their defaults, so a parameter file
// from an older build never zeroes parameters it does not know about.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		store := newStore(path, DefaultSet())
		if werr := writeSet(path, store.Snapshot()); werr != nil {
			slog.Warn("failed to persist default parameters", "path", path, "error", werr)
		}
		return store, nil
	}
	if err != nil {
		return nil, util.WrapError("read parameter file", err)
	}

	f := toFile(DefaultSet())
	if err := json.Unmarshal(data, &f); err != nil {
		slog.Warn("parameter file is invalid, using defaults", "path", path, "error", err)
		return newStore(path, DefaultSet()), nil
	}

	return newStore(path, f.toSet()), nil
}

// writeSet persists a snapshot, overwriting the file in place.
func writeSet(path string, set Set) error {
	data, err := json.MarshalIndent(toFile(set), "", "  ")
	if err != nil {
		return util.WrapError("marshal parameters", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return util.WrapError("create parameter directory", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return util.WrapError("write parameter file", err)
	}

	return nil
}
