package engine

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-dsp/dsp/effects/dynamics"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design/pass"

	"github.com/micwire/micwire/internal/params"
	"github.com/micwire/micwire/internal/types"
	"github.com/micwire/micwire/internal/util"
)

// Control ranges for the normalized parameter mapping. All parameters
// except the sidechain filter frequency arrive as [0,1] and are scaled
// into processing units here.
const (
	minThresholdDB = -60.0
	maxRatio       = 20.0
	minAttackMs    = 0.1
	maxAttackMs    = 100.0
	minReleaseMs   = 1.0
	maxReleaseMs   = 1100.0
	maxMakeupDB    = 24.0
	minLevelDB     = -48.0

	minSidechainHz = 20.0
	maxSidechainHz = 2000.0
)

// Compressor is the built-in stereo dynamics engine. Parameter writes
// land in an atomic staging area and are folded into the DSP state at
// the next block boundary, so writers never contend with the audio
// path.
type Compressor struct {
	values [params.Count]atomic.Uint32

	// Processing-goroutine state below; untouched by writers.
	applied    [params.Count]float32
	sampleRate int
	comp       [types.Channels]*dynamics.Compressor
	hpf        [types.Channels]*biquad.Section
	lastGain   [types.Channels]float64

	inputGain  float64
	outputGain float64
	mix        float64
	listen     bool
	fullBand   bool
	onChange   AutomationFunc
}

// NewCompressor returns the engine seeded with factory defaults.
func NewCompressor() *Compressor {
	e := &Compressor{}
	for id := params.ID(0); id.Valid(); id++ {
		e.values[id].Store(math.Float32bits(params.Default(id)))
	}
	return e
}

// Configure builds the per-channel DSP chain for the session format.
// Previous filter and envelope state is discarded.
func (e *Compressor) Configure(sampleRate, blockSize int) error {
	_ = blockSize // fixed chain, no per-block allocation

	e.sampleRate = sampleRate
	for ch := range e.comp {
		comp, err := dynamics.NewCompressor(float64(sampleRate))
		if err != nil {
			return util.WrapError("build compressor", err)
		}
		e.comp[ch] = comp
		e.lastGain[ch] = 1
	}
	e.rebuildSidechain(float64(params.Default(params.SidechainHPF)))

	// Force a full parameter re-apply on the first block.
	for id := range e.applied {
		e.applied[id] = float32(math.NaN())
	}
	return nil
}

// Initialize is part of the Engine contract. The built-in engine has no
// one-time resources beyond Configure.
func (e *Compressor) Initialize() error {
	return nil
}

// GetParameter returns the staged value for an engine index. Unknown
// indices read as zero.
func (e *Compressor) GetParameter(index int32) float32 {
	id, ok := params.FromEngineIndex(index)
	if !ok {
		return 0
	}
	return math.Float32frombits(e.values[id].Load())
}

// SetParameter stages a value for the next block. Unknown indices are
// ignored.
func (e *Compressor) SetParameter(index int32, value float32) {
	id, ok := params.FromEngineIndex(index)
	if !ok {
		return
	}
	e.values[id].Store(math.Float32bits(value))
}

// SetAutomationCallback registers the change callback. The built-in
// engine has no internal control surface, so it never fires it, but the
// registration is honored for contract completeness.
func (e *Compressor) SetAutomationCallback(fn AutomationFunc) {
	e.onChange = fn
}

// Process runs one stereo block. Staged parameter changes are applied
// at the block boundary before any samples are touched.
func (e *Compressor) Process(in, out Block) {
	e.applyStaged()

	for ch := 0; ch < types.Channels; ch++ {
		comp := e.comp[ch]
		hpf := e.hpf[ch]
		src := in[ch]
		dst := out[ch]

		for i := range src {
			x := float64(src[i]) * e.inputGain

			det := x
			if !e.fullBand {
				det = hpf.ProcessSample(det)
			}

			// The compressor runs on the detector signal; the gain it
			// applied is transferred onto the unfiltered input so the
			// sidechain filter shapes detection only, not the audio.
			processed := comp.ProcessSample(det)
			gain := e.lastGain[ch]
			if det > 1e-12 || det < -1e-12 {
				gain = processed / det
				e.lastGain[ch] = gain
			}

			var y float64
			if e.listen {
				y = det
			} else {
				wet := x * gain
				y = e.mix*wet + (1-e.mix)*x
			}

			dst[i] = float32(y * e.outputGain)
		}
	}
}

// applyStaged folds staged parameter values into the DSP objects,
// touching only parameters that changed since the previous block.
func (e *Compressor) applyStaged() {
	for id := params.ID(0); id.Valid(); id++ {
		value := math.Float32frombits(e.values[id].Load())
		if value == e.applied[id] {
			continue
		}
		e.applied[id] = value
		e.applyOne(id, float64(value))
	}
}

func (e *Compressor) applyOne(id params.ID, value float64) {
	switch id {
	case params.SidechainHPF:
		e.rebuildSidechain(clamp(value, minSidechainHz, maxSidechainHz))
	case params.InputLevel:
		e.inputGain = levelGain(value)
	case params.Sensitivity:
		for _, c := range e.comp {
			c.SetThreshold(clamp01(value) * minThresholdDB)
		}
	case params.Ratio:
		for _, c := range e.comp {
			c.SetRatio(1 + clamp01(value)*(maxRatio-1))
		}
	case params.Attack:
		for _, c := range e.comp {
			c.SetAttack(minAttackMs + clamp01(value)*(maxAttackMs-minAttackMs))
		}
	case params.Release:
		for _, c := range e.comp {
			c.SetRelease(minReleaseMs + clamp01(value)*(maxReleaseMs-minReleaseMs))
		}
	case params.Makeup:
		for _, c := range e.comp {
			c.SetMakeupGain(clamp01(value) * maxMakeupDB)
		}
	case params.Mix:
		e.mix = clamp01(value)
	case params.OutputLevel:
		e.outputGain = levelGain(value)
	case params.Sidechain:
		e.listen = value >= 0.5
	case params.FullBandwidth:
		e.fullBand = value >= 0.5
	}
}

// rebuildSidechain replaces the detector highpass sections. Filter
// state resets on a cutoff change, which is inaudible on the detector
// path.
func (e *Compressor) rebuildSidechain(freq float64) {
	coeffs := pass.ButterworthHP(freq, 2, float64(e.sampleRate))
	for ch := range e.hpf {
		e.hpf[ch] = biquad.NewSection(coeffs[0])
	}
}

// levelGain maps a normalized level control to linear gain, with 1.0 as
// unity.
func levelGain(norm float64) float64 {
	db := (clamp01(norm) - 1) * -minLevelDB
	return math.Pow(10, db/20)
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
