// Package session supervises the capture → process → render pipeline:
// it resolves devices, opens streams, drives the block assembly loop,
// and restarts the session after failures.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/micwire/micwire/internal/audio"
	"github.com/micwire/micwire/internal/bridge"
	"github.com/micwire/micwire/internal/engine"
	"github.com/micwire/micwire/internal/params"
	"github.com/micwire/micwire/internal/types"
	"github.com/micwire/micwire/internal/util"
)

// Supervisor owns the pipeline lifecycle. One goroutine runs the state
// machine Starting → Running → (Recovering | Retrying) → Starting and
// also drives the processing loop while Running; it is the only caller
// into the engine.
type Supervisor struct {
	host    audio.Host
	adapter *engine.Adapter
	store   *params.Store
	watcher audio.Watcher

	// run gates the processing loop; cleared by Restart and Stop,
	// restored to true only when a session exits. A clear at any point
	// during startup therefore tears that session down instead of
	// being overwritten.
	run atomic.Bool

	mu             sync.Mutex
	state          types.PipelineState
	lastErr        string
	startedAt      time.Time
	inputDevice    string
	outputDevice   string
	sampleRate     int
	droppedTotal   uint64
	inBridge       *bridge.Bridge
	outBridge      *bridge.Bridge
	reachedRunning bool

	done     chan struct{}
	finished chan struct{}
	stopOnce sync.Once
}

// NewSupervisor builds a supervisor; call Run in its own goroutine.
func NewSupervisor(host audio.Host, adapter *engine.Adapter, store *params.Store, watcher audio.Watcher) *Supervisor {
	s := &Supervisor{
		host:     host,
		adapter:  adapter,
		store:    store,
		watcher:  watcher,
		state:    types.StateStopped,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	s.run.Store(true)
	return s
}

// Run executes the supervision loop until Stop is called. Device
// absence parks the loop on the device watcher; every other failure is
// retried after a fixed delay. Identical consecutive failures are
// logged once.
func (s *Supervisor) Run() {
	defer close(s.finished)
	defer s.setState(types.StateStopped, nil)

	var lastLogged string
	for {
		select {
		case <-s.done:
			return
		default:
		}

		err := s.runSession()
		if err == nil {
			// Deliberate teardown: shutdown or a restart request.
			lastLogged = ""
			continue
		}

		s.mu.Lock()
		ranOnce := s.reachedRunning
		s.mu.Unlock()
		if ranOnce {
			lastLogged = ""
		}
		if msg := err.Error(); msg != lastLogged {
			slog.Error("Pipeline session failed", "error", err)
			lastLogged = msg
		}

		if errors.Is(err, audio.ErrNoInputDevice) || errors.Is(err, audio.ErrNoOutputDevice) {
			s.setState(types.StateRecovering, err)
			s.watcher.Wait()
			continue
		}

		s.setState(types.StateRetrying, err)
		time.Sleep(types.RetryDelay)
	}
}

// runSession performs one Starting → Running cycle. A nil return means
// the session was torn down on request; any error means the supervisor
// should recover or retry.
func (s *Supervisor) runSession() error {
	// Restored on exit, never on entry: a restart requested while this
	// session is still starting leaves the flag false, and the
	// processing loop below exits before consuming a single frame.
	defer s.run.Store(true)

	s.setState(types.StateStarting, nil)
	s.mu.Lock()
	s.reachedRunning = false
	s.mu.Unlock()

	inputSel, outputSel := s.store.Devices()
	inputDev, err := audio.Resolve(s.host, inputSel, audio.Capture)
	if err != nil {
		return err
	}
	outputDev, err := audio.Resolve(s.host, outputSel, audio.Render)
	if err != nil {
		return err
	}
	if err := audio.ValidatePair(inputDev, outputDev); err != nil {
		return err
	}

	if err := s.adapter.Start(inputDev.SampleRate); err != nil {
		return err
	}

	cfg := audio.StreamConfig{
		SampleRate:   inputDev.SampleRate,
		Channels:     types.Channels,
		PeriodFrames: types.BlockSize,
	}
	inBridge := bridge.New(types.BridgeFrames)
	outBridge := bridge.New(types.BridgeFrames)

	s.mu.Lock()
	s.inBridge = inBridge
	s.outBridge = outBridge
	s.inputDevice = inputDev.Name
	s.outputDevice = outputDev.Name
	s.sampleRate = cfg.SampleRate
	s.mu.Unlock()
	defer s.retireBridges(inBridge, outBridge)

	// A stream failure clears the run flag and closes the input bridge
	// so the processing loop cannot stay parked on an empty queue.
	streamErr := make(chan error, 2)
	onStreamError := func(err error) {
		select {
		case streamErr <- err:
		default:
		}
		s.run.Store(false)
		inBridge.Close()
	}

	capture, err := s.host.OpenCapture(inputDev, cfg, func(samples []float32) {
		for i := 0; i+1 < len(samples); i += types.Channels {
			inBridge.TryPush(bridge.Frame{samples[i], samples[i+1]})
		}
	}, onStreamError)
	if err != nil {
		return err
	}
	defer capture.Close()

	render, err := s.host.OpenRender(outputDev, cfg, func(out []float32) {
		for i := 0; i+1 < len(out); i += types.Channels {
			f := outBridge.TryRecv()
			out[i], out[i+1] = f[0], f[1]
		}
	}, onStreamError)
	if err != nil {
		return err
	}
	defer render.Close()

	if err := capture.Start(); err != nil {
		return util.WrapError("start capture stream", err)
	}
	if err := render.Start(); err != nil {
		return util.WrapError("start render stream", err)
	}

	slog.Info("Pipeline running",
		"input", inputDev.Name,
		"output", outputDev.Name,
		"sample_rate", cfg.SampleRate)
	s.setState(types.StateRunning, nil)
	s.mu.Lock()
	s.reachedRunning = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	asm := newAssembler(s.adapter)
	for s.run.Load() {
		f, ok := inBridge.Recv()
		if !ok {
			break
		}
		if err := asm.feed(f, outBridge); err != nil {
			return err
		}
	}

	select {
	case err := <-streamErr:
		return err
	default:
	}
	return nil
}

// retireBridges folds the session's drop counters into the running
// total and detaches the bridges from status reporting.
func (s *Supervisor) retireBridges(in, out *bridge.Bridge) {
	in.Close()
	out.Close()
	s.mu.Lock()
	s.droppedTotal += in.Dropped() + out.Dropped()
	s.inBridge = nil
	s.outBridge = nil
	s.mu.Unlock()
}

// Restart tears down the current session; the supervisor loop starts a
// fresh one with the current device selections. Called after a device
// selection change.
func (s *Supervisor) Restart() {
	slog.Info("Pipeline restart requested")
	s.endSession()
}

// endSession clears the run flag and wakes the processing loop.
func (s *Supervisor) endSession() {
	s.run.Store(false)
	s.mu.Lock()
	b := s.inBridge
	s.mu.Unlock()
	if b != nil {
		b.Close()
	}
}

// Stop shuts the supervisor down and waits for the loop to exit. The
// wait is bounded: a loop parked on the device watcher finishes on the
// next topology poll, which may be after shutdown gives up on it.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	s.endSession()
	select {
	case <-s.finished:
	case <-time.After(types.ShutdownTimeout):
		slog.Warn("Pipeline did not stop within shutdown timeout")
	}
}

func (s *Supervisor) setState(state types.PipelineState, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	if err != nil {
		s.lastErr = err.Error()
	}
}

// Status reports the pipeline state for the control surface.
func (s *Supervisor) Status() types.PipelineStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := types.PipelineStatus{
		State:         s.state,
		LastError:     s.lastErr,
		DroppedFrames: s.droppedTotal,
	}
	if s.inBridge != nil {
		status.DroppedFrames += s.inBridge.Dropped()
	}
	if s.outBridge != nil {
		status.DroppedFrames += s.outBridge.Dropped()
	}
	if s.state == types.StateRunning {
		status.Uptime = util.FormatDuration(time.Since(s.startedAt).Milliseconds())
		status.InputDevice = s.inputDevice
		status.OutputDevice = s.outputDevice
		status.SampleRate = s.sampleRate
	}
	return status
}
