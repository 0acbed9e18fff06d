// Package bridge provides the bounded frame queues connecting the
// capture, processing, and render stages of the pipeline.
package bridge

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrFull is returned when a frame cannot be enqueued because the
// consumer has stopped draining the bridge.
var ErrFull = errors.New("frame bridge full")

// Frame is one sample instant across both channels (left, right).
type Frame [2]float32

// Silence is the frame substituted when the render side underruns.
var Silence = Frame{0, 0}

// Bridge is a bounded FIFO queue of frames crossing an I/O boundary.
// Producers never block; only the processing-side consumer may.
type Bridge struct {
	frames    chan Frame
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Uint64
}

// New returns a Bridge holding at most capacity frames.
func New(capacity int) *Bridge {
	return &Bridge{
		frames: make(chan Frame, capacity),
		done:   make(chan struct{}),
	}
}

// TryPush enqueues a frame without blocking. It reports false when the
// bridge is full or closed; a full bridge also counts the dropped frame.
// Safe to call from OS audio callbacks.
func (b *Bridge) TryPush(f Frame) bool {
	select {
	case <-b.done:
		return false
	default:
	}
	select {
	case b.frames <- f:
		return true
	default:
		b.dropped.Add(1)
		return false
	}
}

// Recv blocks until a frame is available or the bridge is closed.
// It reports false only on close.
func (b *Bridge) Recv() (Frame, bool) {
	select {
	case f := <-b.frames:
		return f, true
	case <-b.done:
		return Frame{}, false
	}
}

// TryRecv dequeues a frame without blocking, substituting silence on an
// empty bridge. Safe to call from OS audio callbacks.
func (b *Bridge) TryRecv() Frame {
	select {
	case f := <-b.frames:
		return f
	default:
		return Silence
	}
}

// Close wakes any blocked Recv. Frames already buffered are discarded;
// partial data has no value once the session is torn down.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
	})
}

// Dropped returns the number of frames discarded on a full bridge.
func (b *Bridge) Dropped() uint64 {
	return b.dropped.Load()
}

// Len returns the number of frames currently buffered.
func (b *Bridge) Len() int {
	return len(b.frames)
}

// Cap returns the bridge capacity in frames.
func (b *Bridge) Cap() int {
	return cap(b.frames)
}
