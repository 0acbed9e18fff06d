package params

import (
	"log/slog"
	"sync"
	"time"
)

// Saver persists store snapshots in the background. It coalesces bursts
// of edits (a UI slider drag) into a single write: after the first change
// signal it keeps draining further signals for one debounce window before
// touching the disk.
type Saver struct {
	store    *Store
	window   time.Duration
	write    func(path string, set Set) error // writeSet, replaceable in tests
	done     chan struct{}
	finished chan struct{}
	stopOnce sync.Once
}

// NewSaver returns a Saver for store with the given debounce window.
func NewSaver(store *Store, window time.Duration) *Saver {
	return &Saver{
		store:    store,
		window:   window,
		write:    writeSet,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Run blocks, persisting a snapshot once per burst of changes, until Stop
// is called. A write failure is logged and non-fatal: the in-memory store
// stays the source of truth and the next dirty signal retries.
func (s *Saver) Run() {
	defer close(s.finished)

	for {
		select {
		case <-s.done:
			s.flush()
			return
		case <-s.store.Notify():
		}

		s.drain()

		s.store.clearDirty()
		if err := s.write(s.store.Path(), s.store.Snapshot()); err != nil {
			slog.Error("failed to save parameters", "path", s.store.Path(), "error", err)
		}
	}
}

// drain absorbs further change signals until one debounce window passes
// without any.
func (s *Saver) drain() {
	for {
		select {
		case <-s.store.Notify():
		case <-time.After(s.window):
			return
		case <-s.done:
			return
		}
	}
}

// flush writes a final snapshot if there are unsaved changes.
func (s *Saver) flush() {
	if !s.store.isDirty() {
		return
	}
	s.store.clearDirty()
	if err := s.write(s.store.Path(), s.store.Snapshot()); err != nil {
		slog.Error("failed to save parameters on shutdown", "path", s.store.Path(), "error", err)
	}
}

// Stop signals Run to exit and waits for the final flush.
func (s *Saver) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	<-s.finished
}
