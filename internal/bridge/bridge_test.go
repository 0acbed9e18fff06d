package bridge

import (
	"testing"
	"time"
)

func TestTryPushDropsWhenFull(t *testing.T) {
	b := New(4)

	for i := 0; i < 4; i++ {
		if !b.TryPush(Frame{float32(i), float32(i)}) {
			t.Fatalf("TryPush(%d) = false on a non-full bridge", i)
		}
	}
	if b.TryPush(Frame{9, 9}) {
		t.Error("TryPush succeeded on a full bridge")
	}
	if b.TryPush(Frame{9, 9}) {
		t.Error("TryPush succeeded on a full bridge")
	}

	if got := b.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
	if got := b.Len(); got != 4 {
		t.Errorf("Len() = %d, want 4", got)
	}
}

func TestRecvPreservesOrder(t *testing.T) {
	b := New(8)
	for i := 0; i < 5; i++ {
		b.TryPush(Frame{float32(i), -float32(i)})
	}

	for i := 0; i < 5; i++ {
		f, ok := b.Recv()
		if !ok {
			t.Fatalf("Recv() closed early at frame %d", i)
		}
		if f != (Frame{float32(i), -float32(i)}) {
			t.Errorf("Recv() frame %d = %v, out of order", i, f)
		}
	}
}

// TestTryRecvUnderrun verifies the render side gets silence instead of
// blocking on an empty bridge.
func TestTryRecvUnderrun(t *testing.T) {
	b := New(4)

	if f := b.TryRecv(); f != Silence {
		t.Errorf("TryRecv() on empty bridge = %v, want silence", f)
	}

	b.TryPush(Frame{0.5, -0.5})
	if f := b.TryRecv(); f != (Frame{0.5, -0.5}) {
		t.Errorf("TryRecv() = %v, want pushed frame", f)
	}
}

// TestCloseWakesRecv verifies a blocked consumer is released on close.
func TestCloseWakesRecv(t *testing.T) {
	b := New(4)

	got := make(chan bool, 1)
	go func() {
		_, ok := b.Recv()
		got <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	b.Close()

	select {
	case ok := <-got:
		if ok {
			t.Error("Recv() = ok after close, want closed")
		}
	case <-time.After(time.Second):
		t.Fatal("Recv() still blocked after Close")
	}
}

func TestPushAfterClose(t *testing.T) {
	b := New(4)
	b.Close()
	b.Close() // idempotent

	if b.TryPush(Frame{1, 1}) {
		t.Error("TryPush succeeded on a closed bridge")
	}
	if got := b.Dropped(); got != 0 {
		t.Errorf("Dropped() = %d after push to closed bridge, want 0", got)
	}
}
