package audio

import (
	"testing"
	"time"
)

// TestPollWatcherWait verifies Wait blocks while the topology is stable
// and returns once it changes.
func TestPollWatcherWait(t *testing.T) {
	renders := []Device{{ID: "r1", Name: "Speakers", IsDefault: true}}
	host := &fakeHost{renders: renders}
	w := NewPollWatcher(host, 5*time.Millisecond)

	returned := make(chan struct{})
	go func() {
		w.Wait()
		close(returned)
	}()

	select {
	case <-returned:
		t.Fatal("Wait returned without a topology change")
	case <-time.After(30 * time.Millisecond):
	}

	host.setDevices([]Device{{ID: "c1", Name: "USB Microphone"}}, renders)

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after a topology change")
	}
}

// TestPollWatcherDefaultChange verifies that a default-device move alone
// counts as a topology change.
func TestPollWatcherDefaultChange(t *testing.T) {
	devices := []Device{
		{ID: "r1", Name: "Speakers", IsDefault: true},
		{ID: "r2", Name: "Headphones"},
	}
	host := &fakeHost{renders: devices}
	w := NewPollWatcher(host, 5*time.Millisecond)

	returned := make(chan struct{})
	go func() {
		w.Wait()
		close(returned)
	}()

	time.Sleep(15 * time.Millisecond)
	host.setDevices(nil, []Device{
		{ID: "r1", Name: "Speakers"},
		{ID: "r2", Name: "Headphones", IsDefault: true},
	})

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Wait did not notice the default device change")
	}
}
