package audio

import (
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Watcher blocks until the audio device topology changes: an endpoint is
// added, removed, or changes default status.
type Watcher interface {
	Wait()
}

// PollWatcher detects topology changes by periodically sampling the
// Host's enumeration. Native endpoint notifications are backend-specific;
// polling keeps the capability portable and the subscription scoped to
// the watcher itself.
type PollWatcher struct {
	host     Host
	interval time.Duration
}

// NewPollWatcher returns a Watcher polling host at the given interval.
func NewPollWatcher(host Host, interval time.Duration) *PollWatcher {
	return &PollWatcher{host: host, interval: interval}
}

// Wait blocks until the device topology differs from the one observed on
// entry.
func (w *PollWatcher) Wait() {
	last := w.fingerprint()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for range ticker.C {
		if fp := w.fingerprint(); fp != last {
			slog.Debug("audio device topology changed")
			return
		}
	}
}

// fingerprint reduces the current topology to a comparable string:
// sorted device names per role, default devices marked.
func (w *PollWatcher) fingerprint() string {
	var sb strings.Builder
	for _, role := range []Role{Capture, Render} {
		devices, err := w.host.Devices(role)
		if err != nil {
			// An enumeration failure is itself a topology observation.
			sb.WriteString(role.String() + ":error;")
			continue
		}
		names := make([]string, 0, len(devices))
		for _, d := range devices {
			name := d.Name
			if d.IsDefault {
				name += "*"
			}
			names = append(names, name)
		}
		sort.Strings(names)
		sb.WriteString(role.String() + ":" + strings.Join(names, ",") + ";")
	}
	return sb.String()
}
