package audio

import (
	"fmt"
	"strings"

	"github.com/micwire/micwire/internal/util"
)

// DefaultSelection binds to the platform default device for a role.
const DefaultSelection = "Default"

// Resolve maps a logical device selection to a concrete endpoint.
// "Default" binds to the platform default for the role; any other value
// binds to the first enumerated device whose name contains the selection
// as a substring. Substring matching is deliberate: it tolerates the
// suffixes the OS appends to device names.
func Resolve(host Host, selection string, role Role) (Device, error) {
	if selection == DefaultSelection {
		dev, err := host.DefaultDevice(role)
		if err != nil {
			return Device{}, absenceError(role)
		}
		return dev, nil
	}

	devices, err := host.Devices(role)
	if err != nil {
		return Device{}, util.WrapError(fmt.Sprintf("enumerate %s devices", role), err)
	}

	for _, dev := range devices {
		if strings.Contains(dev.Name, selection) {
			return dev, nil
		}
	}

	return Device{}, absenceError(role)
}

// ValidatePair checks that a capture/render pair can carry one stream:
// equal sample rates and exactly two channels on each side.
func ValidatePair(in, out Device) error {
	if in.SampleRate != out.SampleRate {
		return fmt.Errorf("%w: capture rate %d Hz does not match render rate %d Hz",
			ErrInvalidConfiguration, in.SampleRate, out.SampleRate)
	}
	if in.Channels != 2 || out.Channels != 2 {
		return fmt.Errorf("%w: only stereo devices are supported (capture %d ch, render %d ch)",
			ErrInvalidConfiguration, in.Channels, out.Channels)
	}
	return nil
}

// absenceError returns the role-specific device-absence sentinel.
func absenceError(role Role) error {
	if role == Capture {
		return ErrNoInputDevice
	}
	return ErrNoOutputDevice
}
