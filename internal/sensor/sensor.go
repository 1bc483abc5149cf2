// Package sensor provides temperature probe drivers behind a small
// interface. The real implementation reads DS18B20 probes through the Linux
// 1-wire sysfs tree; the sim and fake drivers run without hardware.
package sensor

import "errors"

// ErrReadFailed is returned when a probe is present but the read did not
// produce a usable value (bus error, checksum failure, disconnect).
var ErrReadFailed = errors.New("sensor read failed")

// ErrUnknownSensor is returned for identifiers the driver has never seen.
var ErrUnknownSensor = errors.New("unknown sensor id")

// Driver reads temperature probes. Scan discovers probe identifiers at boot;
// Read performs one conversion. Read may block for the hardware conversion
// delay (up to ~750ms per probe), so callers keep it off the control tick
// path.
type Driver interface {
	// Scan returns the identifiers of all attached probes.
	Scan() ([]string, error)

	// Read returns the temperature of one probe in Celsius.
	Read(id string) (float64, error)

	// Close releases driver resources.
	Close() error
}
