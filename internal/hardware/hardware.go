// Package hardware drives the physical output channels and the platform
// watchdog. The real implementation uses the Linux GPIO character device;
// fakes allow testing and simulation without hardware.
package hardware

// Driver applies power commands to output channels. SetPower is invoked once
// per control tick with the final command; implementations must be
// idempotent and non-blocking.
type Driver interface {
	// SetPower commands a channel to the given power percentage [0,100].
	SetPower(channel int, pct float64) error

	// Close releases hardware resources, leaving every channel off.
	Close() error
}
