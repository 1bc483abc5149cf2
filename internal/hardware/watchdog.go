package hardware

// Watchdog is the platform liveness timer. Feed must be called within the
// hardware timeout or the platform resets the device; the control loop feeds
// it once per iteration.
type Watchdog interface {
	// Feed pets the watchdog.
	Feed() error

	// Close disarms the watchdog for a graceful stop.
	Close() error
}

// NopWatchdog satisfies the interface on platforms without a watchdog
// device, or when the watchdog is disabled in configuration.
type NopWatchdog struct{}

func (NopWatchdog) Feed() error  { return nil }
func (NopWatchdog) Close() error { return nil }
