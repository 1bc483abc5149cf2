//go:build linux

package hardware

import (
	"fmt"
	"os"
)

// FileWatchdog pets the Linux watchdog character device. Opening the device
// arms the timer; every write resets it. Close writes the magic character
// first so the kernel disarms the timer instead of rebooting the machine
// shortly after a graceful stop.
type FileWatchdog struct {
	f *os.File
}

// NewFileWatchdog opens (and thereby arms) the watchdog device, typically
// /dev/watchdog.
func NewFileWatchdog(path string) (*FileWatchdog, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open watchdog %s: %w", path, err)
	}
	return &FileWatchdog{f: f}, nil
}

// Feed pets the device.
func (w *FileWatchdog) Feed() error {
	if _, err := w.f.Write([]byte{0}); err != nil {
		return fmt.Errorf("feed watchdog: %w", err)
	}
	return nil
}

// Close performs the magic-close handshake and releases the device.
func (w *FileWatchdog) Close() error {
	if _, err := w.f.Write([]byte("V")); err != nil {
		_ = w.f.Close()
		return fmt.Errorf("watchdog magic close: %w", err)
	}
	return w.f.Close()
}
