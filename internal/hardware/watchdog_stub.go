//go:build !linux

package hardware

import "errors"

// FileWatchdog is not available off Linux.
type FileWatchdog struct{}

// NewFileWatchdog returns an error on non-Linux platforms.
func NewFileWatchdog(path string) (*FileWatchdog, error) {
	return nil, errors.New("hardware: watchdog not supported on this platform (requires Linux)")
}

func (w *FileWatchdog) Feed() error  { return errors.New("hardware: watchdog not supported") }
func (w *FileWatchdog) Close() error { return nil }
