//go:build !linux

package sensor

import "errors"

// W1Driver is not available off Linux; the 1-wire bus lives in sysfs.
type W1Driver struct{}

// NewW1Driver returns a stub that fails every operation.
func NewW1Driver() *W1Driver { return &W1Driver{} }

func (d *W1Driver) Scan() ([]string, error) {
	return nil, errors.New("sensor: 1-wire not supported on this platform (requires Linux)")
}

func (d *W1Driver) Read(id string) (float64, error) {
	return 0, errors.New("sensor: 1-wire not supported on this platform")
}

func (d *W1Driver) Close() error { return nil }
