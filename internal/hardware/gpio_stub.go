//go:build !linux

package hardware

import "errors"

// GPIODriver is not available off Linux.
type GPIODriver struct{}

// NewGPIODriver returns an error on non-Linux platforms.
func NewGPIODriver(chipName string, offsets []int) (*GPIODriver, error) {
	return nil, errors.New("hardware: gpio not supported on this platform (requires Linux)")
}

func (d *GPIODriver) SetPower(channel int, pct float64) error {
	return errors.New("hardware: gpio not supported")
}

func (d *GPIODriver) Close() error { return nil }
