//go:build linux

package hardware

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIODriver switches output channels through Linux GPIO lines. Relay and
// SSR channels are on/off devices: any nonzero power closes the line. Dimmer
// channels on this board take the same line as their zero-cross enable, so
// they follow the same threshold here; fine-grained phase control lives in
// the dimmer hardware itself.
type GPIODriver struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line
}

// NewGPIODriver requests the given BCM line offsets as outputs, initially
// off.
func NewGPIODriver(chipName string, offsets []int) (*GPIODriver, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	d := &GPIODriver{chip: chip}
	for _, off := range offsets {
		line, err := chip.RequestLine(off, gpiocdev.AsOutput(0))
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("request output line %d: %w", off, err)
		}
		d.lines = append(d.lines, line)
	}
	return d, nil
}

// SetPower drives the channel line: on above zero, off at zero.
func (d *GPIODriver) SetPower(channel int, pct float64) error {
	if channel < 0 || channel >= len(d.lines) {
		return fmt.Errorf("gpio: no line for channel %d", channel)
	}
	value := 0
	if pct > 0 {
		value = 1
	}
	if err := d.lines[channel].SetValue(value); err != nil {
		return fmt.Errorf("set channel %d: %w", channel, err)
	}
	return nil
}

// Close drops every line to off and releases the chip. Lines are
// reconfigured as inputs first so external driver boards see a clean float
// during shutdown instead of a held level.
func (d *GPIODriver) Close() error {
	var errs []error
	for i, line := range d.lines {
		if line == nil {
			continue
		}
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear line %d: %w", i, err))
		}
		if err := line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line %d: %w", i, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", i, err))
		}
	}
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("gpio close errors: %v", errs)
	}
	return nil
}
