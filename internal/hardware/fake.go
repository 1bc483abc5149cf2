package hardware

import "sync"

// Fake records power commands for test assertions.
type Fake struct {
	mu sync.Mutex

	// Last holds the most recent command per channel.
	Last map[int]float64

	// History holds every command in order.
	History []Command

	// SetPowerError, if set, is returned by SetPower.
	SetPowerError error

	// Closed tracks whether Close was called.
	Closed bool
}

// Command is one recorded SetPower call.
type Command struct {
	Channel int
	Pct     float64
}

// NewFake creates an empty Fake driver.
func NewFake() *Fake {
	return &Fake{Last: make(map[int]float64)}
}

// SetPower records the command.
func (f *Fake) SetPower(channel int, pct float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetPowerError != nil {
		return f.SetPowerError
	}
	f.Last[channel] = pct
	f.History = append(f.History, Command{Channel: channel, Pct: pct})
	return nil
}

// Close marks the driver as closed.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// LastFor returns the most recent command for a channel.
func (f *Fake) LastFor(channel int) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pct, ok := f.Last[channel]
	return pct, ok
}
