package sensor

import (
	"fmt"
	"sync"
	"time"
)

// Simulation constants: a simple first-order thermal model per zone. Heating
// rate scales with the commanded power; without power the zone drifts back
// toward ambient.
const (
	simAmbientC       = 21.0
	simHeatRateCPerS  = 0.08 // at 100% power
	simCoolRateCPerS  = 0.02
	simProbeJitterMax = 0.0625 // one DS18B20 LSB
)

// SimDriver is a software thermal model standing in for real probes. It also
// accepts power commands, so it doubles as the hardware output driver in
// simulation: the power applied to a channel feeds its zone temperature.
type SimDriver struct {
	mu       sync.Mutex
	zones    map[string]*simZone
	order    []string
	lastStep time.Time
}

type simZone struct {
	tempC    float64
	powerPct float64
}

// NewSimDriver creates a simulator with one probe per channel, identified
// sim-0..sim-n, all starting at ambient.
func NewSimDriver(channels int) *SimDriver {
	d := &SimDriver{zones: make(map[string]*simZone)}
	for i := 0; i < channels; i++ {
		id := fmt.Sprintf("sim-%d", i)
		d.zones[id] = &simZone{tempC: simAmbientC}
		d.order = append(d.order, id)
	}
	return d
}

// Scan returns the synthetic probe identifiers.
func (d *SimDriver) Scan() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.order...), nil
}

// Read advances the thermal model and returns the zone temperature.
func (d *SimDriver) Read(id string) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	z, ok := d.zones[id]
	if !ok {
		return 0, ErrUnknownSensor
	}
	d.step(time.Now())
	return z.tempC, nil
}

// SetPower feeds a channel's power command into its zone model. Implements
// the hardware driver contract: idempotent and non-blocking.
func (d *SimDriver) SetPower(channel int, pct float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if channel < 0 || channel >= len(d.order) {
		return fmt.Errorf("sim: no zone for channel %d", channel)
	}
	d.step(time.Now())
	d.zones[d.order[channel]].powerPct = pct
	return nil
}

// Close releases nothing.
func (d *SimDriver) Close() error { return nil }

// step advances every zone by the elapsed wall time. Caller holds the lock.
func (d *SimDriver) step(now time.Time) {
	if d.lastStep.IsZero() {
		d.lastStep = now
		return
	}
	dt := now.Sub(d.lastStep).Seconds()
	if dt <= 0 {
		return
	}
	d.lastStep = now

	for _, id := range d.order {
		z := d.zones[id]
		z.tempC += simHeatRateCPerS * (z.powerPct / 100.0) * dt
		if z.tempC > simAmbientC {
			drift := simCoolRateCPerS * dt
			if z.tempC-drift < simAmbientC {
				z.tempC = simAmbientC
			} else {
				z.tempC -= drift
			}
		}
	}
}

// advance is a test hook: step the model by dt without wall-clock reads.
func (d *SimDriver) advance(dt time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastStep.IsZero() {
		d.lastStep = time.Unix(0, 0)
	}
	d.step(d.lastStep.Add(dt))
}
