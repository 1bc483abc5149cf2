package control

import (
	"time"

	"zonectl/internal/models"
)

// tpState converts a duty fraction into an explicit on/off cycle for
// pulse-driven SSR hardware. The duty itself comes from a PID step; this
// state only tracks the cycle phase.
type tpState struct {
	pid        pidState
	cycleStart time.Time
	dutyPct    float64
}

func (t *tpState) reset() {
	*t = tpState{}
}

// step computes the duty via PID, then maps the current position inside the
// cycle window to a full-on or full-off command.
func (t *tpState) step(now time.Time, gains models.PIDGains, cfg models.TimeProportional, target, current float64) float64 {
	t.dutyPct = t.pid.step(now, gains, target, current, t.dutyPct)

	cycle := cfg.CycleSeconds
	if cycle <= 0 {
		cycle = 30
	}
	if t.cycleStart.IsZero() {
		t.cycleStart = now
	}
	elapsed := now.Sub(t.cycleStart).Seconds()
	if elapsed >= cycle {
		// Advance by whole cycles so the phase stays aligned even after
		// a long gap between ticks.
		cycles := int(elapsed / cycle)
		t.cycleStart = t.cycleStart.Add(time.Duration(float64(cycles) * cycle * float64(time.Second)))
		elapsed = now.Sub(t.cycleStart).Seconds()
	}

	return cycleCommand(elapsed, t.dutyPct, cfg)
}

// cycleCommand maps a phase offset inside one cycle to a full-on or full-off
// command for the given duty. Minimum on and off durations protect the
// switching hardware: an on-time shorter than the minimum is stretched to
// it, and an off-time shorter than the minimum turns the whole cycle on.
// The mapping is pure, so the cycle is restartable from any phase offset.
func cycleCommand(elapsed, dutyPct float64, cfg models.TimeProportional) float64 {
	cycle := cfg.CycleSeconds
	if cycle <= 0 {
		cycle = 30
	}

	onTime := dutyPct / 100.0 * cycle
	if onTime <= 0 {
		return minPowerPct
	}
	if onTime < cfg.MinOnSeconds {
		onTime = cfg.MinOnSeconds
	}
	if cycle-onTime < cfg.MinOffSeconds {
		onTime = cycle
	}

	if elapsed < onTime {
		return maxPowerPct
	}
	return minPowerPct
}

// Duty returns the most recently computed duty fraction in percent.
func (t *tpState) Duty() float64 { return t.dutyPct }
