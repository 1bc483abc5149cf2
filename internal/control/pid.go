package control

import (
	"time"

	"zonectl/internal/models"
)

// PID tuning guards. Ticks closer together than minPIDStep are no-ops so the
// derivative term cannot explode on a fast scheduler; the integral clamp is
// the anti-windup bound from the controller design.
const (
	minPIDStep       = 100 * time.Millisecond
	integralLimit    = 100.0
	maxPowerPct      = 100.0
	minPowerPct      = 0.0
	onOffHysteresisC = 0.5
)

// pidState is the runtime of one PID loop. Zero value is a fresh loop.
type pidState struct {
	integral float64
	lastErr  float64
	lastTick time.Time
}

// reset clears accumulated state, used on mode or target changes.
func (p *pidState) reset() {
	*p = pidState{}
}

// step advances the loop and returns the new power command. prev is returned
// unchanged when the guard interval has not elapsed. The first call only
// establishes the baseline.
func (p *pidState) step(now time.Time, gains models.PIDGains, target, current, prev float64) float64 {
	err := target - current
	if p.lastTick.IsZero() {
		p.lastTick = now
		p.lastErr = err
		return prev
	}
	dt := now.Sub(p.lastTick).Seconds()
	if dt < minPIDStep.Seconds() {
		return prev
	}

	p.integral += err * dt
	p.integral = clamp(p.integral, -integralLimit, integralLimit)
	derivative := (err - p.lastErr) / dt

	p.lastErr = err
	p.lastTick = now

	power := gains.Kp*err + gains.Ki*p.integral + gains.Kd*derivative
	return clamp(power, minPowerPct, maxPowerPct)
}

// onOffPower is the classic hysteresis band: on below target-0.5, off above
// target+0.5, unchanged in between.
func onOffPower(target, current, prev float64) float64 {
	switch {
	case current < target-onOffHysteresisC:
		return maxPowerPct
	case current > target+onOffHysteresisC:
		return minPowerPct
	default:
		return prev
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
