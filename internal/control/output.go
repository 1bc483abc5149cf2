package control

import (
	"time"

	"zonectl/internal/models"
)

// Hard target bound enforced by the core on every set-point, schedule slots
// included. UI convenience bands are layered above this and are not the
// core's business.
const (
	MinTargetC = 15.0
	MaxTargetC = 45.0
)

// faultClearMarginC is the hysteresis on fault clearing: a temperature fault
// clears only once the condition is false by at least this margin, so the
// boundary cannot chatter.
const faultClearMarginC = 1.0

// FaultCapCeilingPct is the hard ceiling on the CAP_POWER fault response.
// Requests above it are clamped, deliberately, since capping is itself a
// safety feature.
const FaultCapCeilingPct = 50.0

// Output is the state machine of one physical channel: its configuration,
// mode runtime, and fault state. It is exclusively owned by the Controller;
// nothing here reads or writes another output's state.
type Output struct {
	cfg models.OutputConfig

	// runtime, not persisted
	currentTemp  float64
	haveTemp     bool
	power        float64
	heating      bool
	sensorHealth models.SensorHealth
	fault        models.FaultKind
	faultSince   time.Time
	lastGoodTemp float64
	lastGoodPct  float64

	pid pidState
	tp  tpState

	scheduleTarget    float64
	hasScheduleTarget bool

	dirty bool // config changed since last persist
}

// NewOutput builds an output from its persisted configuration.
func NewOutput(cfg models.OutputConfig) *Output {
	return &Output{
		cfg:          cfg,
		sensorHealth: models.SensorOK,
		fault:        models.FaultNone,
	}
}

// Config returns a copy of the persisted configuration.
func (o *Output) Config() models.OutputConfig { return o.cfg }

// Fault returns the active fault kind.
func (o *Output) Fault() models.FaultKind { return o.fault }

// Power returns the current commanded power percentage.
func (o *Output) Power() float64 { return o.power }

// Dirty reports and clears the config-changed flag. The runner uses it to
// decide which channels need persisting after an operation.
func (o *Output) Dirty() bool {
	d := o.dirty
	o.dirty = false
	return d
}

// Status builds a point-in-time snapshot of the channel.
func (o *Output) Status() models.OutputStatus {
	return models.OutputStatus{
		Channel:       o.cfg.Channel,
		Name:          o.cfg.Name,
		Enabled:       o.cfg.Enabled,
		Hardware:      o.cfg.Hardware,
		Device:        o.cfg.Device,
		Mode:          o.cfg.Mode,
		SensorID:      o.cfg.SensorID,
		CurrentTempC:  o.currentTemp,
		TargetC:       o.activeTarget(),
		PowerPct:      o.power,
		Heating:       o.heating,
		SensorHealth:  o.sensorHealth,
		Fault:         o.fault,
		FaultSince:    o.faultSince,
		LastGoodTempC: o.lastGoodTemp,
		LastGoodPct:   o.lastGoodPct,
	}
}

func (o *Output) activeTarget() float64 {
	if o.cfg.Mode == models.ModeSchedule && o.hasScheduleTarget {
		return o.scheduleTarget
	}
	return o.cfg.TargetC
}

// ---- configuration operations ----

// SetProfile updates the display name and enabled flag. The name is
// capacity-bounded; oversized values are rejected, never truncated.
func (o *Output) SetProfile(name string, enabled bool) error {
	if len(name) > models.MaxNameLen {
		return ErrInvalidRange
	}
	o.cfg.Name = name
	o.cfg.Enabled = enabled
	if !enabled {
		o.power = 0
		o.heating = false
	}
	o.dirty = true
	return nil
}

// SetMode switches the control mode and resets the mode runtime so a stale
// integral or cycle phase cannot leak across modes.
func (o *Output) SetMode(mode models.ControlMode) error {
	if !mode.Valid() {
		return ErrInvalidMode
	}
	if o.cfg.Mode == mode {
		return nil
	}
	o.cfg.Mode = mode
	o.pid.reset()
	o.tp.reset()
	o.hasScheduleTarget = false
	o.dirty = true
	return nil
}

// SetTarget sets the configured set-point, enforcing the hard safety bound.
func (o *Output) SetTarget(tempC float64) error {
	if tempC < MinTargetC || tempC > MaxTargetC {
		return ErrInvalidRange
	}
	o.cfg.TargetC = tempC
	o.pid.reset()
	o.tp.reset()
	o.dirty = true
	return nil
}

// SetManualPower sets the stored manual power percentage.
func (o *Output) SetManualPower(pct float64) error {
	if pct < 0 || pct > 100 {
		return ErrInvalidRange
	}
	o.cfg.ManualPct = pct
	o.dirty = true
	return nil
}

// SetPIDGains replaces the loop gains. Negative gains are rejected.
func (o *Output) SetPIDGains(g models.PIDGains) error {
	if g.Kp < 0 || g.Ki < 0 || g.Kd < 0 {
		return ErrInvalidRange
	}
	o.cfg.PID = g
	o.pid.reset()
	o.tp.reset()
	o.dirty = true
	return nil
}

// SetTimeProportional replaces the duty-cycle conversion parameters.
func (o *Output) SetTimeProportional(tp models.TimeProportional) error {
	if tp.CycleSeconds <= 0 || tp.MinOnSeconds < 0 || tp.MinOffSeconds < 0 {
		return ErrInvalidRange
	}
	if tp.MinOnSeconds+tp.MinOffSeconds > tp.CycleSeconds {
		return ErrInvalidRange
	}
	o.cfg.TimeProp = tp
	o.tp.reset()
	o.dirty = true
	return nil
}

// SetSchedule replaces the weekly slot table. Slot targets are held to the
// same hard bound as SetTarget.
func (o *Output) SetSchedule(slots []models.ScheduleSlot) error {
	if len(slots) > models.MaxScheduleSlots {
		return ErrInvalidRange
	}
	for _, s := range slots {
		if s.Hour < 0 || s.Hour > 23 || s.Minute < 0 || s.Minute > 59 {
			return ErrInvalidRange
		}
		if s.Enabled && (s.TargetC < MinTargetC || s.TargetC > MaxTargetC) {
			return ErrInvalidRange
		}
	}
	o.cfg.Schedule = append([]models.ScheduleSlot(nil), slots...)
	o.hasScheduleTarget = false
	o.dirty = true
	return nil
}

// SetSafetyLimits replaces the operating envelope. max must exceed min.
func (o *Output) SetSafetyLimits(maxC, minC float64, timeoutS int) error {
	if maxC <= minC || timeoutS < 0 {
		return ErrInvalidRange
	}
	o.cfg.Limits = models.SafetyLimits{MaxTempC: maxC, MinTempC: minC, SensorTimeoutS: timeoutS}
	o.dirty = true
	return nil
}

// SetFaultResponse sets the fault policy. capPct is clamped to the hard
// ceiling rather than rejected.
func (o *Output) SetFaultResponse(resp models.FaultResponse, capPct float64) error {
	if !resp.Valid() {
		return ErrInvalidRange
	}
	o.cfg.FaultResponse = resp
	o.cfg.FaultCapPct = clamp(capPct, 0, FaultCapCeilingPct)
	o.dirty = true
	return nil
}

// SetAutoResume toggles automatic recovery from sensor faults.
func (o *Output) SetAutoResume(on bool) {
	o.cfg.AutoResume = on
	o.dirty = true
}

// SetDevice binds a device class and sensor to the channel. The hardware
// kind is immutable; incompatible bindings are rejected and leave the prior
// configuration untouched.
func (o *Output) SetDevice(device models.DeviceClass, sensorID string) error {
	if !device.Valid() {
		return ErrInvalidRange
	}
	if len(sensorID) > models.MaxSensorIDLen {
		return ErrInvalidRange
	}
	if !device.CompatibleWith(o.cfg.Hardware) {
		return ErrIncompatibleHardware
	}
	o.cfg.Device = device
	o.cfg.SensorID = sensorID
	o.dirty = true
	return nil
}

// ClearFault clears the active fault if its condition is no longer true.
// Sensor faults require a healthy sensor; temperature faults require the
// temperature back inside limits by the clear margin. Otherwise the call
// fails and reports the fault that is still active.
func (o *Output) ClearFault() error {
	switch o.fault {
	case models.FaultNone:
		return nil
	case models.FaultSensorStale, models.FaultSensorError:
		if o.sensorHealth != models.SensorOK {
			return &FaultStillActiveError{Fault: o.fault}
		}
	case models.FaultOverTemp:
		if !o.haveTemp || o.currentTemp > o.cfg.Limits.MaxTempC-faultClearMarginC {
			return &FaultStillActiveError{Fault: o.fault}
		}
	case models.FaultUnderTemp:
		if !o.haveTemp || o.currentTemp < o.cfg.Limits.MinTempC+faultClearMarginC {
			return &FaultStillActiveError{Fault: o.fault}
		}
	default:
		// Reserved kinds are never raised; clearing them is always allowed.
	}
	o.fault = models.FaultNone
	o.faultSince = time.Time{}
	return nil
}

// ForceOff drops the output to OFF at zero power, bypassing policy. Used by
// the emergency stop and safe-mode entry.
func (o *Output) ForceOff() {
	o.cfg.Mode = models.ModeOff
	o.power = 0
	o.heating = false
	o.pid.reset()
	o.tp.reset()
	o.dirty = true
}

// ---- tick ----

// Tick runs one control cycle: fault evaluation, target resolution, raw
// power computation, fault policy override, clamp and commit. It is bounded
// work with no I/O.
func (o *Output) Tick(now time.Time, s SensorSample) {
	o.evalFault(now, s)

	power := o.rawPower(now)
	power = o.applyFaultPolicy(power)

	o.power = clamp(power, minPowerPct, maxPowerPct)
	o.heating = o.power > 0
	if o.fault == models.FaultNone && o.haveTemp {
		o.lastGoodTemp = o.currentTemp
		o.lastGoodPct = o.power
	}
}

// evalFault derives sensor health and the active fault from the sample.
// Temperature faults latch until explicitly cleared; sensor faults clear on
// recovery only when auto-resume is configured.
func (o *Output) evalFault(now time.Time, s SensorSample) {
	cond := models.FaultNone

	if o.cfg.SensorID != "" {
		timeout := time.Duration(o.cfg.Limits.SensorTimeoutS) * time.Second
		switch {
		case s.Bound && !s.LastValidAt.IsZero() && timeout > 0 && now.Sub(s.LastValidAt) >= timeout:
			// No valid reading within the timeout, whatever the last
			// attempt looked like.
			o.sensorHealth = models.SensorStale
			cond = models.FaultSensorStale
		case s.Bound && s.Valid:
			o.currentTemp = s.TempC
			o.haveTemp = true
			o.sensorHealth = models.SensorOK
		default:
			o.sensorHealth = models.SensorErrored
			cond = models.FaultSensorError
		}
	}

	if cond == models.FaultNone && o.haveTemp {
		switch {
		case o.currentTemp >= o.cfg.Limits.MaxTempC:
			cond = models.FaultOverTemp
		case o.currentTemp <= o.cfg.Limits.MinTempC:
			cond = models.FaultUnderTemp
		}
	}

	switch {
	case cond != models.FaultNone:
		// A latched temperature fault is never displaced by sensor
		// trouble: the latch only releases through ClearFault, and
		// sensorHealth carries the sensor condition on its own.
		if o.fault.IsTemperatureFault() && cond.IsSensorFault() {
			return
		}
		if o.fault != cond {
			o.fault = cond
			o.faultSince = now
		}
	case o.fault == models.FaultNone:
		// healthy
	case o.fault.IsSensorFault() && o.cfg.AutoResume:
		o.fault = models.FaultNone
		o.faultSince = time.Time{}
	default:
		// latched until ClearFault
	}
}

// rawPower computes the mode's power command before the fault policy.
func (o *Output) rawPower(now time.Time) float64 {
	if !o.cfg.Enabled || o.cfg.Mode == models.ModeOff {
		return 0
	}

	switch o.cfg.Mode {
	case models.ModeManual:
		return o.cfg.ManualPct
	case models.ModePID:
		return o.pid.step(now, o.cfg.PID, o.cfg.TargetC, o.currentTemp, o.power)
	case models.ModeOnOff:
		return onOffPower(o.cfg.TargetC, o.currentTemp, o.power)
	case models.ModeTimeProp:
		return o.tp.step(now, o.cfg.PID, o.cfg.TimeProp, o.cfg.TargetC, o.currentTemp)
	case models.ModeSchedule:
		target, ok := o.resolveScheduleTarget(now)
		if !ok {
			return 0
		}
		return o.pid.step(now, o.cfg.PID, target, o.currentTemp, o.power)
	}
	return 0
}

// resolveScheduleTarget picks the active schedule target. An unsynced clock
// falls back to the last resolved target; with no slot ever matched the
// configured default set-point applies, and without a synced clock the
// output stays off.
func (o *Output) resolveScheduleTarget(now time.Time) (float64, bool) {
	if target, ok := resolveSchedule(o.cfg.Schedule, now); ok {
		o.scheduleTarget = target
		o.hasScheduleTarget = true
		return target, true
	}
	if !ClockSynced(now) {
		if o.hasScheduleTarget {
			return o.scheduleTarget, true
		}
		return 0, false
	}
	// Clock is fine, the table just has no matching slot.
	o.scheduleTarget = o.cfg.TargetC
	o.hasScheduleTarget = true
	return o.cfg.TargetC, true
}

// applyFaultPolicy overrides the raw power while a fault is active. OverTemp
// is the one condition nothing can supersede: power is zero regardless of
// mode or policy.
func (o *Output) applyFaultPolicy(power float64) float64 {
	switch o.fault {
	case models.FaultNone:
		return power
	case models.FaultOverTemp:
		return 0
	}
	switch o.cfg.FaultResponse {
	case models.FaultRespHoldLast:
		return o.lastGoodPct
	case models.FaultRespCapPower:
		return clamp(power, 0, o.cfg.FaultCapPct)
	default:
		return 0
	}
}
