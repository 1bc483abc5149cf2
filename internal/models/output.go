package models

import "time"

// NumChannels is the number of physical output channels on the board.
// Channel indexes are 0..NumChannels-1 everywhere.
const NumChannels = 3

// MaxScheduleSlots is the fixed size of the weekly schedule table.
const MaxScheduleSlots = 8

// Capacity bounds for operator-supplied strings. Enforced at configuration
// time so records never carry oversized values into persistence or telemetry.
const (
	MaxNameLen     = 32
	MaxSensorIDLen = 63
)

// ControlMode selects the algorithm that turns a temperature into a power command.
type ControlMode string

const (
	ModeOff      ControlMode = "OFF"
	ModeManual   ControlMode = "MANUAL"
	ModePID      ControlMode = "PID"
	ModeOnOff    ControlMode = "ONOFF"
	ModeTimeProp ControlMode = "TIMEPROP"
	ModeSchedule ControlMode = "SCHEDULE"
)

// Valid reports whether m is one of the defined control modes.
func (m ControlMode) Valid() bool {
	switch m {
	case ModeOff, ModeManual, ModePID, ModeOnOff, ModeTimeProp, ModeSchedule:
		return true
	}
	return false
}

// HardwareKind is the physical driver class of a channel. It is fixed at
// manufacture time (board layout) and comes from static configuration,
// never from the API.
type HardwareKind string

const (
	HardwareDimmer   HardwareKind = "DIMMER"
	HardwarePulseSSR HardwareKind = "PULSE_SSR"
	HardwareRelay    HardwareKind = "RELAY"
)

// Valid reports whether k is one of the defined hardware kinds.
func (k HardwareKind) Valid() bool {
	switch k {
	case HardwareDimmer, HardwarePulseSSR, HardwareRelay:
		return true
	}
	return false
}

// DeviceClass is what is wired to the channel. Lights may only sit on a
// dimmer; heaters only on an SSR or relay.
type DeviceClass string

const (
	DeviceHeater DeviceClass = "HEATER"
	DeviceLight  DeviceClass = "LIGHT"
)

// Valid reports whether c is one of the defined device classes.
func (c DeviceClass) Valid() bool {
	return c == DeviceHeater || c == DeviceLight
}

// CompatibleWith reports whether a device of class c may be driven by
// hardware of kind k.
func (c DeviceClass) CompatibleWith(k HardwareKind) bool {
	switch c {
	case DeviceLight:
		return k == HardwareDimmer
	case DeviceHeater:
		return k == HardwarePulseSSR || k == HardwareRelay
	}
	return false
}

// FaultResponse is the configured policy applied to the power command while
// a fault is active. OverTemp ignores it and always forces zero.
type FaultResponse string

const (
	FaultRespOff      FaultResponse = "OFF"
	FaultRespHoldLast FaultResponse = "HOLD_LAST"
	FaultRespCapPower FaultResponse = "CAP_POWER"
)

// Valid reports whether r is one of the defined fault responses.
func (r FaultResponse) Valid() bool {
	switch r {
	case FaultRespOff, FaultRespHoldLast, FaultRespCapPower:
		return true
	}
	return false
}

// PIDGains holds the three controller gains.
type PIDGains struct {
	Kp float64 `json:"kp"`
	Ki float64 `json:"ki"`
	Kd float64 `json:"kd"`
}

// TimeProportional holds the duty-cycle conversion parameters. Minimum on
// and off durations protect switching hardware from rapid cycling.
type TimeProportional struct {
	CycleSeconds  float64 `json:"cycle_s"`
	MinOnSeconds  float64 `json:"min_on_s"`
	MinOffSeconds float64 `json:"min_off_s"`
}

// ScheduleSlot is one entry of the weekly slot table. Days is a bitmask with
// bit 0 = Sunday through bit 6 = Saturday, matching time.Weekday.
type ScheduleSlot struct {
	Enabled bool    `json:"enabled"`
	Hour    int     `json:"hour"`
	Minute  int     `json:"minute"`
	TargetC float64 `json:"target_c"`
	Days    uint8   `json:"days"`
}

// AppliesOn reports whether the slot is active on the given weekday.
func (s ScheduleSlot) AppliesOn(day time.Weekday) bool {
	return s.Days&(1<<uint(day)) != 0
}

// SafetyLimits bound the operating envelope of one output.
type SafetyLimits struct {
	MaxTempC       float64 `json:"max_temp_c"`
	MinTempC       float64 `json:"min_temp_c"`
	SensorTimeoutS int     `json:"sensor_timeout_s"`
}

// OutputConfig is the persisted configuration of one channel. Owned
// exclusively by its Output; mutated only through the configuration
// operations and saved/restored through the repository.
type OutputConfig struct {
	Channel       int              `json:"channel"`
	Enabled       bool             `json:"enabled"`
	Name          string           `json:"name"`
	Hardware      HardwareKind     `json:"hardware"`
	Device        DeviceClass      `json:"device"`
	SensorID      string           `json:"sensor_id,omitempty"`
	Mode          ControlMode      `json:"mode"`
	ManualPct     float64          `json:"manual_pct"`
	TargetC       float64          `json:"target_c"`
	PID           PIDGains         `json:"pid"`
	TimeProp      TimeProportional `json:"timeprop"`
	Schedule      []ScheduleSlot   `json:"schedule,omitempty"`
	Limits        SafetyLimits     `json:"limits"`
	FaultResponse FaultResponse    `json:"fault_response"`
	FaultCapPct   float64          `json:"fault_cap_pct"`
	AutoResume    bool             `json:"auto_resume"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// DefaultOutputConfig returns the factory configuration for a channel with
// the given hardware kind: disabled, mode OFF, conservative limits.
func DefaultOutputConfig(channel int, hw HardwareKind) OutputConfig {
	device := DeviceHeater
	if hw == HardwareDimmer {
		device = DeviceLight
	}
	return OutputConfig{
		Channel:   channel,
		Enabled:   false,
		Name:      "",
		Hardware:  hw,
		Device:    device,
		Mode:      ModeOff,
		ManualPct: 0,
		TargetC:   21.0,
		PID:       PIDGains{Kp: 8.0, Ki: 0.2, Kd: 2.0},
		TimeProp: TimeProportional{
			CycleSeconds:  30,
			MinOnSeconds:  1,
			MinOffSeconds: 1,
		},
		Limits: SafetyLimits{
			MaxTempC:       40.0,
			MinTempC:       5.0,
			SensorTimeoutS: 30,
		},
		FaultResponse: FaultRespOff,
		FaultCapPct:   0,
		AutoResume:    false,
	}
}
