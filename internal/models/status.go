package models

import "time"

// SensorHealth is the per-output view of its bound sensor.
type SensorHealth string

const (
	SensorOK      SensorHealth = "OK"
	SensorStale   SensorHealth = "STALE"
	SensorErrored SensorHealth = "ERROR"
)

// FaultKind identifies the active operational fault of one output.
// HEATER_NO_RISE and HEATER_RUNAWAY are reserved: defined for forward
// compatibility of stored events and API payloads, never raised yet.
type FaultKind string

const (
	FaultNone          FaultKind = "NONE"
	FaultSensorStale   FaultKind = "SENSOR_STALE"
	FaultSensorError   FaultKind = "SENSOR_ERROR"
	FaultOverTemp      FaultKind = "OVERTEMP"
	FaultUnderTemp     FaultKind = "UNDERTEMP"
	FaultHeaterNoRise  FaultKind = "HEATER_NO_RISE"
	FaultHeaterRunaway FaultKind = "HEATER_RUNAWAY"
)

// IsSensorFault reports whether f is one of the sensor-input faults, which
// follow the auto-resume clearing rules instead of the temperature-margin ones.
func (f FaultKind) IsSensorFault() bool {
	return f == FaultSensorStale || f == FaultSensorError
}

// IsTemperatureFault reports whether f is one of the limit faults, which
// latch until an explicit clear inside the hysteresis margin.
func (f FaultKind) IsTemperatureFault() bool {
	return f == FaultOverTemp || f == FaultUnderTemp
}

// OutputStatus is the point-in-time runtime view of one channel.
// It is a value snapshot, safe to hand to JSON encoders and sinks.
type OutputStatus struct {
	Channel       int          `json:"channel"`
	Name          string       `json:"name,omitempty"`
	Enabled       bool         `json:"enabled"`
	Hardware      HardwareKind `json:"hardware"`
	Device        DeviceClass  `json:"device"`
	Mode          ControlMode  `json:"mode"`
	SensorID      string       `json:"sensor_id,omitempty"`
	CurrentTempC  float64      `json:"current_temp_c"`
	TargetC       float64      `json:"target_c"`
	PowerPct      float64      `json:"power_pct"`
	Heating       bool         `json:"heating"`
	SensorHealth  SensorHealth `json:"sensor_health"`
	Fault         FaultKind    `json:"fault"`
	FaultSince    time.Time    `json:"fault_since,omitempty"`
	LastGoodTempC float64      `json:"last_good_temp_c"`
	LastGoodPct   float64      `json:"last_good_pct"`
}

// SensorInfo is the registry view of one discovered probe.
type SensorInfo struct {
	ID         string    `json:"id"`
	LastTempC  float64   `json:"last_temp_c"`
	LastReadAt time.Time `json:"last_read_at"`
	Valid      bool      `json:"valid"`
	ErrorCount int       `json:"error_count"`
}

// ControllerStatus is the whole-device snapshot served over the API and the
// websocket stream.
type ControllerStatus struct {
	Outputs []OutputStatus `json:"outputs"`
	Sensors []SensorInfo   `json:"sensors"`
	Safety  SafetyState    `json:"safety"`
	Now     time.Time      `json:"now"`
}
