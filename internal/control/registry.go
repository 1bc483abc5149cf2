// Package control is the control and safety core of the zone controller.
// It is pure logic: no I/O, no logging, no time.Now(). Time always arrives
// as a parameter so tests can drive the clock.
package control

import (
	"math"
	"sort"
	"time"

	"zonectl/internal/models"
)

// DisconnectedC is the sentinel a disconnected DS18B20 probe reports.
const DisconnectedC = -127.0

// Valid reading bounds. Anything outside is treated as a sensor error,
// whatever the bus layer said about it.
const (
	MinValidC = -50.0
	MaxValidC = 100.0
)

// ValidTemp reports whether t is a plausible probe reading: not NaN, not the
// disconnected sentinel, and inside the physical range of the probes.
func ValidTemp(t float64) bool {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return false
	}
	if t == DisconnectedC {
		return false
	}
	return t >= MinValidC && t <= MaxValidC
}

// sensorRecord tracks one discovered probe. Records are created on discovery
// and never removed; a probe that disappears just accumulates errors.
type sensorRecord struct {
	id          string
	lastTempC   float64
	lastReadAt  time.Time
	lastValidAt time.Time
	valid       bool
	errorCount  int
}

// SensorRegistry tracks discovered probes, their last reading, and per-probe
// error counters. It is mutated only by the sensor-read path; outputs read it
// by identifier. Staleness escalation is the output's concern, not the
// registry's — it only records timestamps.
type SensorRegistry struct {
	records map[string]*sensorRecord
}

// NewSensorRegistry returns an empty registry.
func NewSensorRegistry() *SensorRegistry {
	return &SensorRegistry{records: make(map[string]*sensorRecord)}
}

// Discover registers a probe identifier if it is not already known.
func (r *SensorRegistry) Discover(id string) {
	if _, ok := r.records[id]; !ok {
		r.records[id] = &sensorRecord{id: id}
	}
}

// Observe records the result of one read attempt. ok=false means the read
// failed at the bus level (no value). A present but implausible value counts
// as invalid too. Invalid reads increment the probe's error counter.
func (r *SensorRegistry) Observe(id string, tempC float64, ok bool, now time.Time) {
	rec, known := r.records[id]
	if !known {
		rec = &sensorRecord{id: id}
		r.records[id] = rec
	}
	rec.lastReadAt = now
	if ok && ValidTemp(tempC) {
		rec.lastTempC = tempC
		rec.lastValidAt = now
		rec.valid = true
		return
	}
	rec.valid = false
	rec.errorCount++
}

// Read returns the last valid temperature for id and whether the most recent
// read attempt was valid. Unknown identifiers read as invalid.
func (r *SensorRegistry) Read(id string) (float64, bool) {
	rec, ok := r.records[id]
	if !ok {
		return 0, false
	}
	return rec.lastTempC, rec.valid
}

// Sample builds the per-tick view of one probe for an output. Bound is false
// when the identifier has never been discovered.
func (r *SensorRegistry) Sample(id string) SensorSample {
	rec, ok := r.records[id]
	if !ok {
		return SensorSample{}
	}
	return SensorSample{
		Bound:       true,
		TempC:       rec.lastTempC,
		Valid:       rec.valid,
		ReadAt:      rec.lastReadAt,
		LastValidAt: rec.lastValidAt,
	}
}

// ErrorCount returns the rolling error counter for id.
func (r *SensorRegistry) ErrorCount(id string) int {
	if rec, ok := r.records[id]; ok {
		return rec.errorCount
	}
	return 0
}

// Snapshot returns the registry contents sorted by identifier.
func (r *SensorRegistry) Snapshot() []models.SensorInfo {
	out := make([]models.SensorInfo, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, models.SensorInfo{
			ID:         rec.id,
			LastTempC:  rec.lastTempC,
			LastReadAt: rec.lastReadAt,
			Valid:      rec.valid,
			ErrorCount: rec.errorCount,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SensorSample is the registry view an output consumes during one tick.
type SensorSample struct {
	Bound       bool      // identifier is known to the registry
	TempC       float64   // last valid temperature
	Valid       bool      // most recent read attempt produced a valid value
	ReadAt      time.Time // most recent read attempt
	LastValidAt time.Time // most recent valid reading
}
