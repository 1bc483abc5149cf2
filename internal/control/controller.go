package control

import (
	"sync"
	"time"

	"zonectl/internal/models"
)

// Controller is the explicit owner of all control state: the fixed array of
// outputs, the sensor registry, and the safety manager. There are no
// singletons and no hidden statics; every operation goes through this
// struct. One mutex serializes API operations against control ticks, which
// realizes the firmware's single-threaded guarantee: persistence never
// interleaves with a tick in flight, and no cross-output mutation can occur.
type Controller struct {
	mu       sync.Mutex
	outputs  [models.NumChannels]*Output
	registry *SensorRegistry
	safety   *SafetyManager
}

// NewController assembles the controller from per-channel configurations and
// a safety manager.
func NewController(cfgs [models.NumChannels]models.OutputConfig, safety *SafetyManager) *Controller {
	c := &Controller{
		registry: NewSensorRegistry(),
		safety:   safety,
	}
	for i, cfg := range cfgs {
		cfg.Channel = i
		c.outputs[i] = NewOutput(cfg)
	}
	return c
}

// Safety returns the safety manager.
func (c *Controller) Safety() *SafetyManager { return c.safety }

// RegisterBoot counts this boot in the safety record. If safe mode is active
// afterwards, freshly latched or carried over from the previous run, every
// output is forced to OFF so a later safe-mode exit cannot resume a stale
// manual or control mode without operator action. Returns whether this boot
// entered safe mode.
func (c *Controller) RegisterBoot(now time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entered, err := c.safety.Boot(now)
	if c.safety.InSafeMode() {
		for _, o := range c.outputs {
			o.ForceOff()
		}
	}
	return entered, err
}

// FaultTransition records one output's fault change during a tick.
type FaultTransition struct {
	Channel int
	From    models.FaultKind
	To      models.FaultKind
}

// TickResult is what one control cycle hands back to the driver loop.
type TickResult struct {
	Powers [models.NumChannels]float64
	Faults []FaultTransition
}

// withOutput runs fn on the indexed output under the lock. Out-of-range
// indexes are an error, never a panic.
func (c *Controller) withOutput(i int, fn func(o *Output) error) error {
	if i < 0 || i >= models.NumChannels {
		return ErrInvalidIndex
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.outputs[i])
}

// ---- configuration operations (spec §4.2) ----

func (c *Controller) SetProfile(i int, name string, enabled bool) error {
	return c.withOutput(i, func(o *Output) error { return o.SetProfile(name, enabled) })
}

func (c *Controller) SetMode(i int, mode models.ControlMode) error {
	return c.withOutput(i, func(o *Output) error {
		if c.safety.InSafeMode() && mode != models.ModeOff {
			return ErrSafeModeActive
		}
		return o.SetMode(mode)
	})
}

func (c *Controller) SetTarget(i int, tempC float64) error {
	return c.withOutput(i, func(o *Output) error { return o.SetTarget(tempC) })
}

func (c *Controller) SetManualPower(i int, pct float64) error {
	return c.withOutput(i, func(o *Output) error { return o.SetManualPower(pct) })
}

func (c *Controller) SetPIDGains(i int, g models.PIDGains) error {
	return c.withOutput(i, func(o *Output) error { return o.SetPIDGains(g) })
}

func (c *Controller) SetTimeProportional(i int, tp models.TimeProportional) error {
	return c.withOutput(i, func(o *Output) error { return o.SetTimeProportional(tp) })
}

func (c *Controller) SetSchedule(i int, slots []models.ScheduleSlot) error {
	return c.withOutput(i, func(o *Output) error { return o.SetSchedule(slots) })
}

func (c *Controller) SetSafetyLimits(i int, maxC, minC float64, timeoutS int) error {
	return c.withOutput(i, func(o *Output) error { return o.SetSafetyLimits(maxC, minC, timeoutS) })
}

func (c *Controller) SetFaultResponse(i int, resp models.FaultResponse, capPct float64) error {
	return c.withOutput(i, func(o *Output) error { return o.SetFaultResponse(resp, capPct) })
}

func (c *Controller) SetAutoResume(i int, on bool) error {
	return c.withOutput(i, func(o *Output) error { o.SetAutoResume(on); return nil })
}

func (c *Controller) SetDevice(i int, device models.DeviceClass, sensorID string) error {
	return c.withOutput(i, func(o *Output) error { return o.SetDevice(device, sensorID) })
}

func (c *Controller) ClearFault(i int) error {
	return c.withOutput(i, func(o *Output) error { return o.ClearFault() })
}

// OutputConfig returns a copy of one channel's persisted configuration.
func (c *Controller) OutputConfig(i int) (models.OutputConfig, error) {
	var cfg models.OutputConfig
	err := c.withOutput(i, func(o *Output) error {
		cfg = o.Config()
		return nil
	})
	return cfg, err
}

// OutputStatus returns a snapshot of one channel.
func (c *Controller) OutputStatus(i int) (models.OutputStatus, error) {
	var st models.OutputStatus
	err := c.withOutput(i, func(o *Output) error {
		st = o.Status()
		return nil
	})
	return st, err
}

// ---- sensor path ----

// ObserveSensor records one read attempt into the registry. Called by the
// refresh task, off the tick path.
func (c *Controller) ObserveSensor(id string, tempC float64, ok bool, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registry.Observe(id, tempC, ok, now)
}

// DiscoverSensor registers a probe identifier from the boot-time scan.
func (c *Controller) DiscoverSensor(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registry.Discover(id)
}

// Sensors returns the registry contents.
func (c *Controller) Sensors() []models.SensorInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Snapshot()
}

// BoundSensorIDs returns the distinct sensor identifiers currently assigned
// to outputs, for the refresh task.
func (c *Controller) BoundSensorIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := map[string]bool{}
	var ids []string
	for _, o := range c.outputs {
		id := o.cfg.SensorID
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// ---- tick ----

// TickAll runs one control cycle for every output. Outputs are independent:
// one channel's fault state never reads or writes another's. In safe mode
// every output is held at zero without running the algorithms.
func (c *Controller) TickAll(now time.Time) TickResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	var res TickResult
	for i, o := range c.outputs {
		if c.safety.InSafeMode() {
			o.power = 0
			o.heating = false
			continue
		}
		before := o.fault
		o.Tick(now, c.registry.Sample(o.cfg.SensorID))
		if o.fault != before {
			res.Faults = append(res.Faults, FaultTransition{Channel: i, From: before, To: o.fault})
		}
		res.Powers[i] = o.power
	}
	return res
}

// EmergencyStop forces every output to OFF at zero power, independent of
// safe-mode state and per-output fault policy. Callable at any time.
func (c *Controller) EmergencyStop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range c.outputs {
		o.ForceOff()
	}
}

// DirtyConfigs returns the configs changed since the last call, for
// persistence. The dirty flags are consumed.
func (c *Controller) DirtyConfigs() []models.OutputConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.OutputConfig
	for _, o := range c.outputs {
		if o.Dirty() {
			out = append(out, o.Config())
		}
	}
	return out
}

// Snapshot builds the whole-device status view.
func (c *Controller) Snapshot(now time.Time) models.ControllerStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := models.ControllerStatus{
		Outputs: make([]models.OutputStatus, 0, models.NumChannels),
		Sensors: c.registry.Snapshot(),
		Safety:  c.safety.State(),
		Now:     now,
	}
	for _, o := range c.outputs {
		st.Outputs = append(st.Outputs, o.Status())
	}
	return st
}
