package control

import (
	"errors"
	"testing"
	"time"

	"zonectl/internal/models"
)

func testChannelConfigs() [models.NumChannels]models.OutputConfig {
	var cfgs [models.NumChannels]models.OutputConfig
	cfgs[0] = models.DefaultOutputConfig(0, models.HardwarePulseSSR)
	cfgs[1] = models.DefaultOutputConfig(1, models.HardwareRelay)
	cfgs[2] = models.DefaultOutputConfig(2, models.HardwareDimmer)
	return cfgs
}

func newTestController() *Controller {
	safety := newTestSafety(models.SafetyState{}, nil)
	return NewController(testChannelConfigs(), safety)
}

func TestControllerIndexBounds(t *testing.T) {
	c := newTestController()
	for _, i := range []int{-1, models.NumChannels, 99} {
		if err := c.SetMode(i, models.ModeOff); !errors.Is(err, ErrInvalidIndex) {
			t.Fatalf("SetMode(%d) = %v, want ErrInvalidIndex", i, err)
		}
		if _, err := c.OutputStatus(i); !errors.Is(err, ErrInvalidIndex) {
			t.Fatalf("OutputStatus(%d) = %v, want ErrInvalidIndex", i, err)
		}
	}
}

func TestControllerHeaterOnDimmerRejected(t *testing.T) {
	c := newTestController()
	err := c.SetDevice(2, models.DeviceHeater, "28-0001")
	if !errors.Is(err, ErrIncompatibleHardware) {
		t.Fatalf("got %v, want ErrIncompatibleHardware", err)
	}
	cfg, _ := c.OutputConfig(2)
	if cfg.Device != models.DeviceLight || cfg.SensorID != "" {
		t.Fatalf("rejected binding mutated config: %+v", cfg)
	}
}

func TestControllerTickAllIndependentOutputs(t *testing.T) {
	c := newTestController()
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	for i := 0; i < models.NumChannels; i++ {
		if err := c.SetProfile(i, "", true); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.SetDevice(0, models.DeviceHeater, "28-0001"); err != nil {
		t.Fatal(err)
	}
	if err := c.SetMode(0, models.ModeManual); err != nil {
		t.Fatal(err)
	}
	if err := c.SetManualPower(0, 75); err != nil {
		t.Fatal(err)
	}

	// Channel 0's sensor goes over-temperature; the other channels keep
	// their own state.
	c.ObserveSensor("28-0001", 42.0, true, now)
	res := c.TickAll(now)

	if res.Powers[0] != 0 {
		t.Fatalf("channel 0 power = %.0f, want 0 (OverTemp)", res.Powers[0])
	}
	if len(res.Faults) != 1 || res.Faults[0].Channel != 0 || res.Faults[0].To != models.FaultOverTemp {
		t.Fatalf("fault transitions = %+v", res.Faults)
	}
	for i := 1; i < models.NumChannels; i++ {
		st, _ := c.OutputStatus(i)
		if st.Fault != models.FaultNone {
			t.Fatalf("channel %d inherited a fault: %s", i, st.Fault)
		}
	}
}

func TestControllerEmergencyStop(t *testing.T) {
	c := newTestController()
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	for i := 0; i < models.NumChannels; i++ {
		_ = c.SetProfile(i, "", true)
		_ = c.SetMode(i, models.ModeManual)
		_ = c.SetManualPower(i, 100)
	}
	c.TickAll(now)

	c.EmergencyStop()
	for i := 0; i < models.NumChannels; i++ {
		st, _ := c.OutputStatus(i)
		if st.Mode != models.ModeOff || st.PowerPct != 0 {
			t.Fatalf("channel %d after emergency stop: mode=%s power=%.0f", i, st.Mode, st.PowerPct)
		}
	}
}

func TestControllerSafeModeForcesAllOutputsOff(t *testing.T) {
	c := newTestController()
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	for i := 0; i < models.NumChannels; i++ {
		_ = c.SetProfile(i, "", true)
		_ = c.SetMode(i, models.ModeManual)
		_ = c.SetManualPower(i, 100)
	}
	res := c.TickAll(now)
	for i, p := range res.Powers {
		if p != 100 {
			t.Fatalf("channel %d pre-safe-mode power = %.0f", i, p)
		}
	}

	if err := c.Safety().RequestSafeMode(now, models.SafeReasonBootLoop); err != nil {
		t.Fatal(err)
	}
	res = c.TickAll(now.Add(time.Second))
	for i, p := range res.Powers {
		if p != 0 {
			t.Fatalf("channel %d power in safe mode = %.0f, want 0", i, p)
		}
	}

	// Mode changes away from OFF are refused while safe mode is active.
	if err := c.SetMode(0, models.ModeManual); !errors.Is(err, ErrSafeModeActive) {
		t.Fatalf("SetMode in safe mode = %v, want ErrSafeModeActive", err)
	}
}

func TestControllerRegisterBootLoopForcesOutputsOff(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	// Two prior boots without reaching stability; this clean boot crosses
	// the threshold.
	prior := models.SafetyState{
		BootCount:     BootLoopThreshold - 1,
		LastBootAt:    now.Add(-time.Minute),
		CleanShutdown: true,
	}
	cfgs := testChannelConfigs()
	cfgs[0].Enabled = true
	cfgs[0].Mode = models.ModeManual
	cfgs[0].ManualPct = 100
	c := NewController(cfgs, newTestSafety(prior, nil))

	entered, err := c.RegisterBoot(now)
	if err != nil {
		t.Fatal(err)
	}
	if !entered {
		t.Fatal("boot at threshold did not enter safe mode")
	}
	for i := 0; i < models.NumChannels; i++ {
		st, _ := c.OutputStatus(i)
		if st.Mode != models.ModeOff || st.PowerPct != 0 {
			t.Fatalf("channel %d after boot-loop entry: mode=%s power=%.0f", i, st.Mode, st.PowerPct)
		}
	}

	// Leaving safe mode must not resume the pre-boot manual mode.
	if err := c.Safety().ExitSafeMode(now.Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	res := c.TickAll(now.Add(2 * time.Second))
	if res.Powers[0] != 0 {
		t.Fatalf("channel 0 heated after safe-mode exit: power = %.0f", res.Powers[0])
	}
}

func TestControllerRegisterBootCarriedSafeModeForcesOutputsOff(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	prior := models.SafetyState{
		BootCount:      1,
		LastBootAt:     now.Add(-time.Minute),
		CleanShutdown:  true,
		SafeMode:       true,
		SafeModeReason: models.SafeReasonUserRequested,
	}
	cfgs := testChannelConfigs()
	cfgs[1].Enabled = true
	cfgs[1].Mode = models.ModeOnOff
	c := NewController(cfgs, newTestSafety(prior, nil))

	entered, err := c.RegisterBoot(now)
	if err != nil {
		t.Fatal(err)
	}
	if entered {
		t.Fatal("carried-over safe mode reported as a fresh entry")
	}
	st, _ := c.OutputStatus(1)
	if st.Mode != models.ModeOff {
		t.Fatalf("channel 1 mode = %s while safe mode carried over, want OFF", st.Mode)
	}
}

func TestControllerDirtyConfigs(t *testing.T) {
	c := newTestController()
	if dirty := c.DirtyConfigs(); len(dirty) != 0 {
		t.Fatalf("fresh controller dirty = %d", len(dirty))
	}

	_ = c.SetTarget(1, 30.0)
	dirty := c.DirtyConfigs()
	if len(dirty) != 1 || dirty[0].Channel != 1 || dirty[0].TargetC != 30.0 {
		t.Fatalf("dirty = %+v", dirty)
	}
	// Flags are consumed.
	if dirty := c.DirtyConfigs(); len(dirty) != 0 {
		t.Fatalf("dirty flags not consumed: %d", len(dirty))
	}
}

func TestControllerBoundSensorIDs(t *testing.T) {
	c := newTestController()
	_ = c.SetDevice(0, models.DeviceHeater, "28-0001")
	_ = c.SetDevice(1, models.DeviceHeater, "28-0001")

	ids := c.BoundSensorIDs()
	if len(ids) != 1 || ids[0] != "28-0001" {
		t.Fatalf("ids = %v", ids)
	}
}

func TestControllerSnapshot(t *testing.T) {
	c := newTestController()
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	c.ObserveSensor("28-0001", 21.0, true, now)

	snap := c.Snapshot(now)
	if len(snap.Outputs) != models.NumChannels {
		t.Fatalf("outputs = %d", len(snap.Outputs))
	}
	if len(snap.Sensors) != 1 || snap.Sensors[0].ID != "28-0001" {
		t.Fatalf("sensors = %+v", snap.Sensors)
	}
	if !snap.Now.Equal(now) {
		t.Fatalf("snapshot time = %v", snap.Now)
	}
}
