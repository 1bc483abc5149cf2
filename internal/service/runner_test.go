package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"zonectl/internal/control"
	"zonectl/internal/hardware"
	"zonectl/internal/models"
	"zonectl/internal/repository"
	"zonectl/internal/sensor"
	"zonectl/internal/telemetry"
)

type fakeHistory struct {
	records []models.ControllerStatus
	err     error
}

func (f *fakeHistory) Record(_ context.Context, st models.ControllerStatus) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, st)
	return nil
}

type runnerFixture struct {
	runner  *RunnerService
	ctrl    *control.Controller
	hw      *hardware.Fake
	configs *fakeConfigRepo
	events  *fakeEventRepo
	sink    *telemetry.FakeSink
	history *fakeHistory
}

func newRunnerFixture(t *testing.T, probes map[string][]sensor.FakeSample) *runnerFixture {
	t.Helper()
	ctrl := testController()
	hw := hardware.NewFake()
	configs := &fakeConfigRepo{}
	events := &fakeEventRepo{}
	sink := telemetry.NewFakeSink()
	history := &fakeHistory{}
	repos := &repository.Repository{Outputs: configs, Events: events}
	r := NewRunnerService(ctrl, sensor.NewFakeDriver(probes), hw, hardware.NopWatchdog{}, repos, sink, history, nil)
	return &runnerFixture{runner: r, ctrl: ctrl, hw: hw, configs: configs, events: events, sink: sink, history: history}
}

// bindHeater enables channel 1 in MANUAL mode with probe t1 at 30% power.
func bindHeater(t *testing.T, ctrl *control.Controller) {
	t.Helper()
	if err := ctrl.SetDevice(1, models.DeviceHeater, "t1"); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.SetProfile(1, "bench heater", true); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.SetMode(1, models.ModeManual); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.SetManualPower(1, 30); err != nil {
		t.Fatal(err)
	}
}

func TestRunner_RefreshSensors_RecordsReadsAndErrors(t *testing.T) {
	f := newRunnerFixture(t, map[string][]sensor.FakeSample{
		"t1": {{TempC: 22.5}, {Err: sensor.ErrReadFailed}},
	})
	bindHeater(t, f.ctrl)

	now := time.Now().UTC()
	if err := f.runner.refreshSensors(now); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	infos := f.ctrl.Sensors()
	if len(infos) != 1 || infos[0].ID != "t1" || !infos[0].Valid || infos[0].LastTempC != 22.5 {
		t.Fatalf("sensors = %+v", infos)
	}

	// second scripted sample is a read failure: contained, reported, counted
	if err := f.runner.refreshSensors(now.Add(time.Second)); err == nil {
		t.Fatalf("expected read error to be reported")
	}
	infos = f.ctrl.Sensors()
	if infos[0].ErrorCount != 1 {
		t.Fatalf("error count = %d", infos[0].ErrorCount)
	}
}

func TestRunner_TickOutputs_AppliesPowerAndPersists(t *testing.T) {
	f := newRunnerFixture(t, map[string][]sensor.FakeSample{
		"t1": {{TempC: 22.0}},
	})
	bindHeater(t, f.ctrl)

	now := time.Now().UTC()
	if err := f.runner.refreshSensors(now); err != nil {
		t.Fatal(err)
	}
	if err := f.runner.tickOutputs(context.Background(), now); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if pct, ok := f.hw.LastFor(1); !ok || pct != 30 {
		t.Fatalf("hardware command = %v %v", pct, ok)
	}
	// disabled channels get an explicit zero
	if pct, ok := f.hw.LastFor(0); !ok || pct != 0 {
		t.Fatalf("channel 0 command = %v %v", pct, ok)
	}

	// the config mutations above were dirty; the tick persisted them
	if len(f.configs.savedCalls) == 0 {
		t.Fatalf("expected dirty configs persisted")
	}
	// a second tick has nothing left to persist
	saved := len(f.configs.savedCalls)
	if err := f.runner.tickOutputs(context.Background(), now.Add(outputTickPeriod)); err != nil {
		t.Fatal(err)
	}
	if len(f.configs.savedCalls) != saved {
		t.Fatalf("dirty flags must be consumed")
	}
}

func TestRunner_TickOutputs_FaultTransitionRecorded(t *testing.T) {
	f := newRunnerFixture(t, map[string][]sensor.FakeSample{
		"t1": {{TempC: 22.0}, {TempC: 45.0}},
	})
	bindHeater(t, f.ctrl)

	now := time.Now().UTC()
	if err := f.runner.refreshSensors(now); err != nil {
		t.Fatal(err)
	}
	if err := f.runner.tickOutputs(context.Background(), now); err != nil {
		t.Fatal(err)
	}
	if len(f.events.events) != 0 {
		t.Fatalf("no fault expected yet: %+v", f.events.events)
	}

	// 45°C breaches the default 40°C limit
	next := now.Add(time.Second)
	if err := f.runner.refreshSensors(next); err != nil {
		t.Fatal(err)
	}
	if err := f.runner.tickOutputs(context.Background(), next); err != nil {
		t.Fatal(err)
	}

	if pct, _ := f.hw.LastFor(1); pct != 0 {
		t.Fatalf("overtemp must force zero, got %v", pct)
	}
	if len(f.events.events) != 1 {
		t.Fatalf("expected 1 fault event, got %d", len(f.events.events))
	}
	e := f.events.events[0]
	if e.Type != models.EventFault || e.Channel != 1 {
		t.Fatalf("event = %+v", e)
	}
	if len(f.sink.Events) != 1 {
		t.Fatalf("fault must be published, got %d", len(f.sink.Events))
	}
}

func TestRunner_TickOutputs_HardwareErrorContained(t *testing.T) {
	f := newRunnerFixture(t, map[string][]sensor.FakeSample{
		"t1": {{TempC: 22.0}},
	})
	bindHeater(t, f.ctrl)
	f.hw.SetPowerError = errors.New("gpio gone")

	err := f.runner.tickOutputs(context.Background(), time.Now().UTC())
	if err == nil {
		t.Fatalf("expected hardware error to be reported")
	}
	// persistence still ran despite the hardware failure
	if len(f.configs.savedCalls) == 0 {
		t.Fatalf("expected configs persisted despite hardware error")
	}
}

func TestRunner_CheckStability_ResetsBootCounter(t *testing.T) {
	ctrl := control.NewController([models.NumChannels]models.OutputConfig{
		models.DefaultOutputConfig(0, models.HardwareDimmer),
		models.DefaultOutputConfig(1, models.HardwarePulseSSR),
		models.DefaultOutputConfig(2, models.HardwareRelay),
	}, control.NewSafetyManager(models.SafetyState{}, 5*time.Minute, 8*time.Second, nil))

	boot := time.Now().UTC()
	if _, err := ctrl.Safety().Boot(boot); err != nil {
		t.Fatal(err)
	}

	repos := &repository.Repository{Outputs: &fakeConfigRepo{}, Events: &fakeEventRepo{}}
	r := NewRunnerService(ctrl, sensor.NewFakeDriver(nil), hardware.NewFake(), hardware.NopWatchdog{}, repos, telemetry.NewFakeSink(), nil, nil)

	// before the window: no reset
	if err := r.checkStability(boot.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if ctrl.Safety().State().BootCount != 1 {
		t.Fatalf("counter must not reset early")
	}

	// past the window: counter cleared
	if err := r.checkStability(boot.Add(6 * time.Minute)); err != nil {
		t.Fatal(err)
	}
	if st := ctrl.Safety().State(); st.BootCount != 0 || st.StableSince.IsZero() {
		t.Fatalf("state after stability = %+v", st)
	}
}

func TestRunner_RecordHistory(t *testing.T) {
	f := newRunnerFixture(t, nil)

	if err := f.runner.recordHistory(context.Background(), time.Now().UTC()); err != nil {
		t.Fatal(err)
	}
	if len(f.history.records) != 1 {
		t.Fatalf("expected 1 history sample, got %d", len(f.history.records))
	}
	if len(f.history.records[0].Outputs) != models.NumChannels {
		t.Fatalf("snapshot outputs = %d", len(f.history.records[0].Outputs))
	}

	// nil recorder disables history without error
	f.runner.history = nil
	if err := f.runner.recordHistory(context.Background(), time.Now().UTC()); err != nil {
		t.Fatal(err)
	}
}

func TestRunner_PublishStatus(t *testing.T) {
	f := newRunnerFixture(t, nil)

	if err := f.runner.publishStatus(time.Now().UTC()); err != nil {
		t.Fatal(err)
	}
	if len(f.sink.Statuses) != 1 {
		t.Fatalf("expected 1 published status, got %d", len(f.sink.Statuses))
	}
}
