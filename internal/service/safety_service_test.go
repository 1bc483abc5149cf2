package service

import (
	"context"
	"testing"

	"zonectl/internal/models"
	"zonectl/internal/telemetry"
)

func newSafetyFixture() (*SafetyService, *fakeEventRepo, *telemetry.FakeSink) {
	events := &fakeEventRepo{}
	sink := telemetry.NewFakeSink()
	svc := NewSafetyService(testController(), events, sink, nil)
	return svc, events, sink
}

func TestSafetyService_EnterSafeMode_LatchesAndForcesOff(t *testing.T) {
	svc, events, sink := newSafetyFixture()

	// put one channel into MANUAL so we can see it forced off
	if err := svc.ctrl.SetMode(1, models.ModeManual); err != nil {
		t.Fatalf("SetMode: %v", err)
	}

	if err := svc.EnterSafeMode(context.Background()); err != nil {
		t.Fatalf("EnterSafeMode: %v", err)
	}

	st, _ := svc.State(context.Background())
	if !st.SafeMode || st.SafeModeReason != models.SafeReasonUserRequested {
		t.Fatalf("safety state = %+v", st)
	}

	cfg, err := svc.ctrl.OutputConfig(1)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != models.ModeOff {
		t.Fatalf("expected channel 1 forced to OFF, got %s", cfg.Mode)
	}

	if len(events.events) != 1 || events.events[0].Type != models.EventSafeMode {
		t.Fatalf("events = %+v", events.events)
	}
	if events.events[0].Channel != models.SystemChannel {
		t.Fatalf("safe-mode events are device-level, got channel %d", events.events[0].Channel)
	}
	if len(sink.Events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(sink.Events))
	}
}

func TestSafetyService_ExitSafeMode_Releases(t *testing.T) {
	svc, events, _ := newSafetyFixture()

	if err := svc.EnterSafeMode(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := svc.ExitSafeMode(context.Background()); err != nil {
		t.Fatal(err)
	}

	st, _ := svc.State(context.Background())
	if st.SafeMode {
		t.Fatalf("safe mode still active: %+v", st)
	}
	if len(events.events) != 2 {
		t.Fatalf("expected enter+exit events, got %d", len(events.events))
	}

	// normal operation is possible again
	if err := svc.ctrl.SetMode(1, models.ModeManual); err != nil {
		t.Fatalf("SetMode after exit: %v", err)
	}
}

func TestSafetyService_EmergencyStop_DoesNotLatchSafeMode(t *testing.T) {
	svc, events, _ := newSafetyFixture()

	if err := svc.ctrl.SetMode(2, models.ModeManual); err != nil {
		t.Fatal(err)
	}
	if err := svc.EmergencyStop(context.Background()); err != nil {
		t.Fatalf("EmergencyStop: %v", err)
	}

	cfg, _ := svc.ctrl.OutputConfig(2)
	if cfg.Mode != models.ModeOff {
		t.Fatalf("expected OFF after emergency stop, got %s", cfg.Mode)
	}

	st, _ := svc.State(context.Background())
	if st.SafeMode {
		t.Fatalf("emergency stop must not latch safe mode")
	}
	if len(events.events) != 1 || events.events[0].Type != models.EventEmergencyStop {
		t.Fatalf("events = %+v", events.events)
	}
}
