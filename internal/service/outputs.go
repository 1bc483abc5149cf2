package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"zonectl/internal/control"
	"zonectl/internal/logger"
	"zonectl/internal/models"
	"zonectl/internal/repository"
	"zonectl/internal/telemetry"
)

// OutputsService applies configuration operations through the controller and
// takes care of the follow-up duties: persisting the changed config and
// recording the event. The controller validates; a rejected operation leaves
// config, persistence, and the event log untouched.
type OutputsService struct {
	ctrl    *control.Controller
	configs repository.OutputConfigRepo
	events  repository.EventRepo
	sink    telemetry.Sink
	log     *logger.Logger
}

func NewOutputsService(ctrl *control.Controller, configs repository.OutputConfigRepo, events repository.EventRepo, sink telemetry.Sink, log *logger.Logger) *OutputsService {
	return &OutputsService{ctrl: ctrl, configs: configs, events: events, sink: sink, log: log}
}

var _ Outputs = (*OutputsService)(nil)

// apply runs one controller operation and, on success, persists the channel
// config and records the event. Persist and publish failures are logged and
// never fail the operation: the in-memory change already took effect.
func (s *OutputsService) apply(ctx context.Context, channel int, typ models.EventType, msg string, meta map[string]any, op func() error) error {
	if err := op(); err != nil {
		return err
	}
	s.persist(ctx, channel)
	s.record(ctx, typ, channel, msg, meta)
	return nil
}

func (s *OutputsService) persist(ctx context.Context, channel int) {
	cfg, err := s.ctrl.OutputConfig(channel)
	if err != nil {
		return
	}
	if err := s.configs.Save(ctx, cfg); err != nil && s.log != nil {
		s.log.Warnw("config_persist_failed", "channel", channel, "err", err)
	}
}

func (s *OutputsService) record(ctx context.Context, typ models.EventType, channel int, msg string, meta map[string]any) {
	e := models.ControllerEvent{
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Type:       typ,
		Channel:    channel,
		Message:    msg,
		Metadata:   meta,
	}
	if err := s.events.Append(ctx, e); err != nil && s.log != nil {
		s.log.Warnw("event_append_failed", "type", typ, "channel", channel, "err", err)
	}
	if err := s.sink.PublishEvent(e); err != nil && s.log != nil {
		s.log.Warnw("telemetry_publish_failed", "type", typ, "channel", channel, "err", err)
	}
}

func (s *OutputsService) SetProfile(ctx context.Context, channel int, name string, enabled bool) error {
	return s.apply(ctx, channel, models.EventConfigChange,
		fmt.Sprintf("profile updated: %q enabled=%v", name, enabled),
		map[string]any{"name": name, "enabled": enabled},
		func() error { return s.ctrl.SetProfile(channel, name, enabled) })
}

func (s *OutputsService) SetMode(ctx context.Context, channel int, mode models.ControlMode) error {
	return s.apply(ctx, channel, models.EventModeChange,
		"mode changed to "+string(mode),
		map[string]any{"mode": string(mode)},
		func() error { return s.ctrl.SetMode(channel, mode) })
}

func (s *OutputsService) SetTarget(ctx context.Context, channel int, tempC float64) error {
	return s.apply(ctx, channel, models.EventConfigChange,
		fmt.Sprintf("target set to %.1f°C", tempC),
		map[string]any{"target_c": tempC},
		func() error { return s.ctrl.SetTarget(channel, tempC) })
}

func (s *OutputsService) SetManualPower(ctx context.Context, channel int, pct float64) error {
	return s.apply(ctx, channel, models.EventConfigChange,
		fmt.Sprintf("manual power set to %.0f%%", pct),
		map[string]any{"manual_pct": pct},
		func() error { return s.ctrl.SetManualPower(channel, pct) })
}

func (s *OutputsService) SetPIDGains(ctx context.Context, channel int, gains models.PIDGains) error {
	return s.apply(ctx, channel, models.EventConfigChange,
		"pid gains updated",
		map[string]any{"kp": gains.Kp, "ki": gains.Ki, "kd": gains.Kd},
		func() error { return s.ctrl.SetPIDGains(channel, gains) })
}

func (s *OutputsService) SetTimeProportional(ctx context.Context, channel int, tp models.TimeProportional) error {
	return s.apply(ctx, channel, models.EventConfigChange,
		"time-proportional parameters updated",
		map[string]any{"cycle_s": tp.CycleSeconds, "min_on_s": tp.MinOnSeconds, "min_off_s": tp.MinOffSeconds},
		func() error { return s.ctrl.SetTimeProportional(channel, tp) })
}

func (s *OutputsService) SetSchedule(ctx context.Context, channel int, slots []models.ScheduleSlot) error {
	return s.apply(ctx, channel, models.EventConfigChange,
		fmt.Sprintf("schedule updated: %d slots", len(slots)),
		map[string]any{"slots": len(slots)},
		func() error { return s.ctrl.SetSchedule(channel, slots) })
}

func (s *OutputsService) SetSafetyLimits(ctx context.Context, channel int, maxC, minC float64, timeoutS int) error {
	return s.apply(ctx, channel, models.EventConfigChange,
		fmt.Sprintf("safety limits set to [%.1f, %.1f]°C timeout=%ds", minC, maxC, timeoutS),
		map[string]any{"max_temp_c": maxC, "min_temp_c": minC, "sensor_timeout_s": timeoutS},
		func() error { return s.ctrl.SetSafetyLimits(channel, maxC, minC, timeoutS) })
}

func (s *OutputsService) SetFaultResponse(ctx context.Context, channel int, resp models.FaultResponse, capPct float64) error {
	return s.apply(ctx, channel, models.EventConfigChange,
		"fault response set to "+string(resp),
		map[string]any{"fault_response": string(resp), "fault_cap_pct": capPct},
		func() error { return s.ctrl.SetFaultResponse(channel, resp, capPct) })
}

func (s *OutputsService) SetAutoResume(ctx context.Context, channel int, on bool) error {
	return s.apply(ctx, channel, models.EventConfigChange,
		fmt.Sprintf("auto-resume set to %v", on),
		map[string]any{"auto_resume": on},
		func() error { return s.ctrl.SetAutoResume(channel, on) })
}

func (s *OutputsService) SetDevice(ctx context.Context, channel int, device models.DeviceClass, sensorID string) error {
	return s.apply(ctx, channel, models.EventConfigChange,
		fmt.Sprintf("device set to %s sensor=%q", device, sensorID),
		map[string]any{"device": string(device), "sensor_id": sensorID},
		func() error { return s.ctrl.SetDevice(channel, device, sensorID) })
}

func (s *OutputsService) ClearFault(ctx context.Context, channel int) error {
	return s.apply(ctx, channel, models.EventFaultCleared,
		"fault cleared by operator",
		nil,
		func() error { return s.ctrl.ClearFault(channel) })
}
