package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"zonectl/internal/control"
	"zonectl/internal/logger"
	"zonectl/internal/models"
	"zonectl/internal/repository"
	"zonectl/internal/telemetry"
)

// SafetyService exposes the device-wide safety operations: safe-mode entry
// and exit, and the emergency stop. Entering safe mode also forces every
// output off immediately rather than waiting for the next tick.
type SafetyService struct {
	ctrl   *control.Controller
	events repository.EventRepo
	sink   telemetry.Sink
	log    *logger.Logger
}

func NewSafetyService(ctrl *control.Controller, events repository.EventRepo, sink telemetry.Sink, log *logger.Logger) *SafetyService {
	return &SafetyService{ctrl: ctrl, events: events, sink: sink, log: log}
}

var _ Safety = (*SafetyService)(nil)

func (s *SafetyService) record(ctx context.Context, typ models.EventType, msg string, meta map[string]any) {
	e := models.ControllerEvent{
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Type:       typ,
		Channel:    models.SystemChannel,
		Message:    msg,
		Metadata:   meta,
	}
	if err := s.events.Append(ctx, e); err != nil && s.log != nil {
		s.log.Warnw("event_append_failed", "type", typ, "err", err)
	}
	if err := s.sink.PublishEvent(e); err != nil && s.log != nil {
		s.log.Warnw("telemetry_publish_failed", "type", typ, "err", err)
	}
}

// State returns the current safety record.
func (s *SafetyService) State(_ context.Context) (models.SafetyState, error) {
	return s.ctrl.Safety().State(), nil
}

// EnterSafeMode latches safe mode with a user-requested reason and forces
// all outputs off.
func (s *SafetyService) EnterSafeMode(ctx context.Context) error {
	now := time.Now().UTC()
	if err := s.ctrl.Safety().RequestSafeMode(now, models.SafeReasonUserRequested); err != nil && s.log != nil {
		// persist failure: the in-memory latch holds regardless
		s.log.Warnw("safety_persist_failed", "err", err)
	}
	s.ctrl.EmergencyStop()
	s.record(ctx, models.EventSafeMode, "safe mode entered by operator",
		map[string]any{"reason": string(models.SafeReasonUserRequested), "active": true})
	return nil
}

// ExitSafeMode releases the safe-mode latch. This is the only way out.
func (s *SafetyService) ExitSafeMode(ctx context.Context) error {
	now := time.Now().UTC()
	if err := s.ctrl.Safety().ExitSafeMode(now); err != nil && s.log != nil {
		s.log.Warnw("safety_persist_failed", "err", err)
	}
	s.record(ctx, models.EventSafeMode, "safe mode exited by operator",
		map[string]any{"active": false})
	return nil
}

// EmergencyStop forces every output to OFF at zero power. It does not latch
// safe mode; normal operation can be reconfigured afterwards.
func (s *SafetyService) EmergencyStop(ctx context.Context) error {
	s.ctrl.EmergencyStop()
	s.record(ctx, models.EventEmergencyStop, "emergency stop: all outputs forced off", nil)
	return nil
}
