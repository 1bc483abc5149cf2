// Package telemetry publishes controller events to MQTT. The core only
// emits structured events; whether anything consumes them is entirely
// external.
package telemetry

import (
	"encoding/json"
	"time"

	"zonectl/internal/models"
)

// Topic roots. The event type is appended in lowercase, e.g.
// zonectl/events/fault.
const (
	TopicEvents = "zonectl/events"
	TopicStatus = "zonectl/status"
)

// Sink publishes controller events. Publish failures must not crash the
// process; callers log and continue.
type Sink interface {
	// PublishEvent sends one controller event.
	PublishEvent(e models.ControllerEvent) error

	// PublishStatus sends a periodic whole-device snapshot, retained.
	PublishStatus(st models.ControllerStatus) error

	// Close disconnects from the broker.
	Close() error
}

// eventPayload is the wire shape of one event message.
type eventPayload struct {
	Timestamp string           `json:"timestamp"`
	Type      models.EventType `json:"type"`
	Channel   int              `json:"channel"`
	Message   string           `json:"message"`
	Meta      any              `json:"meta,omitempty"`
}

// FormatEventPayload creates the JSON payload for a controller event.
func FormatEventPayload(e models.ControllerEvent) ([]byte, error) {
	return json.Marshal(eventPayload{
		Timestamp: e.OccurredAt.UTC().Format(time.RFC3339),
		Type:      e.Type,
		Channel:   e.Channel,
		Message:   e.Message,
		Meta:      e.Metadata,
	})
}

// safetyCritical reports whether an event type warrants at-least-once
// delivery.
func safetyCritical(t models.EventType) bool {
	switch t {
	case models.EventFault, models.EventSafeMode, models.EventEmergencyStop:
		return true
	}
	return false
}

// NopSink drops everything, used when MQTT is disabled in configuration.
type NopSink struct{}

func (NopSink) PublishEvent(models.ControllerEvent) error   { return nil }
func (NopSink) PublishStatus(models.ControllerStatus) error { return nil }
func (NopSink) Close() error                                { return nil }
