package models

import "time"

// EventType classifies controller events.
type EventType string

const (
	EventFault         EventType = "FAULT"
	EventFaultCleared  EventType = "FAULT_CLEARED"
	EventModeChange    EventType = "MODE_CHANGE"
	EventConfigChange  EventType = "CONFIG_CHANGE"
	EventSafeMode      EventType = "SAFE_MODE"
	EventEmergencyStop EventType = "EMERGENCY_STOP"
	EventStartup       EventType = "STARTUP"
	EventShutdown      EventType = "SHUTDOWN"
)

// SystemChannel marks events that concern the whole device rather than one output.
const SystemChannel = -1

// ControllerEvent is a single log entry. Channel is SystemChannel for
// device-level events (safe mode, startup, shutdown).
type ControllerEvent struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Type       EventType `json:"type"`
	Channel    int       `json:"channel"`
	Message    string    `json:"message"`
	Metadata   any       `json:"metadata,omitempty"`
}
