package telemetry

import "zonectl/internal/models"

// FakeSink records published events for test assertions.
type FakeSink struct {
	// Events contains all published controller events.
	Events []models.ControllerEvent

	// Payloads contains the JSON payloads in publish order.
	Payloads [][]byte

	// Statuses contains all published snapshots.
	Statuses []models.ControllerStatus

	// PublishError, if set, is returned by PublishEvent.
	PublishError error

	// Closed tracks whether Close was called.
	Closed bool
}

// NewFakeSink creates an empty FakeSink.
func NewFakeSink() *FakeSink { return &FakeSink{} }

// PublishEvent records the event.
func (f *FakeSink) PublishEvent(e models.ControllerEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Events = append(f.Events, e)
	payload, err := FormatEventPayload(e)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishStatus records the snapshot.
func (f *FakeSink) PublishStatus(st models.ControllerStatus) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Statuses = append(f.Statuses, st)
	return nil
}

// Close marks the sink as closed.
func (f *FakeSink) Close() error {
	f.Closed = true
	return nil
}
