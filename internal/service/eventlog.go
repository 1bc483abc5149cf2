package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"zonectl/internal/models"
	"zonectl/internal/repository"
)

// LogFilter selects events by time range, type, and channel. A Channel of
// repository.AnyChannel disables channel filtering; models.SystemChannel
// selects device-level events.
type LogFilter struct {
	From    time.Time // inclusive; zero means no lower bound
	To      time.Time // inclusive; zero means no upper bound
	Type    string    // "", or one of the models.EventType values
	Channel int       // repository.AnyChannel for all channels
}

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var _ EventLog = (*EventLogService)(nil)

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	errInvalidChannel   = errors.New("invalid channel filter")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates range
// and channel.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}
	if f.Channel != repository.AnyChannel &&
		f.Channel != models.SystemChannel &&
		(f.Channel < 0 || f.Channel >= models.NumChannels) {
		return time.Time{}, time.Time{}, "", errInvalidChannel
	}

	eventType := normalizeEventType(f.Type)
	return from, to, eventType, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.ControllerEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, typ, f.Channel)
}
