package repository

import (
	"context"
	"database/sql"
	"time"

	"zonectl/internal/models"
)

// AnyChannel disables channel filtering in event queries.
const AnyChannel = -2

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// OutputConfigRepo persists per-channel output configuration. Load returns
// found=false when the channel has never been saved, so callers can fall
// back to factory defaults.
type OutputConfigRepo interface {
	Save(ctx context.Context, cfg models.OutputConfig) error
	Load(ctx context.Context, channel int) (models.OutputConfig, bool, error)
}

// SafetyRepo persists the single device-wide safety record (boot counters,
// safe-mode latch, shutdown flag).
type SafetyRepo interface {
	Save(ctx context.Context, st models.SafetyState) error
	Load(ctx context.Context) (models.SafetyState, bool, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.ControllerEvent) error
	List(ctx context.Context, from, to time.Time, typ string, channel int) ([]models.ControllerEvent, error)
}

type Repository struct {
	Outputs OutputConfigRepo
	Safety  SafetyRepo
	Events  EventRepo
	Auth    Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Outputs: NewOutputConfigSQLite(db),
		Safety:  NewSafetySQLite(db),
		Events:  NewEventSQLite(db),
		Auth:    NewUserRepository(db),
	}
}
