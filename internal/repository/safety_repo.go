package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"zonectl/internal/models"
)

type SafetySQLite struct {
	db *sql.DB
}

func NewSafetySQLite(db *sql.DB) *SafetySQLite {
	return &SafetySQLite{db: db}
}

var _ SafetyRepo = (*SafetySQLite)(nil)

const (
	safetyStateRowID = 1

	insertOrUpdateSafetySQL = `
		INSERT INTO safety_state (id, boot_count, last_boot_at, stable_since,
			safe_mode, safe_mode_reason, watchdog_enabled, clean_shutdown, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			boot_count=excluded.boot_count,
			last_boot_at=excluded.last_boot_at,
			stable_since=excluded.stable_since,
			safe_mode=excluded.safe_mode,
			safe_mode_reason=excluded.safe_mode_reason,
			watchdog_enabled=excluded.watchdog_enabled,
			clean_shutdown=excluded.clean_shutdown,
			updated_at=excluded.updated_at
	`

	selectSafetySQL = `
		SELECT boot_count, last_boot_at, stable_since, safe_mode,
			safe_mode_reason, watchdog_enabled, clean_shutdown, updated_at
		FROM safety_state WHERE id=?
	`
)

// nullableTime maps a zero time to NULL so "never" stays distinguishable.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

// Save upserts the single safety_state row (id always 1). This write sits on
// the boot path, so it must work on a freshly created database.
func (r *SafetySQLite) Save(ctx context.Context, st models.SafetyState) error {
	tsUTC := st.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	_, err := r.db.ExecContext(ctx, insertOrUpdateSafetySQL,
		safetyStateRowID,
		st.BootCount,
		nullableTime(st.LastBootAt),
		nullableTime(st.StableSince),
		st.SafeMode,
		string(st.SafeModeReason),
		st.WatchdogEnabled,
		st.CleanShutdown,
		tsUTC,
	)
	return err
}

// Load fetches the safety record. found is false on first boot, before
// anything was ever saved.
func (r *SafetySQLite) Load(ctx context.Context) (models.SafetyState, bool, error) {
	row := r.db.QueryRowContext(ctx, selectSafetySQL, safetyStateRowID)

	var (
		st          models.SafetyState
		lastBootAt  sql.NullTime
		stableSince sql.NullTime
		reason      string
	)
	if err := row.Scan(
		&st.BootCount,
		&lastBootAt,
		&stableSince,
		&st.SafeMode,
		&reason,
		&st.WatchdogEnabled,
		&st.CleanShutdown,
		&st.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SafetyState{}, false, nil
		}
		return models.SafetyState{}, false, err
	}

	st.SafeModeReason = models.SafeModeReason(reason)
	if lastBootAt.Valid {
		st.LastBootAt = lastBootAt.Time.UTC()
	}
	if stableSince.Valid {
		st.StableSince = stableSince.Time.UTC()
	}
	st.UpdatedAt = st.UpdatedAt.UTC()

	return st, true, nil
}
