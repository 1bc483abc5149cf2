package repository_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"zonectl/internal/models"
	"zonectl/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSafetySQLite_Save_ZeroTimesStoredAsNull(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func(db *sql.DB) {
		err := db.Close()
		if err != nil {

		}
	}(db)

	repo := repository.NewSafetySQLite(db)

	st := models.SafetyState{
		BootCount:      1,
		SafeMode:       false,
		SafeModeReason: models.SafeReasonNone,
		// LastBootAt / StableSince zero -> NULL columns
	}

	isNull := sqlmockArgumentFunc(func(v driver.Value) bool { return v == nil })

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO safety_state")).
		WithArgs(
			1, // row id constant
			st.BootCount,
			isNull, // last_boot_at
			isNull, // stable_since
			st.SafeMode,
			"NONE",
			st.WatchdogEnabled,
			st.CleanShutdown,
			sqlmock.AnyArg(), // updated_at set to now
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Save(context.Background(), st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSafetySQLite_Save_TimesConvertedToUTC(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func(db *sql.DB) {
		err := db.Close()
		if err != nil {

		}
	}(db)

	repo := repository.NewSafetySQLite(db)

	locTokyo, _ := time.LoadLocation("Asia/Tokyo")
	bootAt := time.Date(2026, 3, 4, 12, 0, 0, 0, locTokyo)
	expectedUTC := bootAt.UTC()

	st := models.SafetyState{
		BootCount:      2,
		LastBootAt:     bootAt,
		SafeMode:       true,
		SafeModeReason: models.SafeReasonBootLoop,
	}

	isExactUTC := sqlmockArgumentFunc(func(v driver.Value) bool {
		tm, ok := v.(time.Time)
		if !ok {
			return false
		}
		return tm.Equal(expectedUTC) && tm.Location() == time.UTC
	})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO safety_state")).
		WithArgs(
			1,
			st.BootCount,
			isExactUTC,
			sqlmockArgumentFunc(func(v driver.Value) bool { return v == nil }),
			true,
			"BOOT_LOOP",
			st.WatchdogEnabled,
			st.CleanShutdown,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Save(context.Background(), st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSafetySQLite_Load_NoRowsReturnsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func(db *sql.DB) {
		err := db.Close()
		if err != nil {

		}
	}(db)

	repo := repository.NewSafetySQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM safety_state WHERE id=?")).
		WithArgs(1).
		WillReturnError(sql.ErrNoRows)

	_, found, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if found {
		t.Fatalf("Load() expected found=false on first boot")
	}
}

func TestSafetySQLite_Load_HappyPath(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func(db *sql.DB) {
		err := db.Close()
		if err != nil {

		}
	}(db)

	repo := repository.NewSafetySQLite(db)

	cols := []string{
		"boot_count", "last_boot_at", "stable_since", "safe_mode",
		"safe_mode_reason", "watchdog_enabled", "clean_shutdown", "updated_at",
	}
	bootAt := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(cols).
		AddRow(3, bootAt, nil, true, "WATCHDOG_RESET", true, false, bootAt)

	mock.ExpectQuery(regexp.QuoteMeta("FROM safety_state WHERE id=?")).
		WithArgs(1).
		WillReturnRows(rows)

	got, found, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if !found {
		t.Fatalf("Load() expected found=true")
	}
	if got.BootCount != 3 || !got.SafeMode ||
		got.SafeModeReason != models.SafeReasonWatchdogReset {
		t.Fatalf("Load() unexpected fields: %+v", got)
	}
	if !got.LastBootAt.Equal(bootAt) || !got.StableSince.IsZero() {
		t.Fatalf("Load() time fields: %+v", got)
	}
	if !got.WatchdogEnabled || got.CleanShutdown {
		t.Fatalf("Load() flags: %+v", got)
	}
}

func TestSafetySQLite_Save_ExecErrorIsPropagated(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func(db *sql.DB) {
		err := db.Close()
		if err != nil {

		}
	}(db)

	repo := repository.NewSafetySQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO safety_state")).
		WillReturnError(errors.New("disk full"))

	if err := repo.Save(context.Background(), models.SafetyState{BootCount: 1}); err == nil {
		t.Fatalf("Save() expected error, got nil")
	}
}
