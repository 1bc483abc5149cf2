package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"zonectl/internal/models"
)

type OutputConfigSQLite struct {
	db *sql.DB
}

func NewOutputConfigSQLite(db *sql.DB) *OutputConfigSQLite {
	return &OutputConfigSQLite{db: db}
}

var _ OutputConfigRepo = (*OutputConfigSQLite)(nil)

const (
	insertOrUpdateOutputSQL = `
		INSERT INTO output_configs (channel, enabled, name, hardware, device, sensor_id, mode,
			manual_pct, target_c, pid, timeprop, schedule, limits,
			fault_response, fault_cap_pct, auto_resume, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(channel) DO UPDATE SET
			enabled=excluded.enabled,
			name=excluded.name,
			hardware=excluded.hardware,
			device=excluded.device,
			sensor_id=excluded.sensor_id,
			mode=excluded.mode,
			manual_pct=excluded.manual_pct,
			target_c=excluded.target_c,
			pid=excluded.pid,
			timeprop=excluded.timeprop,
			schedule=excluded.schedule,
			limits=excluded.limits,
			fault_response=excluded.fault_response,
			fault_cap_pct=excluded.fault_cap_pct,
			auto_resume=excluded.auto_resume,
			updated_at=excluded.updated_at
	`

	selectOutputSQL = `
		SELECT channel, enabled, name, hardware, device, sensor_id, mode,
			manual_pct, target_c, pid, timeprop, schedule, limits,
			fault_response, fault_cap_pct, auto_resume, updated_at
		FROM output_configs WHERE channel=?
	`
)

// marshalJSONColumn converts a sub-config struct to its TEXT column form.
func marshalJSONColumn(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Save upserts the row for cfg.Channel.
func (r *OutputConfigSQLite) Save(ctx context.Context, cfg models.OutputConfig) error {
	pidJSON, err := marshalJSONColumn(cfg.PID)
	if err != nil {
		return fmt.Errorf("marshal pid gains: %w", err)
	}
	tpJSON, err := marshalJSONColumn(cfg.TimeProp)
	if err != nil {
		return fmt.Errorf("marshal timeprop: %w", err)
	}
	limitsJSON, err := marshalJSONColumn(cfg.Limits)
	if err != nil {
		return fmt.Errorf("marshal limits: %w", err)
	}

	// Empty schedule stored as NULL, not "[]"
	var schedulePtr *string
	if len(cfg.Schedule) > 0 {
		s, err := marshalJSONColumn(cfg.Schedule)
		if err != nil {
			return fmt.Errorf("marshal schedule: %w", err)
		}
		schedulePtr = &s
	}

	// ensure UpdatedAt is always persisted as UTC; set if zero
	tsUTC := cfg.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	_, err = r.db.ExecContext(ctx, insertOrUpdateOutputSQL,
		cfg.Channel,
		cfg.Enabled,
		cfg.Name,
		string(cfg.Hardware),
		string(cfg.Device),
		cfg.SensorID,
		string(cfg.Mode),
		cfg.ManualPct,
		cfg.TargetC,
		pidJSON,
		tpJSON,
		schedulePtr,
		limitsJSON,
		string(cfg.FaultResponse),
		cfg.FaultCapPct,
		cfg.AutoResume,
		tsUTC,
	)
	return err
}

// Load fetches one channel row. found is false when the channel was never
// saved.
func (r *OutputConfigSQLite) Load(ctx context.Context, channel int) (models.OutputConfig, bool, error) {
	row := r.db.QueryRowContext(ctx, selectOutputSQL, channel)

	var (
		cfg          models.OutputConfig
		hardware     string
		device       string
		sensorID     sql.NullString
		mode         string
		pidJSON      string
		tpJSON       string
		scheduleJSON sql.NullString
		limitsJSON   string
		faultResp    string
	)
	if err := row.Scan(
		&cfg.Channel,
		&cfg.Enabled,
		&cfg.Name,
		&hardware,
		&device,
		&sensorID,
		&mode,
		&cfg.ManualPct,
		&cfg.TargetC,
		&pidJSON,
		&tpJSON,
		&scheduleJSON,
		&limitsJSON,
		&faultResp,
		&cfg.FaultCapPct,
		&cfg.AutoResume,
		&cfg.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.OutputConfig{}, false, nil
		}
		return models.OutputConfig{}, false, err
	}

	cfg.Hardware = models.HardwareKind(hardware)
	cfg.Device = models.DeviceClass(device)
	cfg.Mode = models.ControlMode(mode)
	cfg.FaultResponse = models.FaultResponse(faultResp)
	if sensorID.Valid {
		cfg.SensorID = sensorID.String
	}

	if err := json.Unmarshal([]byte(pidJSON), &cfg.PID); err != nil {
		return models.OutputConfig{}, false, fmt.Errorf("unmarshal pid gains: %w", err)
	}
	if err := json.Unmarshal([]byte(tpJSON), &cfg.TimeProp); err != nil {
		return models.OutputConfig{}, false, fmt.Errorf("unmarshal timeprop: %w", err)
	}
	if err := json.Unmarshal([]byte(limitsJSON), &cfg.Limits); err != nil {
		return models.OutputConfig{}, false, fmt.Errorf("unmarshal limits: %w", err)
	}
	if scheduleJSON.Valid && scheduleJSON.String != "" {
		if err := json.Unmarshal([]byte(scheduleJSON.String), &cfg.Schedule); err != nil {
			return models.OutputConfig{}, false, fmt.Errorf("unmarshal schedule: %w", err)
		}
	}
	cfg.UpdatedAt = cfg.UpdatedAt.UTC()

	return cfg, true, nil
}
