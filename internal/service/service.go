package service

import (
	"context"
	"time"

	"zonectl/internal/control"
	"zonectl/internal/hardware"
	"zonectl/internal/logger"
	"zonectl/internal/models"
	"zonectl/internal/repository"
	"zonectl/internal/sensor"
	"zonectl/internal/telemetry"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Outputs exposes the per-channel configuration and control operations.
// Every successful mutation is persisted and logged as an event.
type Outputs interface {
	SetProfile(ctx context.Context, channel int, name string, enabled bool) error
	SetMode(ctx context.Context, channel int, mode models.ControlMode) error
	SetTarget(ctx context.Context, channel int, tempC float64) error
	SetManualPower(ctx context.Context, channel int, pct float64) error
	SetPIDGains(ctx context.Context, channel int, gains models.PIDGains) error
	SetTimeProportional(ctx context.Context, channel int, tp models.TimeProportional) error
	SetSchedule(ctx context.Context, channel int, slots []models.ScheduleSlot) error
	SetSafetyLimits(ctx context.Context, channel int, maxC, minC float64, timeoutS int) error
	SetFaultResponse(ctx context.Context, channel int, resp models.FaultResponse, capPct float64) error
	SetAutoResume(ctx context.Context, channel int, on bool) error
	SetDevice(ctx context.Context, channel int, device models.DeviceClass, sensorID string) error
	ClearFault(ctx context.Context, channel int) error
}

// Monitoring exposes read-only runtime state.
type Monitoring interface {
	Status(ctx context.Context) (models.ControllerStatus, error)
	Output(ctx context.Context, channel int) (models.OutputStatus, error)
	Sensors(ctx context.Context) ([]models.SensorInfo, error)
}

// Safety exposes the device-wide safety operations.
type Safety interface {
	State(ctx context.Context) (models.SafetyState, error)
	EnterSafeMode(ctx context.Context) error
	ExitSafeMode(ctx context.Context) error
	EmergencyStop(ctx context.Context) error
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.ControllerEvent, error)
}

// Runner drives the control loop in the background.
// Stop via context cancellation in main() for graceful shutdown.
type Runner interface {
	Run(ctx context.Context, tick time.Duration)
}

// HistoryRecorder samples the device snapshot into a time-series store.
// nil disables history recording.
type HistoryRecorder interface {
	Record(ctx context.Context, st models.ControllerStatus) error
}

//
// Root Service aggregates all sub-services.
//

type Service struct {
	Outputs
	Monitoring
	Safety
	EventLog
	Runner
	Authorization
}

// Deps carries everything the service layer needs: the control core, the
// persistence layer, and the hardware/telemetry collaborators.
type Deps struct {
	Controller *control.Controller
	Repos      *repository.Repository
	Sensors    sensor.Driver
	Hardware   hardware.Driver
	Watchdog   hardware.Watchdog
	Sink       telemetry.Sink
	History    HistoryRecorder
	Log        *logger.Logger
	Auth       AuthConfig
}

// NewService wires the dependencies into concrete services.
func NewService(d Deps) *Service {
	if d.Sink == nil {
		d.Sink = telemetry.NopSink{}
	}
	if d.Watchdog == nil {
		d.Watchdog = hardware.NopWatchdog{}
	}
	return &Service{
		Outputs:       NewOutputsService(d.Controller, d.Repos.Outputs, d.Repos.Events, d.Sink, d.Log),
		Monitoring:    NewMonitoringService(d.Controller),
		Safety:        NewSafetyService(d.Controller, d.Repos.Events, d.Sink, d.Log),
		EventLog:      NewEventLogService(d.Repos.Events),
		Runner:        NewRunnerService(d.Controller, d.Sensors, d.Hardware, d.Watchdog, d.Repos, d.Sink, d.History, d.Log),
		Authorization: NewAuthService(d.Repos.Auth, d.Auth),
	}
}
