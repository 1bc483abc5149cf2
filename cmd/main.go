package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"zonectl/internal/control"
	"zonectl/internal/handlers"
	"zonectl/internal/hardware"
	"zonectl/internal/history"
	"zonectl/internal/logger"
	"zonectl/internal/models"
	"zonectl/internal/repository"
	"zonectl/internal/repository/db"
	"zonectl/internal/sensor"
	"zonectl/internal/server"
	"zonectl/internal/service"
	"zonectl/internal/telemetry"
)

func main() {
	// load config.yml first so the logger level comes from it
	cfg, cfgErr := service.LoadConfig()

	// init logger
	log := logger.Get(cfg.LogLevel)
	if cfgErr != nil {
		log.Fatalw("error reading config", "err", cfgErr)
	}

	// open DB
	sqlDB, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	repos := repository.NewRepository(sqlDB)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// restore the control core from persisted state
	ctrl, err := buildController(ctx, cfg, repos)
	if err != nil {
		log.Fatalw("failed to restore controller state", "err", err)
	}

	// register this boot; a boot loop or a dirty previous run may latch safe mode
	registerBoot(ctx, ctrl, repos, log)

	// collaborators: sensors, output hardware, watchdog, telemetry, history
	sensors, outputs, err := buildDrivers(cfg)
	if err != nil {
		log.Fatalw("failed to init drivers", "err", err)
	}
	defer closeQuietly(log, "sensor driver", sensors.Close)
	defer closeQuietly(log, "output driver", outputs.Close)

	watchdog := buildWatchdog(cfg, log)
	defer closeQuietly(log, "watchdog", watchdog.Close)

	sink := buildSink(cfg, log)
	defer closeQuietly(log, "telemetry sink", sink.Close)

	histRec, histClose := buildHistory(cfg, log)
	defer histClose()

	// wire services and the HTTP layer
	services := service.NewService(service.Deps{
		Controller: ctrl,
		Repos:      repos,
		Sensors:    sensors,
		Hardware:   outputs,
		Watchdog:   watchdog,
		Sink:       sink,
		History:    histRec,
		Log:        log,
		Auth:       cfg.Auth,
	})
	apiHandler := handlers.NewHandler(services, log)

	appendSystemEvent(ctx, repos, log, models.EventStartup, "controller started")
	log.Infow("controller started",
		"port", cfg.Port,
		"tick", cfg.Tick,
		"sensor_driver", cfg.SensorDriver,
		"output_driver", cfg.OutputDriver,
		"safe_mode", ctrl.Safety().InSafeMode(),
	)

	// start the control loop
	go services.Runner.Run(ctx, cfg.Tick)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, ctrl, repos, log)
}

// buildController loads the per-channel configs and the safety record from
// SQLite, falling back to factory defaults for anything not stored yet. The
// board layout (hardware kind per channel) always comes from config, never
// from the store.
func buildController(ctx context.Context, cfg service.Config, repos *repository.Repository) (*control.Controller, error) {
	var cfgs [models.NumChannels]models.OutputConfig
	for i := 0; i < models.NumChannels; i++ {
		hw := cfg.Hardware[i]
		cfgs[i] = models.DefaultOutputConfig(i, hw)

		stored, found, err := repos.Outputs.Load(ctx, i)
		if err != nil {
			return nil, err
		}
		if found {
			stored.Hardware = hw
			if !stored.Device.CompatibleWith(hw) {
				stored.Device = cfgs[i].Device
			}
			cfgs[i] = stored
		}
	}

	st, _, err := repos.Safety.Load(ctx)
	if err != nil {
		return nil, err
	}
	st.WatchdogEnabled = cfg.WatchdogEnabled

	persist := func(s models.SafetyState) error {
		return repos.Safety.Save(context.Background(), s)
	}
	mgr := control.NewSafetyManager(st, cfg.StabilityWindow, cfg.WatchdogTimeout, persist)

	return control.NewController(cfgs, mgr), nil
}

// registerBoot counts this boot and reports how it went. Entering safe mode
// here (boot loop, watchdog reset) forces every output off, is logged, and
// recorded as an event.
func registerBoot(ctx context.Context, ctrl *control.Controller, repos *repository.Repository, log *logger.Logger) {
	entered, err := ctrl.RegisterBoot(time.Now().UTC())
	if err != nil {
		log.Warnw("safety persist failed at boot", "err", err)
	}

	st := ctrl.Safety().State()
	if entered {
		log.Warnw("safe mode latched at boot", "reason", st.SafeModeReason, "boot_count", st.BootCount)
		appendSystemEvent(ctx, repos, log, models.EventSafeMode,
			"safe mode latched at boot: "+string(st.SafeModeReason))
	} else if st.SafeMode {
		log.Warnw("safe mode still active from previous run", "reason", st.SafeModeReason)
	} else {
		log.Infow("boot registered", "boot_count", st.BootCount, "clean_previous", true)
	}
}

// buildDrivers returns the sensor and output drivers per config. In full
// simulation the one SimDriver plays both roles, so commanded power feeds the
// simulated zone temperatures.
func buildDrivers(cfg service.Config) (sensor.Driver, hardware.Driver, error) {
	if cfg.SensorDriver == "sim" && cfg.OutputDriver == "sim" {
		sim := sensor.NewSimDriver(models.NumChannels)
		return sim, sim, nil
	}

	var sensors sensor.Driver
	switch cfg.SensorDriver {
	case "w1":
		sensors = sensor.NewW1Driver()
	default:
		sensors = sensor.NewSimDriver(models.NumChannels)
	}

	var outputs hardware.Driver
	switch cfg.OutputDriver {
	case "gpio":
		gpio, err := hardware.NewGPIODriver(cfg.GPIOChip, cfg.GPIOLines)
		if err != nil {
			_ = sensors.Close()
			return nil, nil, err
		}
		outputs = gpio
	default:
		outputs = hardware.NewFake()
	}
	return sensors, outputs, nil
}

// buildWatchdog opens /dev/watchdog when enabled; a failed open is fatal to
// surface misconfiguration instead of silently running unprotected.
func buildWatchdog(cfg service.Config, log *logger.Logger) hardware.Watchdog {
	if !cfg.WatchdogEnabled {
		return hardware.NopWatchdog{}
	}
	wd, err := hardware.NewFileWatchdog(cfg.WatchdogPath)
	if err != nil {
		log.Fatalw("failed to arm watchdog", "path", cfg.WatchdogPath, "err", err)
	}
	log.Infow("watchdog armed", "path", cfg.WatchdogPath, "timeout", cfg.WatchdogTimeout)
	return wd
}

// buildSink connects the MQTT telemetry sink when enabled. A broker that is
// down at boot is not fatal: telemetry is best-effort.
func buildSink(cfg service.Config, log *logger.Logger) telemetry.Sink {
	if !cfg.MQTTEnabled {
		return telemetry.NopSink{}
	}
	sink, err := telemetry.NewMQTTSink(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTUsername, cfg.MQTTPassword)
	if err != nil {
		log.Warnw("mqtt sink unavailable, telemetry disabled", "broker", cfg.MQTTBroker, "err", err)
		return telemetry.NopSink{}
	}
	log.Infow("mqtt sink connected", "broker", cfg.MQTTBroker)
	return sink
}

// buildHistory returns the Influx recorder when enabled, else a nil recorder
// (history disabled) and a no-op closer.
func buildHistory(cfg service.Config, log *logger.Logger) (service.HistoryRecorder, func()) {
	if !cfg.InfluxEnabled {
		return nil, func() {}
	}
	rec := history.NewRecorder(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
	log.Infow("history recorder enabled", "url", cfg.InfluxURL, "bucket", cfg.InfluxBucket)
	return rec, rec.Close
}

// appendSystemEvent records a device-level event; failures are logged only.
func appendSystemEvent(ctx context.Context, repos *repository.Repository, log *logger.Logger, typ models.EventType, msg string) {
	e := models.ControllerEvent{
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Type:       typ,
		Channel:    models.SystemChannel,
		Message:    msg,
	}
	if err := repos.Events.Append(ctx, e); err != nil {
		log.Warnw("event append failed", "type", typ, "err", err)
	}
}

func closeQuietly(log *logger.Logger, what string, close func() error) {
	if err := close(); err != nil {
		log.Errorw("failed to close "+what, "err", err)
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil && err != http.ErrServerClosed {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals, then stops the loop, marks
// the shutdown clean, and drains in-flight requests.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, ctrl *control.Controller, repos *repository.Repository, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down...")

	// stop the control loop and background goroutines
	cancel()

	// mark the shutdown clean so the next boot is not counted as a crash
	if err := ctrl.Safety().MarkCleanShutdown(time.Now().UTC()); err != nil {
		log.Errorw("failed to persist clean shutdown", "err", err)
	}
	appendSystemEvent(context.Background(), repos, log, models.EventShutdown, "controller stopped")

	// allow in-flight requests to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
