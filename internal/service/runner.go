package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zonectl/internal/control"
	"zonectl/internal/hardware"
	"zonectl/internal/logger"
	"zonectl/internal/models"
	"zonectl/internal/repository"
	"zonectl/internal/sensor"
	"zonectl/internal/telemetry"

	"github.com/google/uuid"
)

// Task periods. The control tick is the base rate; everything else is a
// multiple polled from the same loop, so no two tasks ever run concurrently.
const (
	outputTickPeriod     = 100 * time.Millisecond
	sensorRefreshPeriod  = 1 * time.Second
	statusPublishPeriod  = 1 * time.Second
	stabilityCheckPeriod = 30 * time.Second
	historyRecordPeriod  = 30 * time.Second
)

// RunnerService owns the control loop: one goroutine drives the scheduler,
// which refreshes sensors, ticks the outputs, applies power commands to the
// hardware, persists changed configs, and feeds the watchdog. Task failures
// are contained per poll; the watchdog feed runs every iteration no matter
// what else failed.
type RunnerService struct {
	ctrl     *control.Controller
	sensors  sensor.Driver
	hw       hardware.Driver
	watchdog hardware.Watchdog
	repos    *repository.Repository
	sink     telemetry.Sink
	history  HistoryRecorder
	log      *logger.Logger
}

func NewRunnerService(ctrl *control.Controller, sensors sensor.Driver, hw hardware.Driver, watchdog hardware.Watchdog, repos *repository.Repository, sink telemetry.Sink, history HistoryRecorder, log *logger.Logger) *RunnerService {
	return &RunnerService{
		ctrl:     ctrl,
		sensors:  sensors,
		hw:       hw,
		watchdog: watchdog,
		repos:    repos,
		sink:     sink,
		history:  history,
		log:      log,
	}
}

var _ Runner = (*RunnerService)(nil)

// Run blocks until ctx is cancelled. tick is the loop rate; zero falls back
// to the output tick period.
func (r *RunnerService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = outputTickPeriod
	}

	r.scanSensors()

	sched := control.NewScheduler()
	sched.Add("sensor_refresh", sensorRefreshPeriod, r.refreshSensors)
	sched.Add("output_tick", outputTickPeriod, func(now time.Time) error {
		return r.tickOutputs(ctx, now)
	})
	sched.Add("status_publish", statusPublishPeriod, r.publishStatus)
	sched.Add("stability_check", stabilityCheckPeriod, r.checkStability)
	sched.Add("history_record", historyRecordPeriod, func(now time.Time) error {
		return r.recordHistory(ctx, now)
	})

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			now := t.UTC()
			for _, te := range sched.Poll(now) {
				if r.log != nil {
					r.log.Warnw("task_failed", "task", te.Task, "err", te.Err)
				}
			}
			// unconditional: a failing task must never starve the watchdog
			r.feed(now)
		}
	}
}

// scanSensors registers every probe found on the bus at startup.
func (r *RunnerService) scanSensors() {
	ids, err := r.sensors.Scan()
	if err != nil {
		if r.log != nil {
			r.log.Warnw("sensor_scan_failed", "err", err)
		}
		return
	}
	for _, id := range ids {
		r.ctrl.DiscoverSensor(id)
	}
	if r.log != nil {
		r.log.Infow("sensor_scan_complete", "count", len(ids))
	}
}

// refreshSensors reads every bound probe and records the attempt in the
// registry. Reads block for the conversion delay, which is why this runs as
// its own task and never inside an output tick.
func (r *RunnerService) refreshSensors(now time.Time) error {
	var errs []error
	for _, id := range r.ctrl.BoundSensorIDs() {
		tempC, err := r.sensors.Read(id)
		r.ctrl.ObserveSensor(id, tempC, err == nil, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// tickOutputs runs one control cycle: tick every output, push the resulting
// power commands to the hardware, record fault transitions, and persist any
// configs changed since the last cycle.
func (r *RunnerService) tickOutputs(ctx context.Context, now time.Time) error {
	res := r.ctrl.TickAll(now)

	var errs []error
	for i, pct := range res.Powers {
		if err := r.hw.SetPower(i, pct); err != nil {
			errs = append(errs, fmt.Errorf("set power channel %d: %w", i, err))
		}
	}

	for _, tr := range res.Faults {
		r.recordFaultTransition(ctx, tr)
	}

	for _, cfg := range r.ctrl.DirtyConfigs() {
		if err := r.repos.Outputs.Save(ctx, cfg); err != nil {
			// never fatal: the engine keeps running on in-memory state
			errs = append(errs, fmt.Errorf("persist config channel %d: %w", cfg.Channel, err))
		}
	}

	return errors.Join(errs...)
}

func (r *RunnerService) recordFaultTransition(ctx context.Context, tr control.FaultTransition) {
	typ := models.EventFault
	msg := "fault raised: " + string(tr.To)
	if tr.To == models.FaultNone {
		typ = models.EventFaultCleared
		msg = "fault cleared: " + string(tr.From)
	}
	e := models.ControllerEvent{
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Type:       typ,
		Channel:    tr.Channel,
		Message:    msg,
		Metadata:   map[string]any{"from": string(tr.From), "to": string(tr.To)},
	}
	if err := r.repos.Events.Append(ctx, e); err != nil && r.log != nil {
		r.log.Warnw("event_append_failed", "type", typ, "channel", tr.Channel, "err", err)
	}
	if err := r.sink.PublishEvent(e); err != nil && r.log != nil {
		r.log.Warnw("telemetry_publish_failed", "type", typ, "channel", tr.Channel, "err", err)
	}
}

// publishStatus pushes the retained device snapshot to the telemetry sink.
func (r *RunnerService) publishStatus(now time.Time) error {
	return r.sink.PublishStatus(r.ctrl.Snapshot(now))
}

// checkStability resets the boot counter once the process has run
// continuously past the stability window.
func (r *RunnerService) checkStability(now time.Time) error {
	safety := r.ctrl.Safety()
	if !safety.ShouldMarkStable(now) {
		return nil
	}
	if err := safety.MarkStable(now); err != nil {
		return fmt.Errorf("mark stable: %w", err)
	}
	if r.log != nil {
		r.log.Infow("boot_counter_reset", "stable_since", now)
	}
	return nil
}

// recordHistory samples the snapshot into the time-series store, if one is
// configured.
func (r *RunnerService) recordHistory(ctx context.Context, now time.Time) error {
	if r.history == nil {
		return nil
	}
	return r.history.Record(ctx, r.ctrl.Snapshot(now))
}

// feed pets the platform watchdog and stamps the safety record.
func (r *RunnerService) feed(now time.Time) {
	if err := r.watchdog.Feed(); err != nil && r.log != nil {
		r.log.Warnw("watchdog_feed_failed", "err", err)
	}
	r.ctrl.Safety().FeedWatchdog(now)
}
