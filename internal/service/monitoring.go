package service

import (
	"context"
	"time"

	"zonectl/internal/control"
	"zonectl/internal/models"
)

// MonitoringService serves read-only snapshots straight from the controller.
// Snapshots are value copies, never live references into control state.
type MonitoringService struct {
	ctrl *control.Controller
}

func NewMonitoringService(ctrl *control.Controller) *MonitoringService {
	return &MonitoringService{ctrl: ctrl}
}

var _ Monitoring = (*MonitoringService)(nil)

// Status returns the whole-device snapshot.
func (s *MonitoringService) Status(_ context.Context) (models.ControllerStatus, error) {
	return s.ctrl.Snapshot(time.Now().UTC()), nil
}

// Output returns one channel's runtime view.
func (s *MonitoringService) Output(_ context.Context, channel int) (models.OutputStatus, error) {
	return s.ctrl.OutputStatus(channel)
}

// Sensors returns the registry contents: every probe seen since boot.
func (s *MonitoringService) Sensors(_ context.Context) ([]models.SensorInfo, error) {
	return s.ctrl.Sensors(), nil
}
