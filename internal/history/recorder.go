// Package history records per-tick zone samples to InfluxDB for trend
// dashboards. Recording is best-effort: a failed write never disturbs the
// control loop.
package history

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"zonectl/internal/models"
)

const measurement = "zone_sample"

// Recorder writes output snapshots to InfluxDB.
type Recorder struct {
	client influxdb2.Client
	api    api.WriteAPIBlocking
}

// NewRecorder creates an InfluxDB write client. Caller should Close when
// done.
func NewRecorder(url, token, org, bucket string) *Recorder {
	client := influxdb2.NewClient(url, token)
	return &Recorder{client: client, api: client.WriteAPIBlocking(org, bucket)}
}

// Close releases the InfluxDB client.
func (r *Recorder) Close() {
	r.client.Close()
}

// Health checks that InfluxDB is reachable.
func (r *Recorder) Health(ctx context.Context) error {
	_, err := r.client.Health(ctx)
	return err
}

// Record writes one sample per output from the snapshot.
func (r *Recorder) Record(ctx context.Context, st models.ControllerStatus) error {
	for _, out := range st.Outputs {
		if !out.Enabled {
			continue
		}
		p := influxdb2.NewPointWithMeasurement(measurement).
			AddTag("channel", fmt.Sprintf("%d", out.Channel)).
			AddTag("name", out.Name).
			AddTag("mode", string(out.Mode)).
			AddField("temp_c", out.CurrentTempC).
			AddField("target_c", out.TargetC).
			AddField("power_pct", out.PowerPct).
			AddField("heating", out.Heating).
			AddField("fault", string(out.Fault)).
			AddField("sensor_health", string(out.SensorHealth)).
			SetTime(st.Now)
		if err := r.api.WritePoint(ctx, p); err != nil {
			return fmt.Errorf("influx write channel %d: %w", out.Channel, err)
		}
	}
	return nil
}
