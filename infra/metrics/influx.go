package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/tecsched/core/events"
	coremetrics "github.com/kilianp07/tecsched/core/metrics"
	"github.com/kilianp07/tecsched/infra/logger"
)

// InfluxSink writes run events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.RunSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes the event as a run_event point.
func (s *InfluxSink) RecordRun(ev events.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, runPoint(ev))
}

// RecordExtend writes the derivation time of an instance.
func (s *InfluxSink) RecordExtend(ev coremetrics.ExtendEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("instance_extend").
		AddTag("instance", ev.Instance).
		AddField("intervals", ev.Intervals).
		AddField("jobs", ev.Jobs).
		AddField("duration_s", round3(ev.Duration.Seconds())).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client resources.
func (s *InfluxSink) Close() { s.client.Close() }

func runPoint(ev events.RunEvent) *write.Point {
	p := write.NewPointWithMeasurement("run_event").
		AddTag("run_id", ev.RunID).
		AddTag("solver", ev.Solver).
		AddTag("phase", string(ev.Phase)).
		AddTag("instance", ev.Instance)
	if ev.Dataset != "" {
		p.AddTag("dataset", ev.Dataset)
	}
	if status := statusLabel(ev); status != "" {
		p.AddTag("status", status)
	}
	p.AddField("running_time_s", round3(ev.RunningTime.Seconds())).
		AddField("time_limit_reached", ev.TimeLimitReached)
	if ev.Objective != nil {
		p.AddField("objective", *ev.Objective)
	}
	if ev.LowerBound != nil && !math.IsInf(*ev.LowerBound, 0) {
		p.AddField("lower_bound", round3(*ev.LowerBound))
	}
	if ev.Error != "" {
		p.AddField("error", ev.Error)
	}
	return p.SetTime(ev.Time)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
