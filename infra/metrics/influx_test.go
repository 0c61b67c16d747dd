package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/tecsched/core/events"
	coremetrics "github.com/kilianp07/tecsched/core/metrics"
	"github.com/kilianp07/tecsched/core/result"
)

func TestInfluxSink_RecordRun(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	obj := 42
	ev := events.RunEvent{
		RunID:       "run-1",
		Phase:       events.PhaseSaved,
		Instance:    "a.json",
		Dataset:     "d",
		Solver:      "fixed-order",
		Time:        now,
		Status:      result.Heuristic,
		Objective:   &obj,
		RunningTime: 1500 * time.Millisecond,
	}
	if err := sink.RecordRun(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("run_event").
		AddTag("run_id", "run-1").
		AddTag("solver", "fixed-order").
		AddTag("phase", "saved").
		AddTag("instance", "a.json").
		AddTag("dataset", "d").
		AddTag("status", result.Heuristic.String()).
		AddField("running_time_s", 1.5).
		AddField("time_limit_reached", false).
		AddField("objective", 42).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s\nwant: %s", body, expected)
	}
}

func TestInfluxSink_RecordExtend(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	if err := sink.RecordExtend(coremetrics.ExtendEvent{
		Instance: "a.json", Intervals: 10, Jobs: 3, Duration: 250 * time.Millisecond, Time: now,
	}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if !strings.HasPrefix(body, "instance_extend,instance=a.json ") {
		t.Errorf("unexpected body: %s", body)
	}
	if !strings.Contains(body, "duration_s=0.25") {
		t.Errorf("missing duration field: %s", body)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
