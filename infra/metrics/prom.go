package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/tecsched/core/events"
	coremetrics "github.com/kilianp07/tecsched/core/metrics"
)

// PromSink records run events in Prometheus metrics.
type PromSink struct {
	runs      *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	objective *prometheus.GaugeVec
	extend    prometheus.Histogram
}

// NewPromSink registers run metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tecsched_run_events_total",
		Help: "Total number of run lifecycle events",
	}, []string{"solver", "phase", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tecsched_run_duration_seconds",
		Help:    "Running time of saved runs",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600, 1800},
	}, []string{"solver", "status"})
	objective := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tecsched_run_objective",
		Help: "Objective of the last saved run per instance",
	}, []string{"solver", "dataset", "instance"})
	extend := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tecsched_extend_duration_seconds",
		Help:    "Time spent deriving instance tables",
		Buckets: prometheus.DefBuckets,
	})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if objective, err = register(reg, objective); err != nil {
		return nil, err
	}
	if extend, err = register(reg, extend); err != nil {
		return nil, err
	}
	return &PromSink{runs: runs, duration: duration, objective: objective, extend: extend}, nil
}

// register reuses the collector already registered under the same
// descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun counts the event and, once saved, tracks its running time and
// objective.
func (s *PromSink) RecordRun(ev events.RunEvent) error {
	s.runs.WithLabelValues(ev.Solver, string(ev.Phase), statusLabel(ev)).Inc()
	if ev.Phase != events.PhaseSaved {
		return nil
	}
	s.duration.WithLabelValues(ev.Solver, ev.Status.String()).Observe(ev.RunningTime.Seconds())
	if ev.Objective != nil {
		s.objective.WithLabelValues(ev.Solver, ev.Dataset, ev.Instance).Set(float64(*ev.Objective))
	}
	return nil
}

// RecordExtend observes the table derivation time.
func (s *PromSink) RecordExtend(ev coremetrics.ExtendEvent) error {
	s.extend.Observe(ev.Duration.Seconds())
	return nil
}

// statusLabel is empty for phases that carry no outcome.
func statusLabel(ev events.RunEvent) string {
	if ev.Phase == events.PhaseSolved || ev.Phase == events.PhaseSaved {
		return ev.Status.String()
	}
	return ""
}
