package metrics

import (
	"time"

	"github.com/kilianp07/tecsched/core/events"
)

// RunSink records solve run lifecycle events.
type RunSink interface {
	RecordRun(ev events.RunEvent) error
}

// ExtendEvent captures the derivation of an instance's tables.
type ExtendEvent struct {
	Instance  string
	Intervals int
	Jobs      int
	Duration  time.Duration
	Time      time.Time
}

// ExtendRecorder records instance table derivations.
type ExtendRecorder interface {
	RecordExtend(ev ExtendEvent) error
}

// NopSink implements RunSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(events.RunEvent) error { return nil }
func (NopSink) RecordExtend(ExtendEvent) error  { return nil }

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []RunSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...RunSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the event to all sinks, returning the first error.
func (m *MultiSink) RecordRun(ev events.RunEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordRun(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordExtend forwards the event to the sinks supporting it.
func (m *MultiSink) RecordExtend(ev ExtendEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ExtendRecorder); ok {
			if err := rec.RecordExtend(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
