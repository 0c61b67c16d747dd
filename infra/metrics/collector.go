package metrics

import (
	"context"

	"github.com/kilianp07/tecsched/core/events"
	coremetrics "github.com/kilianp07/tecsched/core/metrics"
	"github.com/kilianp07/tecsched/infra/logger"
	"github.com/kilianp07/tecsched/internal/eventbus"
)

// StartEventCollector subscribes to the run bus and records every event in
// sink. It stops when the context is canceled or the bus is closed; the
// returned channel is closed then.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[events.RunEvent], sink coremetrics.RunSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	ch := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if err := sink.RecordRun(ev); err != nil {
					log.Warnf("record run %s/%s: %v", ev.RunID, ev.Phase, err)
				}
			}
		}
	}()
	return done
}
