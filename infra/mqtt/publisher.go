package mqtt

import (
	"context"
	"sync"

	"github.com/kilianp07/tecsched/core/events"
	coremqtt "github.com/kilianp07/tecsched/core/mqtt"
	"github.com/kilianp07/tecsched/infra/logger"
	"github.com/kilianp07/tecsched/internal/eventbus"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// StartRunNotifier forwards every run event of the bus to pub until ctx is
// done or the bus is closed. Publishing errors are logged and skipped. The
// returned channel is closed when the notifier stops.
func StartRunNotifier(ctx context.Context, bus *eventbus.Bus[events.RunEvent], pub Publisher, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || pub == nil {
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
				if err := pub.PublishRun(ctx, ev); err != nil {
					log.Warnf("notify run %s/%s: %v", ev.RunID, ev.Phase, err)
				}
			}
		}
	}()
	return done
}

// MockPublisher records published events; used in tests.
type MockPublisher struct {
	mu     sync.Mutex
	Events []events.RunEvent
	Err    error
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher { return &MockPublisher{} }

// PublishRun records the event or returns the configured error.
func (m *MockPublisher) PublishRun(_ context.Context, ev events.RunEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, ev)
	return nil
}

// Published returns a copy of the recorded events.
func (m *MockPublisher) Published() []events.RunEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.RunEvent(nil), m.Events...)
}
