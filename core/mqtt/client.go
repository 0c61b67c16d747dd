// Package mqtt defines how run lifecycle events are announced to an MQTT
// broker. The Paho based implementation lives in infra/mqtt.
package mqtt

import (
	"context"
	"fmt"

	"github.com/kilianp07/tecsched/core/events"
)

// Publisher announces run events to subscribers outside the process.
type Publisher interface {
	// PublishRun sends one event. It retries transient failures and returns
	// the last error once retries are exhausted or ctx is done.
	PublishRun(ctx context.Context, ev events.RunEvent) error
}

// RunTopic returns the topic a run event is published on:
// <prefix>/runs/<solver>/<phase>.
func RunTopic(prefix string, ev events.RunEvent) string {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return fmt.Sprintf("%s/runs/%s/%s", prefix, ev.Solver, ev.Phase)
}

// StatusTopic carries the retained online/offline status of the process.
func StatusTopic(prefix string) string {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return prefix + "/status"
}

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "tecsched"
