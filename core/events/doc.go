// Package events defines the run lifecycle events emitted on the event bus.
//
// Every orchestrated run publishes a RunEvent per phase:
//   - PhaseStarted: configuration and instance loaded
//   - PhaseSolved: the strategy returned from its search
//   - PhaseSaved: the result was persisted
//   - PhaseFailed: the run stopped with an error
package events
