// Package solver defines the contract between the run orchestrator and the
// solver strategies: the run configuration, the engine options derived from
// it and the outcome a strategy reports.
package solver
