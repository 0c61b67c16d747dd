// Package orchestrator drives one solve run through its lifecycle:
// Created, Initialized, Solved, Saved. It loads the run inputs, prepares the
// warm start and the cost model, hands the formulation to a solver strategy
// under a time budget and persists the assembled result.
package orchestrator
