package solver

import (
	"context"
	"time"

	"github.com/kilianp07/tecsched/core/costmodel"
	"github.com/kilianp07/tecsched/core/instance"
	"github.com/kilianp07/tecsched/core/logger"
	"github.com/kilianp07/tecsched/core/model"
	"github.com/kilianp07/tecsched/core/result"
)

// Input is everything a strategy needs to build its formulation.
type Input struct {
	Instance *instance.Instance
	Costs    *costmodel.Model
	// InitStartTimes is the optional warm start, nil when none is configured.
	InitStartTimes model.StartTimes
	Config         Config
	Logger         logger.Logger
}

// EngineOptions are the limits the engine runs under.
type EngineOptions struct {
	TimeLimit time.Duration
	Workers   int
	Presolve  PresolveLevel
	// SolutionLimit stops the search after that many solutions. Zero means no
	// limit.
	SolutionLimit int
}

// Budget returns the time left for the engine: limit minus elapsed, never
// less than one second.
func Budget(limit, elapsed time.Duration) time.Duration {
	return max(time.Second, limit-elapsed)
}

// Outcome is the raw result of a solve, interpreted by the orchestrator.
type Outcome struct {
	Status           result.Status
	TimeLimitReached bool
	Objective        *int
	Bound            *float64
	TimeToBest       *time.Duration
	Log              string
	AdditionalInfo   map[string]any
}

// Solver is a strategy building and solving one formulation of the problem.
// Calls happen in order: Initialize, Solve, then Starts and Outcome.
type Solver interface {
	Initialize(ctx context.Context, in Input) error
	Solve(ctx context.Context, opts EngineOptions) error
	// Starts returns the schedule found, empty when there is none.
	Starts() model.StartTimes
	Outcome() Outcome
}
