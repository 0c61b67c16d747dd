package solvers

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/kilianp07/tecsched/core/factory"
	"github.com/kilianp07/tecsched/core/model"
	"github.com/kilianp07/tecsched/core/result"
	"github.com/kilianp07/tecsched/core/solver"
)

// FixedOrderConfig is the specialized config of the fixed-order strategy.
type FixedOrderConfig struct {
	Ordering Ordering `json:"Ordering"`
}

// FixedOrder times a single job order per machine optimally. The result is
// a heuristic since the order is not searched.
type FixedOrder struct {
	cfg FixedOrderConfig
	in  solver.Input
	seq *sequencer

	starts    model.StartTimes
	objective *int
	status    result.Status
	timeout   bool
	toBest    *time.Duration
}

// NewFixedOrder builds the strategy from its specialized config.
func NewFixedOrder(conf map[string]any) (solver.Solver, error) {
	var cfg FixedOrderConfig
	if err := factory.Decode(conf, &cfg); err != nil {
		return nil, err
	}
	if !cfg.Ordering.Valid() {
		return nil, fmt.Errorf("fixed-order: unknown ordering %q", cfg.Ordering)
	}
	return &FixedOrder{cfg: cfg}, nil
}

func (f *FixedOrder) Initialize(_ context.Context, in solver.Input) error {
	if !in.Instance.Extended() {
		return errors.New("fixed-order: instance is not extended")
	}
	if f.cfg.Ordering == OrderWarmStart && in.InitStartTimes == nil {
		return errors.New("fixed-order: warm-start ordering without init start times")
	}
	f.in = in
	f.seq = newSequencer(in.Instance, in.Costs)
	return nil
}

func (f *FixedOrder) Solve(ctx context.Context, opts solver.EngineOptions) error {
	ctx, cancel := context.WithTimeout(ctx, opts.TimeLimit)
	defer cancel()
	begin := time.Now()

	rnd := rand.New(rand.NewPCG(uint64(f.in.Config.RandomSeed), 0))
	orders, err := machineOrders(f.in.Instance, f.cfg.Ordering, f.in.InitStartTimes, rnd)
	if err != nil {
		return err
	}
	starts, cost, ok, err := f.seq.scheduleAll(ctx, orders)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		f.status, f.timeout = result.NoSolution, true
		return nil
	case err != nil:
		return err
	case !ok:
		f.status = result.NoSolution
		return nil
	}
	d := time.Since(begin)
	f.starts, f.objective, f.status, f.toBest = starts, &cost, result.Heuristic, &d
	return nil
}

func (f *FixedOrder) Starts() model.StartTimes { return f.starts }

func (f *FixedOrder) Outcome() solver.Outcome {
	return solver.Outcome{
		Status:           f.status,
		TimeLimitReached: f.timeout,
		Objective:        f.objective,
		TimeToBest:       f.toBest,
		AdditionalInfo:   map[string]any{"Ordering": string(f.ordering())},
	}
}

func (f *FixedOrder) ordering() Ordering {
	if f.cfg.Ordering == "" {
		return OrderShortestFirst
	}
	return f.cfg.Ordering
}
