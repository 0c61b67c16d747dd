package solvers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/tecsched/core/factory"
	"github.com/kilianp07/tecsched/core/model"
	"github.com/kilianp07/tecsched/core/result"
	"github.com/kilianp07/tecsched/core/solver"
)

// LPBoundConfig is the specialized config of the lp-bound strategy.
type LPBoundConfig struct {
	// WithHeuristic also times the shortest-first order and reports Optimal
	// when it meets the bound.
	WithHeuristic bool    `json:"WithHeuristic"`
	Tolerance     float64 `json:"Tolerance"`
}

// simplex is replaced in tests to simulate solver failures.
var simplex = lp.Simplex

// LPBound relaxes the time-indexed formulation: x[j,t] is the fraction of
// job j starting at t, every job starts once and every interval of a
// machine is covered at most once. The LP optimum of the processing cost
// plus the cheapest way into the first and out of the last job of every
// machine bounds the total energy cost from below.
type LPBound struct {
	cfg LPBoundConfig
	in  solver.Input
	seq *sequencer

	bound     *float64
	starts    model.StartTimes
	objective *int
	status    result.Status
	timeout   bool
	toBest    *time.Duration
	vars      int
}

// NewLPBound builds the strategy from its specialized config.
func NewLPBound(conf map[string]any) (solver.Solver, error) {
	cfg := LPBoundConfig{Tolerance: 1e-9}
	if err := factory.Decode(conf, &cfg); err != nil {
		return nil, err
	}
	if cfg.Tolerance <= 0 {
		return nil, fmt.Errorf("lp-bound: tolerance must be > 0 (got %g)", cfg.Tolerance)
	}
	return &LPBound{cfg: cfg}, nil
}

func (b *LPBound) Initialize(_ context.Context, in solver.Input) error {
	if !in.Instance.Extended() {
		return errors.New("lp-bound: instance is not extended")
	}
	b.in = in
	b.seq = newSequencer(in.Instance, in.Costs)
	return nil
}

type lpVar struct {
	job   model.Job
	start int
}

func (b *LPBound) Solve(ctx context.Context, opts solver.EngineOptions) error {
	ctx, cancel := context.WithTimeout(ctx, opts.TimeLimit)
	defer cancel()
	begin := time.Now()
	b.status = result.NoSolution

	floor, ok := b.switchingFloor()
	if !ok {
		b.status = result.Infeasible
		return nil
	}
	processing, ok, err := b.relaxation()
	if err != nil {
		return err
	}
	if !ok {
		b.status = result.Infeasible
		return nil
	}
	bound := processing + float64(floor)
	b.bound = &bound
	if ctx.Err() != nil {
		b.timeout = true
		return nil
	}

	if !b.cfg.WithHeuristic {
		return nil
	}
	orders, err := machineOrders(b.in.Instance, OrderShortestFirst, nil, nil)
	if err != nil {
		return err
	}
	starts, obj, found, err := b.seq.scheduleAll(ctx, orders)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		b.timeout = true
		return nil
	case err != nil:
		return err
	case !found:
		return nil
	}
	d := time.Since(begin)
	b.starts, b.objective, b.toBest = starts, &obj, &d
	b.status = result.Heuristic
	if float64(obj) <= math.Ceil(bound-1e-6) {
		b.status = result.Optimal
	}
	return nil
}

// switchingFloor is the cheapest switching into the first job and out of
// the last job, summed over machines. ok is false when some machine cannot
// be switched at all.
func (b *LPBound) switchingFloor() (int, bool) {
	in := b.in.Instance
	osc := in.OptimalSwitchingCosts
	total := 0
	for m := 0; m < in.MachinesCount; m++ {
		if len(in.MachineJobs(m)) == 0 {
			c, ok := osc.At(0, osc.LastCol(0))
			if !ok {
				return 0, false
			}
			total += c
			continue
		}
		into, out := math.MaxInt, math.MaxInt
		for t := 1; t < len(in.Intervals); t++ {
			if c, ok := osc.At(0, t); ok {
				into = min(into, c)
			}
			if c, ok := osc.At(t, osc.LastCol(t)); ok {
				out = min(out, c)
			}
		}
		if into == math.MaxInt || out == math.MaxInt {
			return 0, false
		}
		total += into + out
	}
	return total, true
}

// relaxation solves the LP in standard form with one slack per interval
// capacity row.
func (b *LPBound) relaxation() (float64, bool, error) {
	in := b.in.Instance
	if len(in.Jobs) == 0 {
		return 0, true, nil
	}
	ranges := b.in.Costs.ValidStartTimeRanges()
	var vars []lpVar
	for _, j := range in.Jobs {
		r := ranges[j.Index]
		n := 0
		for t := r.Begin; t < r.End; t++ {
			if j.Completion(t) > in.LatestOnIntervalIdx {
				break
			}
			vars = append(vars, lpVar{job: j, start: t})
			n++
		}
		if n == 0 {
			return 0, false, nil
		}
	}
	b.vars = len(vars)

	first, last := in.EarliestOnIntervalIdx, in.LatestOnIntervalIdx
	width := last - first + 1
	capRow := func(machine, interval int) int { return len(in.Jobs) + machine*width + interval - first }
	rows := len(in.Jobs) + in.MachinesCount*width
	cols := len(vars) + in.MachinesCount*width

	a := mat.NewDense(rows, cols, nil)
	rhs := make([]float64, rows)
	c := make([]float64, cols)
	for i := range rhs {
		rhs[i] = 1
	}
	for k, v := range vars {
		c[k] = float64(in.TotalEnergyCostOnInterval(v.start, v.job.Completion(v.start), in.OnPowerConsumption))
		a.Set(v.job.Index, k, 1)
		for u := v.start; u <= v.job.Completion(v.start); u++ {
			a.Set(capRow(v.job.MachineIdx, u), k, 1)
		}
	}
	for r := len(in.Jobs); r < rows; r++ {
		a.Set(r, len(vars)+r-len(in.Jobs), 1)
	}

	opt, _, err := simplex(c, a, rhs, b.cfg.Tolerance, nil)
	if errors.Is(err, lp.ErrInfeasible) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lp-bound: %w", err)
	}
	return opt, true, nil
}

func (b *LPBound) Starts() model.StartTimes { return b.starts }

func (b *LPBound) Outcome() solver.Outcome {
	return solver.Outcome{
		Status:           b.status,
		TimeLimitReached: b.timeout,
		Objective:        b.objective,
		Bound:            b.bound,
		TimeToBest:       b.toBest,
		AdditionalInfo:   map[string]any{"Variables": b.vars},
	}
}
