package solvers

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/tecsched/core/factory"
	"github.com/kilianp07/tecsched/core/model"
	"github.com/kilianp07/tecsched/core/result"
	"github.com/kilianp07/tecsched/core/solver"
)

// LocalSearchConfig is the specialized config of the local-search strategy.
type LocalSearchConfig struct {
	// Iterations per restart; nil runs until the time limit.
	Iterations         *int     `json:"Iterations"`
	Restarts           *int     `json:"Restarts"`
	SwapNeighbors      int      `json:"SwapNeighbors"`
	InsertionNeighbors int      `json:"InsertionNeighbors"`
	Ordering           Ordering `json:"Ordering"`
}

func defaultLocalSearchConfig() LocalSearchConfig {
	one := 1
	return LocalSearchConfig{Restarts: &one, SwapNeighbors: 20, InsertionNeighbors: 20, Ordering: OrderRandom}
}

// candidate is a job order per machine with its evaluated schedule.
type candidate struct {
	orders    [][]model.Job
	starts    model.StartTimes
	objective int
	ok        bool
}

// LocalSearch explores job orders with random swaps and insertions, timing
// every order with the fixed-order sequencer. The first restart starts from
// the warm start order when one is given.
type LocalSearch struct {
	cfg LocalSearchConfig
	in  solver.Input
	seq *sequencer

	best       *candidate
	status     result.Status
	timeout    bool
	toBest     *time.Duration
	iterations int
}

// NewLocalSearch builds the strategy from its specialized config.
func NewLocalSearch(conf map[string]any) (solver.Solver, error) {
	cfg := defaultLocalSearchConfig()
	if err := factory.Decode(conf, &cfg); err != nil {
		return nil, err
	}
	if !cfg.Ordering.Valid() {
		return nil, fmt.Errorf("local-search: unknown ordering %q", cfg.Ordering)
	}
	if cfg.SwapNeighbors < 0 || cfg.InsertionNeighbors < 0 {
		return nil, errors.New("local-search: negative neighbor count")
	}
	return &LocalSearch{cfg: cfg}, nil
}

func (ls *LocalSearch) Initialize(_ context.Context, in solver.Input) error {
	if !in.Instance.Extended() {
		return errors.New("local-search: instance is not extended")
	}
	ls.in = in
	ls.seq = newSequencer(in.Instance, in.Costs)
	return nil
}

func (ls *LocalSearch) Solve(ctx context.Context, opts solver.EngineOptions) error {
	ctx, cancel := context.WithTimeout(ctx, opts.TimeLimit)
	defer cancel()
	begin := time.Now()
	rnd := rand.New(rand.NewPCG(uint64(ls.in.Config.RandomSeed), 0))
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	err := ls.search(ctx, rnd, workers, opts.SolutionLimit, begin)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		ls.timeout = true
	case err != nil:
		return err
	}
	ls.status = result.NoSolution
	if ls.best != nil {
		ls.status = result.Heuristic
	}
	return nil
}

func (ls *LocalSearch) search(ctx context.Context, rnd *rand.Rand, workers, solutionLimit int, begin time.Time) error {
	found := 0
	for restart := 0; ls.cfg.Restarts == nil || restart < *ls.cfg.Restarts; restart++ {
		ordering := OrderRandom
		if restart == 0 {
			ordering = ls.cfg.Ordering
			if ls.in.InitStartTimes != nil {
				ordering = OrderWarmStart
			}
		}
		orders, err := machineOrders(ls.in.Instance, ordering, ls.in.InitStartTimes, rnd)
		if err != nil {
			return err
		}
		incumbent, err := ls.evaluate(ctx, orders)
		if err != nil {
			return err
		}
		if ls.improve(incumbent, begin) {
			found++
		}
		if solutionLimit > 0 && found >= solutionLimit {
			return nil
		}
		if !searchable(orders) {
			return nil
		}

		for it := 0; ls.cfg.Iterations == nil || it < *ls.cfg.Iterations; it++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			neighbors := ls.neighbors(incumbent.orders, rnd)
			evaluated := make([]*candidate, len(neighbors))
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(workers)
			for i, n := range neighbors {
				g.Go(func() error {
					c, err := ls.evaluate(gctx, n)
					evaluated[i] = c
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			var bestNeighbor *candidate
			for _, c := range evaluated {
				if c.ok && (bestNeighbor == nil || c.objective < bestNeighbor.objective) {
					bestNeighbor = c
				}
			}
			ls.iterations++
			if bestNeighbor != nil && (!incumbent.ok || bestNeighbor.objective <= incumbent.objective) {
				incumbent = bestNeighbor
				if ls.improve(incumbent, begin) {
					found++
				}
			}
			if solutionLimit > 0 && found >= solutionLimit {
				return nil
			}
		}
	}
	return nil
}

func (ls *LocalSearch) evaluate(ctx context.Context, orders [][]model.Job) (*candidate, error) {
	starts, obj, ok, err := ls.seq.scheduleAll(ctx, orders)
	if err != nil {
		return nil, err
	}
	return &candidate{orders: orders, starts: starts, objective: obj, ok: ok}, nil
}

// improve records c when it beats the best known schedule.
func (ls *LocalSearch) improve(c *candidate, begin time.Time) bool {
	if !c.ok || (ls.best != nil && c.objective >= ls.best.objective) {
		return false
	}
	ls.best = c
	d := time.Since(begin)
	ls.toBest = &d
	return true
}

func searchable(orders [][]model.Job) bool {
	for _, o := range orders {
		if len(o) > 1 {
			return true
		}
	}
	return false
}

// neighbors draws random swaps of jobs with different processing times and
// random insertions, each on a random machine with at least two jobs.
func (ls *LocalSearch) neighbors(orders [][]model.Job, rnd *rand.Rand) [][][]model.Job {
	var machines []int
	for m, o := range orders {
		if len(o) > 1 {
			machines = append(machines, m)
		}
	}
	var out [][][]model.Job
	for range ls.cfg.SwapNeighbors {
		m := machines[rnd.IntN(len(machines))]
		o := orders[m]
		for attempt := 0; attempt < 10; attempt++ {
			a, b := rnd.IntN(len(o)), rnd.IntN(len(o))
			if o[a].ProcessingTime == o[b].ProcessingTime {
				continue
			}
			n := cloneOrders(orders)
			n[m][a], n[m][b] = n[m][b], n[m][a]
			out = append(out, n)
			break
		}
	}
	for range ls.cfg.InsertionNeighbors {
		m := machines[rnd.IntN(len(machines))]
		src, dst := rnd.IntN(len(orders[m])), rnd.IntN(len(orders[m]))
		n := cloneOrders(orders)
		job := n[m][src]
		o := append(n[m][:src:src], n[m][src+1:]...)
		o = append(o[:dst], append([]model.Job{job}, o[dst:]...)...)
		n[m] = o
		out = append(out, n)
	}
	return out
}

func (ls *LocalSearch) Starts() model.StartTimes {
	if ls.best == nil {
		return nil
	}
	return ls.best.starts
}

func (ls *LocalSearch) Outcome() solver.Outcome {
	out := solver.Outcome{
		Status:           ls.status,
		TimeLimitReached: ls.timeout,
		TimeToBest:       ls.toBest,
		AdditionalInfo:   map[string]any{"Iterations": ls.iterations},
	}
	if ls.best != nil {
		obj := ls.best.objective
		out.Objective = &obj
	}
	return out
}
