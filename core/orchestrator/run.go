package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/tecsched/core/archive"
	"github.com/kilianp07/tecsched/core/costmodel"
	"github.com/kilianp07/tecsched/core/events"
	"github.com/kilianp07/tecsched/core/factory"
	"github.com/kilianp07/tecsched/core/feasibility"
	"github.com/kilianp07/tecsched/core/instance"
	"github.com/kilianp07/tecsched/core/logger"
	"github.com/kilianp07/tecsched/core/model"
	"github.com/kilianp07/tecsched/core/monitoring"
	"github.com/kilianp07/tecsched/core/result"
	"github.com/kilianp07/tecsched/core/solver"
	"github.com/kilianp07/tecsched/internal/eventbus"
)

// Paths locates the inputs of a run on disk.
type Paths struct {
	Config       string
	SolverConfig string
	Instance     string
}

// Inputs are the already loaded inputs of a run.
type Inputs struct {
	Config      solver.Config
	Specialized map[string]any
	Instance    *instance.Instance
}

// Options wires a run to its collaborators. Solver and Saver are required.
type Options struct {
	// Solver is the registered strategy name.
	Solver string
	// Key is where the result is saved.
	Key   archive.Key
	Saver archive.Saver
	// RunID identifies the run in events; generated when empty.
	RunID  string
	Bus    *eventbus.Bus[events.RunEvent]
	Logger logger.Logger
	// CheckFeasibility verifies feasible outcomes before saving.
	CheckFeasibility bool
	// Extend computes missing instance tables on load.
	Extend bool
	Now    func() time.Time
}

// Run is one solve run. Steps must be called in lifecycle order.
type Run struct {
	mu    sync.Mutex
	state State

	id       string
	opts     Options
	cfg      solver.Config
	inst     *instance.Instance
	costs    *costmodel.Model
	strategy solver.Solver
	log      logger.Logger
	now      func() time.Time
	start    time.Time

	initStarts model.StartTimes
	res        *result.Result
}

// New loads the run config, the solver specific config and the instance
// from disk.
func New(ctx context.Context, p Paths, opts Options) (*Run, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	start := now()
	cfg, err := solver.LoadConfig(p.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	specialized, err := solver.LoadSpecialized(p.SolverConfig)
	if err != nil {
		return nil, fmt.Errorf("load solver config: %w", err)
	}
	inst, err := instance.Load(p.Instance)
	if err != nil {
		return nil, fmt.Errorf("load instance: %w", err)
	}
	r, err := NewFromInputs(ctx, Inputs{Config: cfg, Specialized: specialized, Instance: inst}, opts)
	if err != nil {
		return nil, err
	}
	r.start = start
	return r, nil
}

// NewFromInputs builds a run from loaded inputs. The run clock starts here.
func NewFromInputs(ctx context.Context, in Inputs, opts Options) (*Run, error) {
	if opts.Saver == nil {
		return nil, fmt.Errorf("orchestrator: saver is required")
	}
	if in.Instance == nil {
		return nil, fmt.Errorf("orchestrator: instance is required")
	}
	if err := in.Config.Validate(); err != nil {
		return nil, err
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	id := opts.RunID
	if id == "" {
		id = uuid.NewString()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop{}
	}
	log = log.With("run_id", id).With("instance", in.Instance.Filename())

	r := &Run{
		id:    id,
		opts:  opts,
		cfg:   in.Config,
		inst:  in.Instance,
		log:   log,
		now:   now,
		start: now(),
	}

	if opts.Extend && !r.inst.Extended() {
		t0 := now()
		if err := r.inst.Extend(ctx, instance.ExtendOptions{Workers: in.Config.NumWorkers}); err != nil {
			return nil, fmt.Errorf("extend instance: %w", err)
		}
		r.log.Debugf("instance extended in %s", now().Sub(t0))
	}
	if err := r.inst.Validate(); err != nil {
		return nil, err
	}

	var cmOpts costmodel.Options
	if err := factory.Decode(in.Specialized, &cmOpts); err != nil {
		return nil, fmt.Errorf("solver config: %w", err)
	}
	r.costs = costmodel.New(r.inst, cmOpts)

	strategy, err := solver.New(opts.Solver, in.Specialized)
	if err != nil {
		return nil, err
	}
	r.strategy = strategy
	r.publish(events.PhaseStarted, nil, nil)
	return r, nil
}

// ID returns the run id.
func (r *Run) ID() string { return r.id }

// Instance returns the instance being solved.
func (r *Run) Instance() *instance.Instance { return r.inst }

// Elapsed returns the wall time since the run was created.
func (r *Run) Elapsed() time.Duration { return r.now().Sub(r.start) }

// InitStartTimes returns the warm start from the config, nil when none is
// configured. With sortStarts the starts of every group of equal processing
// time jobs are reassigned in ascending order following job index order.
func (r *Run) InitStartTimes(sortStarts bool) (model.StartTimes, error) {
	if len(r.cfg.InitStartTimes) == 0 {
		return nil, nil
	}
	starts := make(model.StartTimes, len(r.cfg.InitStartTimes))
	for _, st := range r.cfg.InitStartTimes {
		if _, ok := r.inst.Job(st.JobIndex); !ok {
			return nil, fmt.Errorf("%w: warm start for job index %d", result.ErrUnknownJob, st.JobIndex)
		}
		starts[st.JobIndex] = st.StartTime
	}
	if !sortStarts {
		return starts, nil
	}
	for _, group := range r.costs.JobsByLength() {
		var jobs []model.Job
		var values []int
		for _, j := range group {
			if s, ok := starts[j.Index]; ok {
				jobs = append(jobs, j)
				values = append(values, s)
			}
		}
		sort.Ints(values)
		for i, j := range jobs {
			starts[j.Index] = values[i]
		}
	}
	return starts, nil
}

// Initialize prepares the warm start and lets the strategy build its
// formulation. A warm start outside the valid start ranges is fatal.
func (r *Run) Initialize(ctx context.Context) error {
	if err := r.expect(Created, Initialized); err != nil {
		return err
	}
	starts, err := r.InitStartTimes(r.costs.Options().RelaxedJobsOrdering)
	if err != nil {
		return r.fail(err)
	}
	if starts != nil {
		if err := r.costs.CheckWarmStart(starts); err != nil {
			return r.fail(err)
		}
		r.log.Debugw("warm start", map[string]any{
			"jobs":        len(starts),
			"upper_bound": r.costs.UpperBound(starts),
		})
	}
	r.initStarts = starts
	in := solver.Input{
		Instance:       r.inst,
		Costs:          r.costs,
		InitStartTimes: starts.Clone(),
		Config:         r.cfg,
		Logger:         r.log.With("solver", r.opts.Solver),
	}
	if err := r.strategy.Initialize(ctx, in); err != nil {
		return r.fail(fmt.Errorf("initialize %s: %w", r.opts.Solver, err))
	}
	return r.advance(Created, Initialized)
}

// Solve runs the strategy with the time left of the configured limit.
func (r *Run) Solve(ctx context.Context) error {
	if err := r.expect(Initialized, Solved); err != nil {
		return err
	}
	opts := r.cfg.EngineOptions(r.Elapsed())
	r.log.Infof("solving with %s, budget %s, workers %d, presolve %s",
		r.opts.Solver, opts.TimeLimit, opts.Workers, opts.Presolve)
	if err := r.strategy.Solve(ctx, opts); err != nil {
		return r.fail(fmt.Errorf("solve %s: %w", r.opts.Solver, err))
	}
	if err := r.advance(Initialized, Solved); err != nil {
		return err
	}
	out := r.strategy.Outcome()
	r.publish(events.PhaseSolved, r.assemble(out), nil)
	return nil
}

// Starts returns the schedule found by the strategy, empty when none.
func (r *Run) Starts() (model.StartTimes, error) {
	if s := r.State(); s < Solved {
		return nil, fmt.Errorf("%w: starts requested in state %s", ErrInvalidTransition, s)
	}
	starts := r.strategy.Starts()
	if starts == nil {
		return model.StartTimes{}, nil
	}
	return starts, nil
}

// SaveResult assembles the result and persists it under the run key.
func (r *Run) SaveResult(ctx context.Context) (*result.Result, error) {
	if err := r.expect(Solved, Saved); err != nil {
		return nil, err
	}
	res := r.assemble(r.strategy.Outcome())
	if r.opts.CheckFeasibility && res.Status.IsFeasible() {
		rep := feasibility.Check(r.inst, res.StartTimes, res.Objective)
		if err := rep.Err(); err != nil {
			return nil, r.fail(fmt.Errorf("%s with %s: %w", r.inst.Filename(), r.opts.Solver, err))
		}
	}
	if err := r.opts.Saver.Save(ctx, r.opts.Key, res); err != nil {
		return nil, r.fail(fmt.Errorf("save result %s: %w", r.opts.Key, err))
	}
	if err := r.advance(Solved, Saved); err != nil {
		return nil, err
	}
	r.res = res
	r.log.Infof("saved %s status=%s", r.opts.Key, res.Status)
	r.publish(events.PhaseSaved, res, nil)
	return res, nil
}

// Run drives the whole lifecycle.
func (r *Run) Run(ctx context.Context) (*result.Result, error) {
	if err := r.Initialize(ctx); err != nil {
		return nil, err
	}
	if err := r.Solve(ctx); err != nil {
		return nil, err
	}
	return r.SaveResult(ctx)
}

func (r *Run) assemble(out solver.Outcome) *result.Result {
	res := &result.Result{
		Status:           out.Status,
		TimeLimitReached: out.TimeLimitReached,
		RunningTime:      r.Elapsed(),
		LowerBound:       out.Bound,
		TimeToBest:       out.TimeToBest,
		AdditionalInfo:   map[string]any{"RunId": r.id},
	}
	for k, v := range out.AdditionalInfo {
		res.AdditionalInfo[k] = v
	}
	if out.Status.IsFeasible() {
		res.Objective = out.Objective
		if starts := r.strategy.Starts(); len(starts) > 0 {
			res.StartTimes = starts.Clone()
		}
	}
	return res
}

func (r *Run) expect(from, to State) error {
	if s := r.State(); s != from {
		return fmt.Errorf("%w: %s -> %s from %s", ErrInvalidTransition, from, to, s)
	}
	return nil
}

func (r *Run) fail(err error) error {
	r.log.Errorf("%v", err)
	monitoring.CaptureException(err, map[string]string{
		"run_id":   r.id,
		"solver":   r.opts.Solver,
		"instance": r.inst.Filename(),
		"state":    r.State().String(),
	})
	r.publish(events.PhaseFailed, nil, err)
	return err
}

func (r *Run) publish(phase events.Phase, res *result.Result, err error) {
	if r.opts.Bus == nil {
		return
	}
	ev := events.RunEvent{
		RunID:    r.id,
		Phase:    phase,
		Instance: r.inst.Filename(),
		Dataset:  r.opts.Key.Dataset,
		Solver:   r.opts.Solver,
		Time:     r.now(),
	}.WithResult(res)
	if err != nil {
		ev.Error = err.Error()
	}
	r.opts.Bus.Publish(ev)
}
