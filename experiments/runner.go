package experiments

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/tecsched/core/archive"
	"github.com/kilianp07/tecsched/core/events"
	"github.com/kilianp07/tecsched/core/instance"
	"github.com/kilianp07/tecsched/core/logger"
	"github.com/kilianp07/tecsched/core/metrics"
	"github.com/kilianp07/tecsched/core/monitoring"
	"github.com/kilianp07/tecsched/core/orchestrator"
	"github.com/kilianp07/tecsched/internal/eventbus"
)

// Cache keeps extended instances between runs, keyed by the content of the
// base instance file.
type Cache interface {
	Get(ctx context.Context, key, filename string) (*instance.Instance, bool, error)
	Put(ctx context.Context, key string, in *instance.Instance) error
}

// Runner executes prescriptions against a data directory.
type Runner struct {
	Store *archive.FileStore
	// Index receives every saved result in addition to Store.
	Index archive.Saver
	Cache Cache
	Bus   *eventbus.Bus[events.RunEvent]
	Log   logger.Logger
	// Extends, when set, records every instance table derivation.
	Extends metrics.ExtendRecorder
	// Workers bounds the instances solved in parallel per solver.
	Workers     int
	FromScratch bool
}

// Run executes the prescription stored under file in the prescriptions
// directory.
func (r *Runner) Run(ctx context.Context, file string) error {
	layout := r.Store.Layout()
	p, err := LoadPrescription(layout.PrescriptionPath(file))
	if err != nil {
		return err
	}
	return r.RunPrescription(ctx, archive.PrescriptionName(file), p)
}

// RunPrescription executes p, archiving results under name.
func (r *Runner) RunPrescription(ctx context.Context, name string, p *Prescription) error {
	layout := r.Store.Layout()
	for _, ds := range p.DatasetNames {
		if st, err := os.Stat(layout.DatasetDir(ds)); err != nil || !st.IsDir() {
			return fmt.Errorf("dataset directory %s does not exist", layout.DatasetDir(ds))
		}
	}
	if r.FromScratch {
		for _, ds := range p.DatasetNames {
			for _, s := range p.Solvers {
				if err := r.Store.ClearSolver(name, ds, s.ID); err != nil {
					return fmt.Errorf("clear %s/%s/%s: %w", name, ds, s.ID, err)
				}
			}
		}
	}

	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	for _, ds := range p.DatasetNames {
		paths, err := layout.DatasetInstances(ds)
		if err != nil {
			return err
		}
		// solvers run in prescription order since later ones may warm
		// start from earlier results
		for _, sp := range p.Solvers {
			cfg := Merge(p.GlobalConfig, sp.Config)
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(workers)
			for _, path := range paths {
				g.Go(func() error {
					defer monitoring.Recover()
					key := archive.Key{Prescription: name, Dataset: ds, SolverID: sp.ID, Instance: filepath.Base(path)}
					if err := r.solve(gctx, key, path, sp, cfg); err != nil {
						r.logger().Errorf("error while solving %s using %s: %v", path, sp.ID, err)
						return err
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Runner) solve(ctx context.Context, key archive.Key, path string, sp SolverPrescription, sc SolverConfig) error {
	log := r.logger()
	if !r.FromScratch {
		done, err := r.Store.Exists(ctx, key)
		if err != nil {
			return err
		}
		if done {
			log.Infof("%s using %s already solved", path, sp.ID)
			return nil
		}
	}
	log.Infof("solving %s using %s", path, sp.ID)

	inst, extendTime, err := r.loadInstance(ctx, path, sc)
	if err != nil {
		return err
	}

	cfg := sc.RunConfig()
	if sp.InitStartTimesFrom != "" {
		from := key
		from.SolverID = sp.InitStartTimesFrom
		warm, err := r.Store.Load(ctx, from, inst)
		if err != nil {
			return fmt.Errorf("init start times: %w", err)
		}
		if warm.Status.IsFeasible() && warm.StartTimes != nil {
			cfg.InitStartTimes = warm.StartTimes.Indexed()
		}
		if sp.DecreaseTimeLimitForInitStartTimes {
			cfg.TimeLimit = clampSub(cfg.TimeLimit, warm.RunningTime)
		}
	}
	if sp.SubtractExtendTime {
		cfg.TimeLimit = clampSub(cfg.TimeLimit, extendTime)
	}

	var saver archive.Saver = r.Store
	if r.Index != nil {
		saver = archive.Tee{r.Store, r.Index}
	}
	run, err := orchestrator.NewFromInputs(ctx, orchestrator.Inputs{
		Config:      cfg,
		Specialized: sp.SpecializedSolverConfig,
		Instance:    inst,
	}, orchestrator.Options{
		Solver:           sp.SolverName,
		Key:              key,
		Saver:            saver,
		Bus:              r.Bus,
		Logger:           r.Log,
		CheckFeasibility: true,
		Extend:           true,
	})
	if err != nil {
		return err
	}
	_, err = run.Run(ctx)
	return err
}

// loadInstance reads and extends the instance at path, going through the
// cache when one is set. The returned duration is the time spent deriving
// tables, zero on a cache hit.
func (r *Runner) loadInstance(ctx context.Context, path string, sc SolverConfig) (*instance.Instance, time.Duration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	name := filepath.Base(path)
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])

	if r.Cache != nil {
		inst, ok, err := r.Cache.Get(ctx, key, name)
		if err != nil {
			r.logger().Warnf("instance cache: %v", err)
		} else if ok {
			return inst, 0, nil
		}
	}

	inst, err := instance.Decode(bytes.NewReader(data), name)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	if !sc.UseSerialized() {
		inst.Strip()
	}
	begin := time.Now()
	if err := inst.Extend(ctx, instance.ExtendOptions{Workers: sc.RunConfig().NumWorkers}); err != nil {
		return nil, 0, fmt.Errorf("%s: extend: %w", path, err)
	}
	elapsed := time.Since(begin)
	if r.Extends != nil {
		ev := metrics.ExtendEvent{
			Instance:  name,
			Intervals: len(inst.Intervals),
			Jobs:      len(inst.Jobs),
			Duration:  elapsed,
			Time:      begin,
		}
		if err := r.Extends.RecordExtend(ev); err != nil {
			r.logger().Warnf("record extend %s: %v", name, err)
		}
	}

	if r.Cache != nil {
		if err := r.Cache.Put(ctx, key, inst); err != nil && !errors.Is(err, context.Canceled) {
			r.logger().Warnf("instance cache: %v", err)
		}
	}
	return inst, elapsed, nil
}

func (r *Runner) logger() logger.Logger {
	if r.Log == nil {
		return logger.Nop{}
	}
	return r.Log
}
