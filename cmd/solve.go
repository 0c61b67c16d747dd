package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tecsched/app"
	"github.com/kilianp07/tecsched/core/archive"
	"github.com/kilianp07/tecsched/core/orchestrator"
	"github.com/kilianp07/tecsched/core/solver"
)

type solveFlags struct {
	solver       string
	runConfig    string
	solverConfig string
	prescription string
	dataset      string
	id           string
	noCheck      bool
}

var solveOpts solveFlags

var solveCmd = &cobra.Command{
	Use:   "solve <instance>",
	Short: "Solve one instance and archive the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			return solve(ctx, cmd, svc, args[0])
		})
	},
}

func init() {
	f := solveCmd.Flags()
	f.StringVarP(&solveOpts.solver, "solver", "s", "", "solver name, one of "+strings.Join(solver.Names(), ", "))
	f.StringVar(&solveOpts.runConfig, "run-config", "", "run configuration file (time limit, workers, warm start)")
	f.StringVar(&solveOpts.solverConfig, "solver-config", "", "solver specific configuration file")
	f.StringVar(&solveOpts.prescription, "prescription", "adhoc", "prescription the result is archived under")
	f.StringVar(&solveOpts.dataset, "dataset", "", "dataset the result is archived under (default: instance directory name)")
	f.StringVar(&solveOpts.id, "id", "", "solver id the result is archived under (default: solver name)")
	f.BoolVar(&solveOpts.noCheck, "no-check", false, "skip the feasibility check before saving")
	_ = solveCmd.MarkFlagRequired("solver")
	_ = solveCmd.MarkFlagRequired("run-config")
	rootCmd.AddCommand(solveCmd)
}

func solve(ctx context.Context, cmd *cobra.Command, svc *app.Service, instancePath string) error {
	o := solveOpts
	if o.dataset == "" {
		o.dataset = filepath.Base(filepath.Dir(instancePath))
	}
	if o.id == "" {
		o.id = o.solver
	}
	key := archive.Key{
		Prescription: o.prescription,
		Dataset:      o.dataset,
		SolverID:     o.id,
		Instance:     filepath.Base(instancePath),
	}
	if err := key.Validate(); err != nil {
		return err
	}
	run, err := orchestrator.New(ctx, orchestrator.Paths{
		Config:       o.runConfig,
		SolverConfig: o.solverConfig,
		Instance:     instancePath,
	}, orchestrator.Options{
		Solver:           o.solver,
		Key:              key,
		Saver:            svc.Saver(),
		Bus:              svc.Bus,
		Logger:           svc.Logger(),
		CheckFeasibility: !o.noCheck,
		Extend:           true,
	})
	if err != nil {
		return err
	}
	res, err := run.Run(ctx)
	if err != nil {
		return err
	}
	objective := "-"
	if res.Objective != nil {
		objective = fmt.Sprint(*res.Objective)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tobjective=%s\ttime=%s\trun=%s\n",
		key, res.Status, objective, res.RunningTime, run.ID())
	return nil
}
