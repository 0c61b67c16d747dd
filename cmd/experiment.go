package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tecsched/app"
)

var (
	fromScratch bool
	workers     int
)

var experimentCmd = &cobra.Command{
	Use:   "experiment <prescription-file>...",
	Short: "Run prescriptions from the data prescriptions directory",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			r := svc.Runner()
			if cmd.Flags().Changed("from-scratch") {
				r.FromScratch = fromScratch
			}
			if workers > 0 {
				r.Workers = workers
			}
			for _, file := range args {
				svc.Logger().Infof("running prescription %s", file)
				if err := r.Run(ctx, file); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

func init() {
	experimentCmd.Flags().BoolVar(&fromScratch, "from-scratch", false, "discard existing results of the prescribed solvers")
	experimentCmd.Flags().IntVarP(&workers, "workers", "w", 0, "instances solved in parallel (default from config)")
	rootCmd.AddCommand(experimentCmd)
}
