package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tecsched/app"
	"github.com/kilianp07/tecsched/core/analysis"
)

var (
	csvPath string
	groupBy []string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <prescription> <dataset>",
	Short: "Check and summarize the results of a prescription on a dataset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			report, err := analysis.Build(ctx, svc.Store, args[0], args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "solver\tresults\toptimal\theuristic\tmean[s]\tstd[s]")
			for _, s := range report.Summaries() {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.3f\t%.3f\n",
					s.Solver, s.Results, s.Optimal, s.Heuristic, s.MeanTime, s.StdTime)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if len(groupBy) > 0 {
				for _, g := range analysis.GroupByMetadata(report.Rows, groupBy) {
					fmt.Fprintf(out, "%v: %d instances\n", g.Params, len(g.Rows))
				}
			}
			if csvPath == "" {
				return nil
			}
			f, err := os.Create(csvPath)
			if err != nil {
				return err
			}
			if err := report.WriteCSV(f); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		})
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&csvPath, "csv", "", "write the per-instance running time table to this file")
	analyzeCmd.Flags().StringSliceVar(&groupBy, "group-by", nil, "metadata parameters to group instances by")
	rootCmd.AddCommand(analyzeCmd)
}
