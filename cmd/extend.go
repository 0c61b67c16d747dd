package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tecsched/core/instance"
)

var (
	extendOut     string
	extendWorkers int
)

var extendCmd = &cobra.Command{
	Use:   "extend <instance>",
	Short: "Compute the derived tables of a base instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return extendInstance(cmd.Context(), args[0], extendOut, extendWorkers)
	},
}

func init() {
	extendCmd.Flags().StringVarP(&extendOut, "output", "o", "", "where to write the extended instance (default: overwrite input)")
	extendCmd.Flags().IntVarP(&extendWorkers, "workers", "w", 0, "goroutines computing table rows (default: one per CPU)")
	rootCmd.AddCommand(extendCmd)
}

func extendInstance(ctx context.Context, in, out string, workers int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	inst, err := instance.Load(in)
	if err != nil {
		return err
	}
	inst.Strip()
	if err := inst.Extend(ctx, instance.ExtendOptions{Workers: workers}); err != nil {
		return fmt.Errorf("extend %s: %w", in, err)
	}
	if err := inst.Validate(); err != nil {
		return err
	}
	if out == "" {
		out = in
	}
	tmp := out + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := inst.Encode(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, out)
}
