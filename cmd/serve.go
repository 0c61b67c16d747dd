package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tecsched/api/results"
	"github.com/kilianp07/tecsched/app"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the result archive and metrics over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			h, err := svc.API()
			if err != nil {
				return err
			}
			addr := serveAddr
			if addr == "" {
				addr = svc.Config().API.Addr
			}
			return results.Serve(ctx, addr, h)
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}
