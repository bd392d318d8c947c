package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pill/groceries-etl/config"
	srv "github.com/pill/groceries-etl/internal/server"
)

func serveCMD() *cobra.Command {
	var cfgPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the read-only HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(cfgPath)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx, cfg)
		},
	}
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return serve
}
