package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pill/groceries-etl/config"
	"github.com/pill/groceries-etl/internal/store"
)

func main() {
	var root = &cobra.Command{
		Use:           "groceries",
		Short:         "Weekly grocery deal loading and query pipeline",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		migrateCMD(),
		serveCMD(),
		initStoresCMD(),
		updateStoreCMD(),
		listStoresCMD(),
		loadCMD(),
		loadDirectoryCMD(),
		listDealsCMD(),
		listCategoriesCMD(),
		searchCMD(),
		statsCMD(),
	)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfgPath string) (*store.Store, *config.Config, error) {
	cfg := config.Load(cfgPath)
	st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
	if err != nil {
		return nil, nil, err
	}
	return st, cfg, nil
}
