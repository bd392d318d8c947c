package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pill/groceries-etl/internal/loader"
)

func loadCMD() *cobra.Command {
	var cfgPath string
	var dryRun bool
	var verbose bool

	var load = &cobra.Command{
		Use:   "load <file.json>",
		Short: "Validate and upsert a single deal file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, cfg, err := openStore(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer st.Close()

			ld := loader.New(st, log.New(os.Stderr, "[LOAD] ", log.LstdFlags))
			res, err := ld.LoadOne(ctx, args[0], loader.Options{
				DryRun:               dryRun,
				Verbose:              verbose,
				Concurrency:          1,
				AutoCreateCategories: cfg.Load.AutoCreateCategories,
				RecordTimeout:        cfg.Load.RecordTimeout,
			})
			if err != nil {
				return err
			}
			if res.Err != nil {
				return fmt.Errorf("%s", res.Err.String())
			}
			fmt.Printf("%s: %s (external_id=%s)\n", res.Source, res.Outcome, res.ExternalID)
			return nil
		},
	}
	load.Flags().BoolVar(&dryRun, "dry-run", false, "validate and resolve without writing")
	load.Flags().BoolVar(&verbose, "verbose", false, "log each record outcome")
	load.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return load
}

func loadDirectoryCMD() *cobra.Command {
	var cfgPath string
	var dryRun bool
	var verbose bool
	var recursive bool
	var concurrency int

	var loadDir = &cobra.Command{
		Use:   "load-directory <dir>",
		Short: "Load every deal file in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, cfg, err := openStore(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer st.Close()

			if concurrency <= 0 {
				concurrency = cfg.Load.Concurrency
			}

			ld := loader.New(st, log.New(os.Stderr, "[LOAD] ", log.LstdFlags))
			report, err := ld.LoadDirectory(ctx, args[0], loader.Options{
				DryRun:               dryRun,
				Verbose:              verbose,
				Recursive:            recursive,
				Concurrency:          concurrency,
				AutoCreateCategories: cfg.Load.AutoCreateCategories,
				RecordTimeout:        cfg.Load.RecordTimeout,
			})
			if err != nil {
				return err
			}

			for _, le := range report.Errors {
				fmt.Fprintln(os.Stderr, le.String())
			}
			fmt.Printf("processed=%d inserted=%d updated=%d skipped=%d errors=%d\n",
				report.Processed, report.Inserted, report.Updated, report.Skipped, len(report.Errors))
			if report.HasErrors() {
				return fmt.Errorf("%d record(s) failed", len(report.Errors))
			}
			return nil
		},
	}
	loadDir.Flags().BoolVar(&dryRun, "dry-run", false, "validate and resolve without writing")
	loadDir.Flags().BoolVar(&verbose, "verbose", false, "log each record outcome")
	loadDir.Flags().BoolVar(&recursive, "recursive", false, "descend into subdirectories")
	loadDir.Flags().IntVar(&concurrency, "concurrency", 0, "worker count (default from config)")
	loadDir.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return loadDir
}
