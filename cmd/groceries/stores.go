package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func initStoresCMD() *cobra.Command {
	var cfgPath string
	var initStores = &cobra.Command{
		Use:   "init-stores",
		Short: "Provision the stores listed in config",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, cfg, err := openStore(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer st.Close()

			if len(cfg.Load.Stores) == 0 {
				fmt.Println("no stores configured under load.stores")
				return nil
			}
			for _, seed := range cfg.Load.Stores {
				rec, err := st.EnsureStore(ctx, seed.Name, seed.Location, seed.Website)
				if err != nil {
					return fmt.Errorf("ensure store %q: %w", seed.Name, err)
				}
				fmt.Printf("store %q ready (id=%d)\n", rec.Name, rec.ID)
			}
			return nil
		},
	}
	initStores.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return initStores
}

func updateStoreCMD() *cobra.Command {
	var cfgPath string
	var id int64
	var name string
	var newName string
	var location string
	var website string

	var update = &cobra.Command{
		Use:   "update-store",
		Short: "Update a store's name, location or website",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, _, err := openStore(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer st.Close()

			if id == 0 {
				if name == "" {
					return fmt.Errorf("either --id or --name is required")
				}
				rec, ok, err := st.GetStoreByName(ctx, name)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("store %q not found", name)
				}
				id = rec.ID
			}

			rec, err := st.UpdateStore(ctx, id, newName, location, website)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tLOCATION\tWEBSITE")
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", rec.ID, rec.Name, orDash(rec.Location), orDash(rec.Website))
			return w.Flush()
		},
	}
	update.Flags().Int64Var(&id, "id", 0, "store id")
	update.Flags().StringVar(&name, "name", "", "current store name (alternative to --id)")
	update.Flags().StringVar(&newName, "new-name", "", "replacement name")
	update.Flags().StringVar(&location, "location", "", "replacement location")
	update.Flags().StringVar(&website, "website", "", "replacement website")
	update.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return update
}

func listStoresCMD() *cobra.Command {
	var cfgPath string
	var list = &cobra.Command{
		Use:   "list-stores",
		Short: "List provisioned stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, _, err := openStore(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer st.Close()

			stores, err := st.ListStores(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tLOCATION\tWEBSITE")
			for _, rec := range stores {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", rec.ID, rec.Name, orDash(rec.Location), orDash(rec.Website))
			}
			return w.Flush()
		},
	}
	list.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return list
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
