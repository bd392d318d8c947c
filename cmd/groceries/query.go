package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/pill/groceries-etl/internal/deal"
	"github.com/pill/groceries-etl/internal/store"
)

func listDealsCMD() *cobra.Command {
	var cfgPath string
	var limit int
	var offset int
	var storeName string
	var categoryName string
	var validOn string
	var current bool
	var minDiscount string
	var maxSalePrice string

	var list = &cobra.Command{
		Use:   "list-deals",
		Short: "List deals with optional filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, _, err := openStore(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer st.Close()

			var filters store.DealFilters
			filters.StoreName = storeName
			filters.CategoryName = categoryName
			if current {
				today := deal.DateOnly(time.Now())
				filters.ValidOn = &today
			}
			if validOn != "" {
				day, err := time.Parse(deal.DateFormat, validOn)
				if err != nil {
					return fmt.Errorf("invalid --valid-on %q: expected YYYY-MM-DD", validOn)
				}
				filters.ValidOn = &day
			}
			if minDiscount != "" {
				d, err := decimal.NewFromString(minDiscount)
				if err != nil {
					return fmt.Errorf("invalid --min-discount %q", minDiscount)
				}
				filters.MinDiscount = &d
			}
			if maxSalePrice != "" {
				d, err := decimal.NewFromString(maxSalePrice)
				if err != nil {
					return fmt.Errorf("invalid --max-sale-price %q", maxSalePrice)
				}
				filters.MaxSalePrice = &d
			}

			deals, err := st.ListDeals(ctx, filters, limit, offset)
			if err != nil {
				return err
			}
			printDeals(deals)
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 50, "max rows")
	list.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	list.Flags().StringVar(&storeName, "store", "", "filter by store name")
	list.Flags().StringVar(&categoryName, "category", "", "filter by category name")
	list.Flags().StringVar(&validOn, "valid-on", "", "only deals valid on this date (YYYY-MM-DD)")
	list.Flags().BoolVar(&current, "current", false, "only deals valid today")
	list.Flags().StringVar(&minDiscount, "min-discount", "", "minimum discount percentage")
	list.Flags().StringVar(&maxSalePrice, "max-sale-price", "", "maximum sale price")
	list.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return list
}

func searchCMD() *cobra.Command {
	var cfgPath string
	var limit int

	var search = &cobra.Command{
		Use:   "search <term>",
		Short: "Full-text search over product names and descriptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, _, err := openStore(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer st.Close()

			deals, err := st.SearchDeals(ctx, args[0], limit)
			if err != nil {
				return err
			}
			printDeals(deals)
			return nil
		},
	}
	search.Flags().IntVar(&limit, "limit", 50, "max rows")
	search.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return search
}

func listCategoriesCMD() *cobra.Command {
	var cfgPath string
	var list = &cobra.Command{
		Use:   "list-categories",
		Short: "List known categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, _, err := openStore(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer st.Close()

			cats, err := st.ListCategories(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPARENT")
			for _, c := range cats {
				parent := "-"
				if c.ParentCategoryID != nil {
					parent = fmt.Sprintf("%d", *c.ParentCategoryID)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, parent)
			}
			return w.Flush()
		},
	}
	list.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return list
}

func statsCMD() *cobra.Command {
	var cfgPath string
	var stats = &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate deal statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, _, err := openStore(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer st.Close()

			s, err := st.GetStats(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("total deals:       %d\n", s.TotalDeals)
			fmt.Printf("unique stores:     %d\n", s.UniqueStores)
			fmt.Printf("unique categories: %d\n", s.UniqueCategories)
			fmt.Printf("avg discount:      %s\n", decimalOrDash(s.AvgDiscount))
			fmt.Printf("avg sale price:    %s\n", decimalOrDash(s.AvgSalePrice))
			fmt.Printf("earliest deal:     %s\n", dateOrDash(s.EarliestDeal))
			fmt.Printf("latest deal:       %s\n", dateOrDash(s.LatestDeal))

			if len(s.DealsByStore) > 0 {
				fmt.Println("\ndeals by store:")
				for _, nc := range s.DealsByStore {
					fmt.Printf("  %-30s %d\n", nc.Name, nc.Count)
				}
			}
			if len(s.DealsByCategory) > 0 {
				fmt.Println("\ndeals by category:")
				for _, nc := range s.DealsByCategory {
					fmt.Printf("  %-30s %d\n", nc.Name, nc.Count)
				}
			}
			return nil
		},
	}
	stats.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return stats
}

func printDeals(deals []store.DealRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STORE\tPRODUCT\tCATEGORY\tSALE\tREGULAR\tDISCOUNT\tVALID")
	for _, d := range deals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s..%s\n",
			d.StoreName, d.ProductName, orDash(d.CategoryName),
			decimalOrDash(d.SalePrice), decimalOrDash(d.RegularPrice), decimalOrDash(d.DiscountPercentage),
			d.ValidFrom.Format(deal.DateFormat), d.ValidTo.Format(deal.DateFormat))
	}
	w.Flush()
	fmt.Printf("%d deal(s)\n", len(deals))
}

func decimalOrDash(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2)
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(deal.DateFormat)
}
