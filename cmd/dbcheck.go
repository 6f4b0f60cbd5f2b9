package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/premises-cli/internal/records"
)

var dbcheckState string

var dbcheckCmd = &cobra.Command{
	Use:   "dbcheck",
	Short: "Check premises database connectivity",
	Long:  "Pings the configured premises database and optionally lists the occupancy categories available for a state.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("dbcheck"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Ping(ctx); err != nil {
			return eris.Wrap(err, "dbcheck: ping")
		}
		fmt.Printf("database ok (driver: %s)\n", cfg.Records.Driver)

		if dbcheckState != "" {
			categories, err := st.ListCategoriesForState(ctx, dbcheckState)
			if err != nil {
				return eris.Wrap(err, "dbcheck: list categories")
			}
			if len(categories) == 0 {
				fmt.Printf("no occupancy categories for state %s\n", dbcheckState)
				return nil
			}
			fmt.Printf("occupancy categories for %s:\n", dbcheckState)
			printCategories(categories)
		}
		return nil
	},
}

func printCategories(categories []records.Category) {
	for _, c := range categories {
		fmt.Printf("  %d\t%s\n", c.ID, c.Name)
	}
}

func init() {
	dbcheckCmd.Flags().StringVar(&dbcheckState, "state", "", "state code to list occupancy categories for")
	rootCmd.AddCommand(dbcheckCmd)
}
