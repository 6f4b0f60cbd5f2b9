package main

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/premises-cli/internal/model"
	"github.com/sells-group/premises-cli/internal/pipeline"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <processed-file>",
	Short: "Re-validate an existing processed premises file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrap(err, "verify: open file")
		}
		defer f.Close() //nolint:errcheck

		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		rows, err := r.ReadAll()
		if err != nil {
			return eris.Wrap(err, "verify: read csv")
		}
		if len(rows) < 2 {
			fmt.Println("No records to verify.")
			return nil
		}

		header := rows[0]
		invalid := 0
		for i, row := range rows[1:] {
			rec := model.OutputRecordFromRow(header, row)
			violations := pipeline.ValidateRecord(rec)
			if len(violations) == 0 {
				continue
			}
			invalid++
			fmt.Printf("row %d (%s):\n", i+2, rec.PremiseName)
			for _, v := range violations {
				fmt.Printf("  - %s\n", v)
			}
		}

		total := len(rows) - 1
		fmt.Printf("%d records checked, %d valid, %d invalid\n", total, total-invalid, invalid)
		if invalid > 0 {
			return eris.Errorf("verify: %d invalid records", invalid)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
