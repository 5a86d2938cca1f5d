package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent gate runs from the history ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, _, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			led, err := g.Ledger()
			if err != nil {
				return err
			}
			records, err := led.All()
			if err != nil {
				return err
			}
			if limit > 0 && len(records) > limit {
				records = records[len(records)-limit:]
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			if len(records) == 0 {
				fmt.Fprintln(out, "No gate runs recorded.")
				return nil
			}
			for _, r := range records {
				short := r.Revision
				if len(short) > 12 {
					short = short[:12]
				}
				marker := ""
				if r.Bypassed {
					marker = " (bypassed)"
				}
				fmt.Fprintf(out, "#%-4d %s  %s  %s%s\n",
					r.BuildNumber,
					r.Timestamp.Format("2006-01-02 15:04:05"),
					short,
					r.Decision,
					marker)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}
