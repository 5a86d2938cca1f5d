package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lindia/preflight/cmd/preflight/internal/clierr"
	"github.com/lindia/preflight/internal/gate"
	"github.com/lindia/preflight/internal/report"
)

func newRunCmd() *cobra.Command {
	var (
		bypassReason string
		noTag        bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full verification battery against the current revision",
		Long: `Runs every enabled check against HEAD, appends the outcome to the history
ledger, writes report artifacts, and on success tags the revision as a
verified release. Exits non-zero when the decision is HOLD_FOR_REVIEW.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, _, err := setup(cmd.Context())
			if err != nil {
				return err
			}

			outcome, err := g.Run(cmd.Context(), gate.Options{
				Bypass:       bypassReason != "",
				BypassReason: bypassReason,
				SkipTag:      noTag,
			})
			if err != nil {
				return err
			}
			return printOutcome(cmd, outcome, asJSON)
		},
	}

	cmd.Flags().StringVar(&bypassReason, "bypass", "", "proceed despite a hold; the reason is audit-logged")
	cmd.Flags().BoolVar(&noTag, "no-tag", false, "skip release tagging on success")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run record as JSON")
	return cmd
}

func printOutcome(cmd *cobra.Command, outcome *gate.Outcome, asJSON bool) error {
	out := cmd.OutOrStdout()

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcome.Record); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, report.Summary(outcome.Record))

		if outcome.Tag != nil {
			if outcome.Tag.Created {
				fmt.Fprintf(out, "tagged: %s\n", outcome.Tag.Name)
			} else {
				fmt.Fprintf(out, "already tagged: %s\n", outcome.Tag.Name)
			}
		}
		if outcome.Rollback != nil {
			printRollback(out, outcome.Rollback)
		}
		if outcome.TextPath != "" {
			fmt.Fprintf(out, "report: %s\n", outcome.TextPath)
		}
	}

	if err := gate.FlattenPersistErrs(outcome.PersistErrs); err != nil {
		fmt.Fprintf(os.Stderr, "warning: gate artifacts incomplete: %v\n", err)
	}

	if !outcome.Allowed() {
		return clierr.New(1, "verification failed: HOLD_FOR_REVIEW")
	}
	return nil
}
