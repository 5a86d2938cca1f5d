package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lindia/preflight/cmd/preflight/internal/clierr"
	"github.com/lindia/preflight/internal/ledger"
	"github.com/lindia/preflight/internal/rollback"
)

func newRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: "Show the last known-good revision to roll back to",
		Long: `Consults the history ledger for the most recent SAFE_TO_PROCEED run and
prints the recommended manual recovery procedure. Nothing is executed; the
gate never rewrites history itself.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, repo, _, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			led, err := g.Ledger()
			if err != nil {
				return err
			}
			head, err := repo.Head(cmd.Context())
			if err != nil {
				return err
			}

			target, err := led.LastSafe(head)
			if errors.Is(err, ledger.ErrNoSafeBaseline) {
				return clierr.New(2, "no known-good baseline in the ledger; manual remediation is the only path")
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "last known-good revision: %s (build %d, verified %s)\n",
				target.Revision, target.BuildNumber, target.Timestamp.Format("2006-01-02 15:04:05"))

			if info, err := repo.Show(cmd.Context(), target.Revision); err == nil {
				fmt.Fprintf(out, "  %s — %s (%s)\n", info.Subject, info.Author, info.Date)
			}

			fmt.Fprintln(out, "to roll back manually:")
			fmt.Fprintf(out, "  git reset --hard %s\n", target.Revision)
			fmt.Fprintln(out, "  git push --force-with-lease origin <branch>")
			return nil
		},
	}
}

func printRollback(out io.Writer, rec *rollback.Record) {
	if rec.NoSafeTarget {
		fmt.Fprintln(out, "rollback: no safe target — no verified revision exists yet")
		return
	}
	fmt.Fprintf(out, "rollback target: %s (build %d)\n", rec.ToRevision, rec.ToBuild)
	for _, step := range rec.Steps {
		fmt.Fprintf(out, "  %s\n", step)
	}
}
