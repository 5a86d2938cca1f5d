package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lindia/preflight/internal/config"
	"github.com/lindia/preflight/internal/gate"
	"github.com/lindia/preflight/internal/gitx"
)

// NewRootCmd constructs the preflight root Cobra command.
func NewRootCmd() *cobra.Command {
	version := os.Getenv("PREFLIGHT_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	cmd := &cobra.Command{
		Use:           "preflight",
		Short:         "Preflight - pre-deployment verification gate",
		Long:          "Preflight runs a battery of verification checks before a push or promotion,\nrecords every decision in an auditable ledger, tags known-good revisions,\nand recommends rollback targets on failure.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of preflight",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "preflight version %s\n", version)
		},
	})

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newHookCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newRollbackCmd())
	cmd.AddCommand(newTagsCmd())
	cmd.AddCommand(newChecksCmd())

	return cmd
}

// setup discovers the repository, loads its configuration, and builds the
// gate. Every subcommand starts here.
func setup(ctx context.Context) (*gate.Gate, *gitx.Repo, *config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, nil, nil, err
	}
	repo, err := gitx.Discover(ctx, wd)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg, err := config.Load(repo.Root())
	if err != nil {
		return nil, nil, nil, err
	}
	return gate.New(cfg, repo), repo, cfg, nil
}
