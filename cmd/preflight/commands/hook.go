package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lindia/preflight/internal/gate"
)

// bypassEnv is checked by `hook exec` so a user can bypass from a plain
// `git push` without editing the hook: PREFLIGHT_BYPASS="<reason>" git push.
const bypassEnv = "PREFLIGHT_BYPASS"

func newHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Manage the git pre-push gate hook",
	}
	cmd.AddCommand(newHookInstallCmd())
	cmd.AddCommand(newHookExecCmd())
	return cmd
}

func newHookInstallCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the pre-push hook into the current repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, repo, _, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			path, err := gate.InstallHook(cmd.Context(), repo, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "installed %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing pre-push hook")
	return cmd
}

func newHookExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "exec",
		Short:  "Run the gate as the pre-push hook (invoked by git)",
		Hidden: true,
		// git passes remote name/URL as args (ignored) and the refs being
		// pushed on stdin; the gate verifies the pushed revision, which is
		// not necessarily HEAD.
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, _, err := setup(cmd.Context())
			if err != nil {
				return err
			}

			reason := os.Getenv(bypassEnv)
			outcome, err := g.Run(cmd.Context(), gate.Options{
				Revision:     pushedRevision(cmd.InOrStdin()),
				Bypass:       reason != "",
				BypassReason: reason,
			})
			if err != nil {
				return err
			}

			if outcome.Record.Bypassed {
				fmt.Fprintf(cmd.ErrOrStderr(), "gate bypassed: %s\n", reason)
			}
			return printOutcome(cmd, outcome, false)
		},
	}
}

// pushedRevision extracts the local revision being pushed from the ref
// lines git writes to the hook's stdin, one per ref:
// "<local ref> <local sha> <remote ref> <remote sha>". Ref deletions carry
// an all-zero local sha and are skipped. Empty means verify HEAD.
func pushedRevision(r io.Reader) string {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 4 {
			continue
		}
		if sha := fields[1]; strings.Trim(sha, "0") != "" {
			return sha
		}
	}
	return ""
}
