// Package checks contains the built-in check units. Each one maps a
// tool-specific outcome onto the uniform PASS/FAIL/SKIPPED verdict plus
// free-text detail; the execution engine never branches on which tool a
// check wraps.
package checks

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/lindia/preflight/internal/check"
)

// Command runs a configured external command and maps its exit status onto a
// verdict. A missing binary is SKIPPED, not FAIL: the repository may
// legitimately not use that tool.
type Command struct {
	name string
	argv []string
}

// NewCommand builds a command-backed check. argv[0] is the binary.
func NewCommand(name string, argv []string) *Command {
	return &Command{name: name, argv: argv}
}

// Name implements check.Check.
func (c *Command) Name() string { return c.name }

// Run implements check.Check.
func (c *Command) Run(ctx context.Context, target *check.Target) check.Result {
	start := time.Now()

	if len(c.argv) == 0 {
		return check.Result{
			Name:     c.name,
			Status:   check.StatusSkipped,
			Detail:   "no command configured",
			Duration: time.Since(start),
		}
	}
	if _, err := exec.LookPath(c.argv[0]); err != nil {
		return check.Result{
			Name:     c.name,
			Status:   check.StatusSkipped,
			Detail:   fmt.Sprintf("%s not found in PATH", c.argv[0]),
			Duration: time.Since(start),
		}
	}

	cmd := exec.CommandContext(ctx, c.argv[0], c.argv[1:]...)
	cmd.Dir = target.RepoRoot
	out, err := cmd.CombinedOutput()
	detail := strings.TrimSpace(string(out))

	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		if detail == "" {
			detail = err.Error()
		}
		return check.Result{
			Name:     c.name,
			Status:   check.StatusFail,
			Detail:   fmt.Sprintf("exit %d: %s", exitCode, truncate(detail, 4000)),
			Duration: time.Since(start),
		}
	}

	return check.Result{
		Name:     c.name,
		Status:   check.StatusPass,
		Detail:   fmt.Sprintf("%s succeeded", strings.Join(c.argv, " ")),
		Duration: time.Since(start),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "\n... (truncated)"
}
