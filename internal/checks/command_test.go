package checks

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lindia/preflight/internal/check"
)

func needsTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestCommand_MissingBinarySkips(t *testing.T) {
	c := NewCommand("lint", []string{"definitely-not-a-real-linter-xyz"})
	res := c.Run(context.Background(), &check.Target{RepoRoot: t.TempDir()})

	assert.Equal(t, check.StatusSkipped, res.Status)
	assert.Contains(t, res.Detail, "not found in PATH")
}

func TestCommand_UnconfiguredSkips(t *testing.T) {
	c := NewCommand("tests", nil)
	res := c.Run(context.Background(), &check.Target{RepoRoot: t.TempDir()})

	assert.Equal(t, check.StatusSkipped, res.Status)
	assert.Contains(t, res.Detail, "no command configured")
}

func TestCommand_ZeroExitPasses(t *testing.T) {
	needsTool(t, "sh")

	c := NewCommand("build", []string{"sh", "-c", "echo built"})
	res := c.Run(context.Background(), &check.Target{RepoRoot: t.TempDir()})

	assert.Equal(t, check.StatusPass, res.Status)
}

func TestCommand_NonZeroExitFails(t *testing.T) {
	needsTool(t, "sh")

	c := NewCommand("tests", []string{"sh", "-c", "echo 2 failed; exit 3"})
	res := c.Run(context.Background(), &check.Target{RepoRoot: t.TempDir()})

	assert.Equal(t, check.StatusFail, res.Status)
	assert.Contains(t, res.Detail, "exit 3")
	assert.Contains(t, res.Detail, "2 failed")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	long := truncate(string(make([]byte, 5001)), 4000)
	assert.Contains(t, long, "truncated")
}
