package gate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lindia/preflight/internal/gitx"
)

// hookScript is the pre-push shell stub installed into .git/hooks. It defers
// entirely to the CLI so hook behavior updates with the binary.
const hookScript = `#!/bin/sh
# Installed by preflight. Blocks pushes whose verification run holds.
# To bypass a hold (audited, never silent):
#   PREFLIGHT_BYPASS="<reason>" git push ...
exec preflight hook exec "$@"
`

// InstallHook writes the pre-push hook for the repository. An existing hook
// not written by preflight is left alone unless force is set.
func InstallHook(ctx context.Context, repo *gitx.Repo, force bool) (string, error) {
	hooksDir, err := repo.HooksDir(ctx)
	if err != nil {
		return "", fmt.Errorf("hook: locating hooks dir: %w", err)
	}
	if !filepath.IsAbs(hooksDir) {
		hooksDir = filepath.Join(repo.Root(), hooksDir)
	}
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return "", fmt.Errorf("hook: creating hooks dir: %w", err)
	}

	path := filepath.Join(hooksDir, "pre-push")
	if existing, err := os.ReadFile(path); err == nil && !force {
		if string(existing) != hookScript {
			return "", fmt.Errorf("hook: %s already exists and was not written by preflight (use --force to overwrite)", path)
		}
		return path, nil
	}

	if err := os.WriteFile(path, []byte(hookScript), 0o755); err != nil {
		return "", fmt.Errorf("hook: writing %s: %w", path, err)
	}
	return path, nil
}
