package checks

import (
	"fmt"

	"github.com/lindia/preflight/internal/check"
	"github.com/lindia/preflight/internal/config"
)

// Battery assembles the check registry from configuration. The order here is
// the order checks appear in reports; it carries no semantic weight.
func Battery(cfg *config.Config) (*check.Registry, error) {
	var units []check.Check

	add := func(on bool, c check.Check) {
		if on {
			units = append(units, c)
		}
	}

	add(cfg.Lint.On(), NewCommand("lint", cfg.Lint.Command))
	add(cfg.TypeCheck.On(), NewCommand("typecheck", cfg.TypeCheck.Command))
	add(cfg.Tests.On(), NewCommand("tests", cfg.Tests.Command))
	add(cfg.Build.On(), NewCommand("build", cfg.Build.Command))
	add(cfg.Health.On(), NewAPIHealth(cfg.Health.Endpoints, cfg.Health.Timeout.Std()))
	add(cfg.DepAudit.On(), NewCommand("dep-audit", cfg.DepAudit.Command))
	add(cfg.Secrets.On(), NewSecrets(cfg.Secrets.Files, cfg.Secrets.Patterns, cfg.Secrets.Allow))
	add(cfg.Structure.On(), NewStructure(cfg.Structure.RequiredFiles, cfg.Structure.ComponentGlob))

	reg, err := check.NewRegistry(units...)
	if err != nil {
		return nil, fmt.Errorf("assembling check battery: %w", err)
	}
	for _, name := range cfg.Disabled {
		if err := reg.Disable(name); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
