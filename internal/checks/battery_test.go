package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lindia/preflight/internal/config"
)

func TestBattery_DefaultOrder(t *testing.T) {
	reg, err := Battery(config.Default())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"lint", "typecheck", "tests", "build",
		"api-health", "dep-audit", "secrets", "structure",
	}, reg.Names())
	assert.Equal(t, 8, reg.Len())
}

func TestBattery_DisabledList(t *testing.T) {
	cfg := config.Default()
	cfg.Disabled = []string{"api-health", "structure"}

	reg, err := Battery(cfg)
	require.NoError(t, err)
	assert.Equal(t, 6, reg.Len())
	for _, c := range reg.Enabled() {
		assert.NotEqual(t, "api-health", c.Name())
		assert.NotEqual(t, "structure", c.Name())
	}
}

func TestBattery_UnknownDisabledName(t *testing.T) {
	cfg := config.Default()
	cfg.Disabled = []string{"no-such-check"}

	_, err := Battery(cfg)
	require.Error(t, err)
}

func TestBattery_PerCheckEnabledFlag(t *testing.T) {
	off := false
	cfg := config.Default()
	cfg.Lint.Enabled = &off

	reg, err := Battery(cfg)
	require.NoError(t, err)
	assert.NotContains(t, reg.Names(), "lint")
}
