package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ".preflight", cfg.StateDir)
	assert.Equal(t, filepath.Join(".preflight", "reports"), cfg.ReportDir)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 2*time.Minute, cfg.Timeout.Std())
	assert.False(t, cfg.Policy.StrictSkipped)
	assert.True(t, cfg.Lint.On())
	assert.NotEmpty(t, cfg.Secrets.Patterns)
}

func TestLoad_ParsesFile(t *testing.T) {
	dir := t.TempDir()
	content := `
state_dir: .gate
workers: 8
timeout: 5m
policy:
  strict_skipped: true
lint:
  command: ["golangci-lint", "run", "./..."]
  timeout: 90s
tests:
  enabled: false
health:
  endpoints:
    - http://localhost:8000/health
disabled:
  - structure
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ".gate", cfg.StateDir)
	assert.Equal(t, filepath.Join(".gate", "reports"), cfg.ReportDir)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 5*time.Minute, cfg.Timeout.Std())
	assert.True(t, cfg.Policy.StrictSkipped)
	assert.Equal(t, []string{"golangci-lint", "run", "./..."}, cfg.Lint.Command)
	assert.Equal(t, 90*time.Second, cfg.Lint.Timeout.Std())
	assert.False(t, cfg.Tests.On())
	assert.Equal(t, []string{"http://localhost:8000/health"}, cfg.Health.Endpoints)
	assert.Equal(t, []string{"structure"}, cfg.Disabled)
}

func TestLoad_InvalidDuration(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("timeout: banana\n"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}
