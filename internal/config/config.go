// Package config loads .preflight.yaml, the single place where repositories
// describe their check battery: which checks run, the commands they invoke,
// timeouts, and the gate's skip policy. A missing file yields pure defaults
// so the gate works out of the box.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up at the repository root.
const FileName = ".preflight.yaml"

// Duration wraps time.Duration so YAML values like "90s" parse directly.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// CommandCheck configures one command-backed check unit.
type CommandCheck struct {
	Enabled *bool    `yaml:"enabled,omitempty"`
	Command []string `yaml:"command,omitempty"`
	Timeout Duration `yaml:"timeout,omitempty"`
}

// On reports whether the check is active. Checks default to enabled; only an
// explicit `enabled: false` turns one off.
func (c CommandCheck) On() bool {
	return c.Enabled == nil || *c.Enabled
}

// Policy holds the decision policy knobs.
type Policy struct {
	// StrictSkipped makes SKIPPED results count toward HOLD_FOR_REVIEW.
	// Default is permissive: a missing prerequisite tool is not a defect.
	StrictSkipped bool `yaml:"strict_skipped"`
}

// Health configures the remote health-probe check.
type Health struct {
	Enabled   *bool    `yaml:"enabled,omitempty"`
	Endpoints []string `yaml:"endpoints,omitempty"`
	Timeout   Duration `yaml:"timeout,omitempty"`
}

// On reports whether the health check is active.
func (h Health) On() bool { return h.Enabled == nil || *h.Enabled }

// Secrets configures the hardcoded-secret scan.
type Secrets struct {
	Enabled  *bool    `yaml:"enabled,omitempty"`
	Files    []string `yaml:"files,omitempty"`
	Patterns []string `yaml:"patterns,omitempty"`
	// Allow is a regexp; a line matching it is not reported even when a
	// pattern hits (e.g. values read from the environment).
	Allow string `yaml:"allow,omitempty"`
}

// On reports whether the secret scan is active.
func (s Secrets) On() bool { return s.Enabled == nil || *s.Enabled }

// Structure configures the repository/UI structure check.
type Structure struct {
	Enabled       *bool    `yaml:"enabled,omitempty"`
	RequiredFiles []string `yaml:"required_files,omitempty"`
	ComponentGlob string   `yaml:"component_glob,omitempty"`
}

// On reports whether the structure check is active.
func (s Structure) On() bool { return s.Enabled == nil || *s.Enabled }

// Config is the parsed .preflight.yaml.
type Config struct {
	StateDir  string   `yaml:"state_dir"`
	ReportDir string   `yaml:"report_dir"`
	Workers   int      `yaml:"workers"`
	Timeout   Duration `yaml:"timeout"`
	Policy    Policy   `yaml:"policy"`

	Lint      CommandCheck `yaml:"lint"`
	TypeCheck CommandCheck `yaml:"typecheck"`
	Tests     CommandCheck `yaml:"tests"`
	Build     CommandCheck `yaml:"build"`
	DepAudit  CommandCheck `yaml:"depaudit"`
	Health    Health       `yaml:"health"`
	Secrets   Secrets      `yaml:"secrets"`
	Structure Structure    `yaml:"structure"`

	// Disabled lists check names removed from the registry regardless of the
	// per-check enabled flags.
	Disabled []string `yaml:"disabled,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		StateDir:  ".preflight",
		ReportDir: filepath.Join(".preflight", "reports"),
		Workers:   4,
		Timeout:   Duration(2 * time.Minute),
		Secrets: Secrets{
			Patterns: []string{"password=", "api_key=", "secret=", "token="},
			Allow:    `(os\.getenv|os\.environ|process\.env)`,
		},
	}
}

// Load reads the configuration from the repository root, applying defaults
// for anything unset. A missing file is not an error.
func Load(repoRoot string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(repoRoot, FileName))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	if cfg.StateDir == "" {
		cfg.StateDir = ".preflight"
	}
	if cfg.ReportDir == "" {
		cfg.ReportDir = filepath.Join(cfg.StateDir, "reports")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = Duration(2 * time.Minute)
	}
	return cfg, nil
}
