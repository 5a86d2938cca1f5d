// Package gate wires the verification pipeline together: it executes the
// check battery against the current revision, persists the run to the
// history ledger, writes report artifacts, and dispatches to the release
// tagger or the rollback advisor. The git pre-push hook is a thin shell
// around Gate.Run.
package gate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lindia/preflight/internal/check"
	"github.com/lindia/preflight/internal/checks"
	"github.com/lindia/preflight/internal/config"
	"github.com/lindia/preflight/internal/engine"
	"github.com/lindia/preflight/internal/gitx"
	"github.com/lindia/preflight/internal/ledger"
	"github.com/lindia/preflight/internal/report"
	"github.com/lindia/preflight/internal/rollback"
	"github.com/lindia/preflight/internal/tagger"
)

// Options control one gate invocation.
type Options struct {
	// Revision to verify. Empty means HEAD; the pre-push hook sets it to
	// the revision actually being pushed.
	Revision string
	// Bypass proceeds despite a HOLD_FOR_REVIEW decision. The bypass is
	// appended to the audit log; it is never silent.
	Bypass bool
	// BypassReason is required when Bypass is set.
	BypassReason string
	// SkipTag suppresses release tagging (used by plain `preflight run`
	// when the user only wants a verdict).
	SkipTag bool
}

// Outcome is everything one gate run produced.
type Outcome struct {
	Record   *engine.RunRecord
	TextPath string
	JSONPath string
	Tag      *tagger.ReleaseTag
	Rollback *rollback.Record

	// PersistErrs collects ledger/report/artifact failures. They never hide
	// the verdict, but the caller must surface them: a gate that cannot
	// record its own history is itself a defect.
	PersistErrs []error
}

// Allowed reports whether the push/promotion may proceed.
func (o *Outcome) Allowed() bool {
	return o.Record.Decision == engine.DecisionSafe || o.Record.Bypassed
}

// Gate runs the verification pipeline for one repository.
type Gate struct {
	cfg  *config.Config
	repo *gitx.Repo

	stateDir  string
	reportDir string
}

// New builds a Gate for the repository rooted at repo.Root().
func New(cfg *config.Config, repo *gitx.Repo) *Gate {
	return &Gate{
		cfg:       cfg,
		repo:      repo,
		stateDir:  anchor(repo.Root(), cfg.StateDir),
		reportDir: anchor(repo.Root(), cfg.ReportDir),
	}
}

// StateDir returns the resolved state directory.
func (g *Gate) StateDir() string { return g.stateDir }

// Ledger opens the gate's history ledger.
func (g *Gate) Ledger() (*ledger.Ledger, error) {
	return ledger.Open(g.stateDir)
}

// Run executes the full pipeline. It returns an error only when no verdict
// could be produced at all (no revision, cancelled run); persistence
// failures are collected in Outcome.PersistErrs instead.
func (g *Gate) Run(ctx context.Context, opts Options) (*Outcome, error) {
	if opts.Bypass && opts.BypassReason == "" {
		return nil, fmt.Errorf("gate: bypass requires a reason")
	}

	revision := opts.Revision
	if revision == "" {
		head, err := g.repo.Head(ctx)
		if err != nil {
			return nil, fmt.Errorf("gate: resolving revision: %w", err)
		}
		revision = head
	}
	changed, err := g.repo.ChangedFiles(ctx, revision)
	if err != nil {
		// A missing parent is already handled; anything else degrades to an
		// empty list rather than blocking verification.
		changed = nil
	}

	reg, err := checks.Battery(g.cfg)
	if err != nil {
		return nil, err
	}

	record, err := g.execute(ctx, reg, &check.Target{
		RepoRoot:     g.repo.Root(),
		Revision:     revision,
		ChangedFiles: changed,
	})
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Record: record}

	if record.Decision == engine.DecisionHold && opts.Bypass {
		record.Bypassed = true
		if err := g.logBypass(ctx, record, opts.BypassReason); err != nil {
			outcome.PersistErrs = append(outcome.PersistErrs, err)
		}
	}

	led, err := ledger.Open(g.stateDir)
	if err != nil {
		outcome.PersistErrs = append(outcome.PersistErrs, err)
	} else if err := led.Append(record); err != nil {
		outcome.PersistErrs = append(outcome.PersistErrs, fmt.Errorf("gate: ledger append: %w", err))
	}

	textPath, jsonPath, err := report.NewGenerator(g.reportDir).Write(record)
	if err != nil {
		outcome.PersistErrs = append(outcome.PersistErrs, err)
	}
	outcome.TextPath = textPath
	outcome.JSONPath = jsonPath

	switch record.Decision {
	case engine.DecisionSafe:
		if !opts.SkipTag {
			tag, err := tagger.New(g.repo).TagIfEligible(ctx, record)
			if err != nil {
				outcome.PersistErrs = append(outcome.PersistErrs, err)
			}
			outcome.Tag = tag
		}
	case engine.DecisionHold:
		if led != nil {
			rec, err := rollback.New(led, g.stateDir).Advise(record)
			if err != nil {
				outcome.PersistErrs = append(outcome.PersistErrs, err)
			}
			outcome.Rollback = rec
		}
	}

	return outcome, nil
}

func (g *Gate) execute(ctx context.Context, reg *check.Registry, target *check.Target) (*engine.RunRecord, error) {
	opts := []engine.Option{
		engine.WithWorkers(g.cfg.Workers),
		engine.WithTimeout(g.cfg.Timeout.Std()),
	}
	for name, d := range map[string]config.Duration{
		"lint":      g.cfg.Lint.Timeout,
		"typecheck": g.cfg.TypeCheck.Timeout,
		"tests":     g.cfg.Tests.Timeout,
		"build":     g.cfg.Build.Timeout,
		"dep-audit": g.cfg.DepAudit.Timeout,
	} {
		opts = append(opts, engine.WithCheckTimeout(name, d.Std()))
	}

	eng := engine.New(engine.Policy{StrictSkipped: g.cfg.Policy.StrictSkipped}, opts...)
	return eng.Run(ctx, reg, target)
}

// logBypass appends an audit line recording who bypassed the gate and why.
func (g *Gate) logBypass(ctx context.Context, record *engine.RunRecord, reason string) error {
	if err := os.MkdirAll(g.stateDir, 0o755); err != nil {
		return fmt.Errorf("gate: creating state dir: %w", err)
	}
	path := filepath.Join(g.stateDir, "bypass.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("gate: opening bypass log: %w", err)
	}
	defer func() { _ = f.Close() }()

	_, err = fmt.Fprintf(f, "%s\t%s\t%s\t%s\n",
		time.Now().UTC().Format(time.RFC3339),
		g.repo.User(ctx),
		record.Revision,
		reason)
	if err != nil {
		return fmt.Errorf("gate: writing bypass log: %w", err)
	}
	return nil
}

// FlattenPersistErrs joins persistence failures into one reportable error.
func FlattenPersistErrs(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

func anchor(root, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}
