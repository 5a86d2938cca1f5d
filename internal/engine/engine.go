// Package engine executes the registered checks against a repository
// revision and aggregates their verdicts into a RunRecord. Checks run
// concurrently in a bounded pool; a crashing or hung check is isolated into
// an ERROR result and never aborts the run.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lindia/preflight/internal/check"
)

// Engine runs a check registry.
type Engine struct {
	policy  Policy
	workers int
	// timeout is the default per-check deadline; Timeouts overrides it by
	// check name.
	timeout  time.Duration
	timeouts map[string]time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers bounds the concurrent check pool.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithTimeout sets the default per-check deadline.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithCheckTimeout overrides the deadline for a single check.
func WithCheckTimeout(name string, d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeouts[name] = d
		}
	}
}

// New builds an Engine with the given decision policy.
func New(policy Policy, opts ...Option) *Engine {
	e := &Engine{
		policy:   policy,
		workers:  4,
		timeout:  2 * time.Minute,
		timeouts: make(map[string]time.Duration),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes every enabled check against the target and returns the
// completed RunRecord. The record's build number is zero; the history ledger
// assigns it at append time. Run returns an error only when the outer
// context is cancelled before all checks finish — in that case no record is
// produced and nothing must be persisted.
func (e *Engine) Run(ctx context.Context, reg *check.Registry, target *check.Target) (*RunRecord, error) {
	units := reg.Enabled()
	results := make([]check.Result, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, unit := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.runOne(gctx, unit, target)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Only outer cancellation reaches here; check failures are results.
		return nil, fmt.Errorf("run aborted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		// Interrupted mid-run: the run is all-or-nothing, produce nothing.
		return nil, fmt.Errorf("run aborted: %w", err)
	}

	record := &RunRecord{
		ID:           uuid.NewString(),
		Revision:     target.Revision,
		Timestamp:    time.Now().UTC(),
		ChangedFiles: target.ChangedFiles,
		Results:      results,
		Decision:     e.policy.Decide(results),
	}
	if len(units) == 0 {
		record.Warnings = append(record.Warnings,
			"check registry is empty; the gate is passing vacuously")
	}
	return record, nil
}

// runOne invokes a single check under its deadline, converting panics and
// overruns into ERROR results.
func (e *Engine) runOne(ctx context.Context, unit check.Check, target *check.Target) check.Result {
	timeout := e.timeout
	if d, ok := e.timeouts[unit.Name()]; ok {
		timeout = d
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan check.Result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- check.Result{
					Name:     unit.Name(),
					Status:   check.StatusError,
					Detail:   fmt.Sprintf("check panicked: %v", p),
					Duration: time.Since(start),
				}
			}
		}()
		done <- unit.Run(cctx, target)
	}()

	select {
	case res := <-done:
		res.Name = unit.Name()
		if res.Duration == 0 {
			res.Duration = time.Since(start)
		}
		return res
	case <-cctx.Done():
		// The check goroutine may still be draining; the buffered channel
		// lets it exit without us.
		return check.Result{
			Name:     unit.Name(),
			Status:   check.StatusError,
			Detail:   fmt.Sprintf("timed out after %s", timeout),
			Duration: time.Since(start),
		}
	}
}
