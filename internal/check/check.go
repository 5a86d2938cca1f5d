package check

import (
	"context"
	"time"
)

// Status represents the outcome of a single check execution.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	// StatusSkipped means the check's prerequisite tool or service was
	// unavailable. It is not a defect and does not block the gate by default.
	StatusSkipped Status = "SKIPPED"
	// StatusError means the check itself crashed or timed out. It blocks the
	// gate like a failure but is recorded distinctly for diagnosis.
	StatusError Status = "ERROR"
)

// Result is one check's outcome for one run.
type Result struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Blocking reports whether this result forces a hold under the default
// (permissive) policy. SKIPPED is visible in reports but never blocking here;
// the strict-skip knob lives in the decision policy.
func (r Result) Blocking() bool {
	return r.Status == StatusFail || r.Status == StatusError
}

// Target is the read-only view of the repository state a check runs against.
// Checks must not mutate anything reachable from it.
type Target struct {
	// RepoRoot is the absolute path of the repository being verified.
	RepoRoot string
	// Revision is the exact commit the checks run against.
	Revision string
	// ChangedFiles lists paths changed in Revision, if known.
	ChangedFiles []string
}

// Check is one independent validation routine. Implementations must be
// self-contained: no check may assume another has already run, and a check
// reads repository state only through the Target.
type Check interface {
	// Name returns the unique identifier (e.g. "lint", "api-health").
	Name() string

	// Run evaluates the target. It should honor ctx cancellation; the engine
	// enforces a deadline and converts overruns and panics to ERROR results.
	Run(ctx context.Context, target *Target) Result
}
