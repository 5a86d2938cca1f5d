package engine

import (
	"time"

	"github.com/lindia/preflight/internal/check"
)

// Decision is the gate's deployment recommendation for one run.
type Decision string

const (
	DecisionSafe Decision = "SAFE_TO_PROCEED"
	DecisionHold Decision = "HOLD_FOR_REVIEW"
)

// RunRecord is the immutable outcome of one full gate execution. Once
// appended to the history ledger it is never edited; corrections require a
// new run.
type RunRecord struct {
	// ID correlates the record with its report and rollback artifacts.
	ID string `json:"id"`
	// Revision is the exact commit the checks ran against.
	Revision string `json:"revision"`
	// Timestamp is set after all checks have completed.
	Timestamp time.Time `json:"timestamp"`
	// ChangedFiles lists the paths changed in Revision, if known.
	ChangedFiles []string `json:"changed_files,omitempty"`
	// Results holds one entry per enabled check, in registration order.
	Results []check.Result `json:"results"`
	Decision Decision      `json:"decision"`
	// BuildNumber is zero until the ledger assigns it at append time. It is
	// strictly increasing and gapless across the ledger.
	BuildNumber int `json:"build_number"`
	// Warnings carries configuration-level notices, e.g. an empty registry.
	Warnings []string `json:"warnings,omitempty"`
	// Bypassed records that the gate's hold was overridden (who and why are
	// in the bypass audit log; this flag keeps the ledger honest).
	Bypassed bool `json:"bypassed,omitempty"`
}

// Failed returns the names of checks whose status blocks the gate.
func (r *RunRecord) Failed() []string {
	var out []string
	for _, res := range r.Results {
		if res.Blocking() {
			out = append(out, res.Name)
		}
	}
	return out
}
