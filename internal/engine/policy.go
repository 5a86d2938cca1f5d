package engine

import "github.com/lindia/preflight/internal/check"

// Policy maps a run's verdicts to a deployment decision. The gate is binary
// admission control, not quality scoring: a single FAIL or ERROR holds the
// deployment, with no partial credit.
type Policy struct {
	// StrictSkipped treats SKIPPED verdicts as blocking. Off by default: a
	// check whose prerequisite tool is legitimately absent is not a defect.
	StrictSkipped bool
}

// Decide returns SAFE_TO_PROCEED iff every result is acceptable under the
// policy. An empty result set is safe (nothing is failing); the engine
// surfaces that as a configuration warning, not a hold.
func (p Policy) Decide(results []check.Result) Decision {
	for _, r := range results {
		switch r.Status {
		case check.StatusPass:
		case check.StatusSkipped:
			if p.StrictSkipped {
				return DecisionHold
			}
		default: // FAIL and ERROR both hold
			return DecisionHold
		}
	}
	return DecisionSafe
}
