// Package rollback recommends a recovery path when the gate holds a
// deployment. The advisor only ever writes a recommendation artifact; the
// actual rollback is a manual, human-confirmed action.
package rollback

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lindia/preflight/internal/engine"
	"github.com/lindia/preflight/internal/ledger"
)

// Record is the rollback recommendation for one failing run.
type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	// FromRevision is the failing revision under review.
	FromRevision string `json:"from_revision"`
	// ToRevision is the most recent known-good revision, empty when none
	// exists.
	ToRevision string `json:"to_revision,omitempty"`
	// ToBuild is the ledger build number of the known-good run.
	ToBuild int    `json:"to_build,omitempty"`
	Reason  string `json:"reason"`
	// NoSafeTarget flags that the ledger holds no known-good baseline and
	// manual remediation is the only path.
	NoSafeTarget bool `json:"no_safe_target,omitempty"`
	// Steps is the recommended manual recovery procedure.
	Steps []string `json:"steps,omitempty"`
}

// Advisor produces rollback recommendations from the history ledger.
type Advisor struct {
	ledger *ledger.Ledger
	dir    string
}

// New returns an Advisor writing recommendation artifacts under dir.
func New(l *ledger.Ledger, dir string) *Advisor {
	return &Advisor{ledger: l, dir: dir}
}

// Advise emits a rollback recommendation when the record's decision is a
// hold. It returns nil for passing runs. The returned record is also
// persisted as rollback_<timestamp>.json for later audit.
func (a *Advisor) Advise(record *engine.RunRecord) (*Record, error) {
	if record.Decision != engine.DecisionHold {
		return nil, nil
	}

	reason := "verification failed"
	if failed := record.Failed(); len(failed) > 0 {
		reason = fmt.Sprintf("verification failed: %s", strings.Join(failed, ", "))
	}

	rec := &Record{
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		FromRevision: record.Revision,
		Reason:       reason,
	}

	target, err := a.ledger.LastSafe(record.Revision)
	switch {
	case errors.Is(err, ledger.ErrNoSafeBaseline):
		rec.NoSafeTarget = true
		rec.Steps = []string{
			"no previously verified revision exists in the history ledger",
			"fix the failing checks and re-run the gate",
		}
	case err != nil:
		return nil, fmt.Errorf("rollback: consulting ledger: %w", err)
	default:
		rec.ToRevision = target.Revision
		rec.ToBuild = target.BuildNumber
		rec.Steps = []string{
			fmt.Sprintf("git reset --hard %s", target.Revision),
			"git push --force-with-lease origin <branch>",
			"both steps are manual; the gate never rewrites history itself",
		}
	}

	if err := a.persist(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (a *Advisor) persist(rec *Record) error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("rollback: creating %s: %w", a.dir, err)
	}
	path := filepath.Join(a.dir, fmt.Sprintf("rollback_%s.json", rec.Timestamp.Format("20060102_150405")))
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("rollback: encoding record: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("rollback: writing %s: %w", path, err)
	}
	return nil
}
