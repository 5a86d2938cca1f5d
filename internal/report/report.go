// Package report renders a completed run into durable artifacts: a
// human-readable text report and a lossless JSON report, both named from the
// run's timestamp so repeated runs never collide. Rendering is a pure side
// effect; it never alters the record or the ledger.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lindia/preflight/internal/engine"
)

const stampLayout = "20060102_150405"

// Generator writes report artifacts into a directory.
type Generator struct {
	dir string
}

// NewGenerator returns a Generator writing under dir.
func NewGenerator(dir string) *Generator {
	return &Generator{dir: dir}
}

// Write renders both artifacts for the record and returns their paths.
func (g *Generator) Write(record *engine.RunRecord) (textPath, jsonPath string, err error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", "", fmt.Errorf("report: creating %s: %w", g.dir, err)
	}

	stamp := record.Timestamp.Format(stampLayout)
	textPath = filepath.Join(g.dir, fmt.Sprintf("report_%s.txt", stamp))
	jsonPath = filepath.Join(g.dir, fmt.Sprintf("report_%s.json", stamp))

	if err := os.WriteFile(textPath, []byte(Text(record)), 0o644); err != nil {
		return "", "", fmt.Errorf("report: writing %s: %w", textPath, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("report: encoding record: %w", err)
	}
	if err := os.WriteFile(jsonPath, append(data, '\n'), 0o644); err != nil {
		return "", "", fmt.Errorf("report: writing %s: %w", jsonPath, err)
	}
	return textPath, jsonPath, nil
}

// Parse reads a machine-readable report back into a RunRecord. Downstream
// tooling uses this to recompute the decision as a consistency check.
func Parse(path string) (*engine.RunRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: reading %s: %w", path, err)
	}
	var record engine.RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("report: parsing %s: %w", path, err)
	}
	return &record, nil
}

// Text renders the human-readable artifact.
func Text(record *engine.RunRecord) string {
	var b strings.Builder
	rule := strings.Repeat("=", 72)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "PRE-DEPLOYMENT VERIFICATION REPORT")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Run ID:    %s\n", record.ID)
	fmt.Fprintf(&b, "Revision:  %s\n", record.Revision)
	fmt.Fprintf(&b, "Timestamp: %s\n", record.Timestamp.Format("2006-01-02 15:04:05 MST"))
	if record.BuildNumber > 0 {
		fmt.Fprintf(&b, "Build:     %d\n", record.BuildNumber)
	}
	fmt.Fprintln(&b)

	if len(record.ChangedFiles) > 0 {
		fmt.Fprintln(&b, "CHANGED FILES:")
		for _, f := range record.ChangedFiles {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
		fmt.Fprintln(&b)
	}

	fmt.Fprintln(&b, "CHECK RESULTS:")
	if len(record.Results) == 0 {
		fmt.Fprintln(&b, "  (no checks registered)")
	}
	for _, res := range record.Results {
		fmt.Fprintf(&b, "  [%-7s] %-12s %s  %s\n",
			res.Status, res.Name, res.Duration.Round(1e6), firstLine(res.Detail))
	}
	fmt.Fprintln(&b)

	for _, w := range record.Warnings {
		fmt.Fprintf(&b, "WARNING: %s\n", w)
	}
	if record.Bypassed {
		fmt.Fprintln(&b, "NOTE: gate hold was bypassed; see the bypass audit log")
	}

	fmt.Fprintln(&b, "DEPLOYMENT RECOMMENDATION:")
	fmt.Fprintf(&b, "  %s\n", record.Decision)
	fmt.Fprintln(&b, rule)
	return b.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " ..."
	}
	if len(s) > 100 {
		s = s[:100] + "..."
	}
	return s
}
