package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lindia/preflight/internal/check"
	"github.com/lindia/preflight/internal/engine"
	"github.com/lindia/preflight/internal/testutil/golden"
)

func fixedRecord() *engine.RunRecord {
	return &engine.RunRecord{
		ID:           "run-0042",
		Revision:     "abc123def456",
		Timestamp:    time.Date(2025, 10, 21, 15, 30, 0, 0, time.UTC),
		ChangedFiles: []string{"main.py", "frontend/src/App.tsx"},
		Results: []check.Result{
			{Name: "lint", Status: check.StatusPass, Detail: "golangci-lint run ./... succeeded", Duration: 1200 * time.Millisecond},
			{Name: "tests", Status: check.StatusFail, Detail: "exit 1: 3 tests failed", Duration: 2500 * time.Millisecond},
			{Name: "api-health", Status: check.StatusSkipped, Detail: "no health endpoints configured"},
		},
		Decision:    engine.DecisionHold,
		BuildNumber: 7,
	}
}

func TestGenerator_WritesBothArtifacts(t *testing.T) {
	dir := t.TempDir()
	record := fixedRecord()

	textPath, jsonPath, err := NewGenerator(dir).Write(record)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "report_20251021_153000.txt"), textPath)
	assert.Equal(t, filepath.Join(dir, "report_20251021_153000.json"), jsonPath)

	text, err := os.ReadFile(textPath)
	require.NoError(t, err)
	assert.Contains(t, string(text), "abc123def456")
	assert.Contains(t, string(text), "HOLD_FOR_REVIEW")
}

func TestRoundTrip_DecisionReproducible(t *testing.T) {
	dir := t.TempDir()
	record := fixedRecord()

	_, jsonPath, err := NewGenerator(dir).Write(record)
	require.NoError(t, err)

	parsed, err := Parse(jsonPath)
	require.NoError(t, err)

	// The machine artifact is lossless: re-running the policy over the
	// parsed results reproduces the recorded decision.
	assert.Equal(t, record.Results, parsed.Results)
	assert.Equal(t, record.Decision, engine.Policy{}.Decide(parsed.Results))
	assert.Equal(t, record.BuildNumber, parsed.BuildNumber)
	assert.Equal(t, record.ID, parsed.ID)
}

func TestText_Golden(t *testing.T) {
	golden.Check(t, "testdata", "human_report", Text(fixedRecord()))
}

func TestText_ListsEveryCheckWithStatus(t *testing.T) {
	text := Text(fixedRecord())
	assert.Contains(t, text, "[PASS   ] lint")
	assert.Contains(t, text, "[FAIL   ] tests")
	assert.Contains(t, text, "[SKIPPED] api-health")
}

func TestText_EmptyRegistry(t *testing.T) {
	record := &engine.RunRecord{
		ID:        "run-1",
		Revision:  "abc",
		Timestamp: time.Date(2025, 10, 21, 15, 30, 0, 0, time.UTC),
		Decision:  engine.DecisionSafe,
		Warnings:  []string{"check registry is empty; the gate is passing vacuously"},
	}
	text := Text(record)
	assert.Contains(t, text, "(no checks registered)")
	assert.Contains(t, text, "WARNING: check registry is empty")
	assert.Contains(t, text, "SAFE_TO_PROCEED")
}

func TestSummary_ShowsBlockingChecks(t *testing.T) {
	out := Summary(fixedRecord())
	assert.Contains(t, out, "tests")
	assert.Contains(t, out, "HOLD_FOR_REVIEW")
	assert.Contains(t, out, "blocking: tests")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "one ...", firstLine("one\ntwo"))
	assert.Equal(t, "plain", firstLine("plain"))
	long := strings.Repeat("x", 150)
	assert.Len(t, firstLine(long), 103)
}
