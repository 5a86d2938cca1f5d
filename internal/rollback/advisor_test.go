package rollback

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
	"github.com/lindia/preflight/internal/ledger"
)

func seededLedger(t *testing.T, dir string, records ...*engine.RunRecord) *ledger.Ledger {
	t.Helper()
	led, err := ledger.Open(dir)
	require.NoError(t, err)
	for _, r := range records {
		require.NoError(t, led.Append(r))
	}
	return led
}

func run(revision string, decision engine.Decision) *engine.RunRecord {
	return &engine.RunRecord{
		ID:        revision + "-run",
		Revision:  revision,
		Timestamp: time.Now().UTC(),
		Decision:  decision,
	}
}

func TestAdvisor_RecommendsLastSafe(t *testing.T) {
	dir := t.TempDir()
	led := seededLedger(t, dir,
		run("good", engine.DecisionSafe),
		run("alsogood", engine.DecisionSafe),
	)

	failing := &engine.RunRecord{
		Revision: "bad",
		Decision: engine.DecisionHold,
		Results: []check.Result{
			{Name: "tests", Status: check.StatusFail},
			{Name: "lint", Status: check.StatusPass},
		},
	}

	rec, err := New(led, dir).Advise(failing)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "alsogood", rec.ToRevision)
	assert.Equal(t, 2, rec.ToBuild)
	assert.Equal(t, "bad", rec.FromRevision)
	assert.False(t, rec.NoSafeTarget)
	assert.Contains(t, rec.Reason, "tests")
	assert.NotContains(t, rec.Reason, "lint")
	require.NotEmpty(t, rec.Steps)
	assert.Contains(t, rec.Steps[0], "git reset --hard alsogood")
}

func TestAdvisor_NoSafeTarget(t *testing.T) {
	dir := t.TempDir()
	led := seededLedger(t, dir, run("bad1", engine.DecisionHold))

	rec, err := New(led, dir).Advise(run("bad2", engine.DecisionHold))
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.True(t, rec.NoSafeTarget)
	assert.Empty(t, rec.ToRevision, "never fabricate a revision")
}

func TestAdvisor_SafeRunProducesNothing(t *testing.T) {
	dir := t.TempDir()
	led := seededLedger(t, dir)

	rec, err := New(led, dir).Advise(run("good", engine.DecisionSafe))
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestAdvisor_PersistsArtifact(t *testing.T) {
	dir := t.TempDir()
	led := seededLedger(t, dir, run("good", engine.DecisionSafe))

	rec, err := New(led, dir).Advise(run("bad", engine.DecisionHold))
	require.NoError(t, err)
	require.NotNil(t, rec)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var found string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "rollback_") && strings.HasSuffix(e.Name(), ".json") {
			found = filepath.Join(dir, e.Name())
		}
	}
	require.NotEmpty(t, found, "rollback artifact written")

	data, err := os.ReadFile(found)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"to_revision": "good"`)
}

func TestAdvisor_ExcludesFailingRevision(t *testing.T) {
	dir := t.TempDir()
	led := seededLedger(t, dir, run("rev", engine.DecisionSafe))

	// The same revision passed earlier; it is still not a valid target for
	// its own failing run.
	rec, err := New(led, dir).Advise(run("rev", engine.DecisionHold))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.NoSafeTarget)
}
