package tagger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lindia/preflight/internal/engine"
)

// fakeGit implements GitTags over an in-memory tag store.
type fakeGit struct {
	tags    map[string]string // name -> revision
	created []string
	// failFirstCreate simulates losing the tag race once.
	failFirstCreate bool
	// raceRevision, when non-empty, simulates a concurrent run that tags
	// this revision between our idempotence check and our create.
	raceRevision string
}

func newFakeGit() *fakeGit {
	return &fakeGit{tags: make(map[string]string)}
}

func (f *fakeGit) Tags(ctx context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var out []string
	for name := range f.tags {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out, nil
}

func (f *fakeGit) TagsAt(ctx context.Context, revision string) ([]string, error) {
	var out []string
	for name, rev := range f.tags {
		if rev == revision {
			out = append(out, name)
		}
	}
	return out, nil
}

func (f *fakeGit) CreateTag(ctx context.Context, name, revision, message string) error {
	if f.raceRevision != "" {
		f.tags[name] = f.raceRevision
		f.raceRevision = ""
		return errors.New("tag 'x' already exists")
	}
	if f.failFirstCreate {
		f.failFirstCreate = false
		f.tags[name] = "someone-else"
		return errors.New("tag 'x' already exists")
	}
	if _, ok := f.tags[name]; ok {
		return errors.New("tag already exists")
	}
	f.tags[name] = revision
	f.created = append(f.created, name)
	return nil
}

func fixedNow() time.Time {
	return time.Date(2025, 10, 21, 12, 0, 0, 0, time.UTC)
}

func safeRecord(revision string) *engine.RunRecord {
	return &engine.RunRecord{Revision: revision, Decision: engine.DecisionSafe}
}

func TestTagger_FirstTagOfDay(t *testing.T) {
	git := newFakeGit()
	tg := New(git)
	tg.now = fixedNow

	tag, err := tg.TagIfEligible(context.Background(), safeRecord("abc123"))
	require.NoError(t, err)
	require.NotNil(t, tag)

	assert.Equal(t, "release_verified_20251021_1", tag.Name)
	assert.True(t, tag.Created)
	assert.Equal(t, 1, tag.Number)
	assert.Equal(t, "abc123", git.tags[tag.Name])
}

func TestTagger_IncrementsPerDate(t *testing.T) {
	git := newFakeGit()
	git.tags["release_verified_20251021_1"] = "old1"
	git.tags["release_verified_20251021_2"] = "old2"
	git.tags["release_verified_20251020_7"] = "yesterday"

	tg := New(git)
	tg.now = fixedNow

	tag, err := tg.TagIfEligible(context.Background(), safeRecord("abc123"))
	require.NoError(t, err)
	require.NotNil(t, tag)
	assert.Equal(t, "release_verified_20251021_3", tag.Name)
}

func TestTagger_IdempotentPerRevision(t *testing.T) {
	git := newFakeGit()
	tg := New(git)
	tg.now = fixedNow

	first, err := tg.TagIfEligible(context.Background(), safeRecord("abc123"))
	require.NoError(t, err)
	require.True(t, first.Created)

	// A second fully-passing run of the same revision is a no-op.
	second, err := tg.TagIfEligible(context.Background(), safeRecord("abc123"))
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.False(t, second.Created)
	assert.Equal(t, first.Name, second.Name)
	assert.Len(t, git.created, 1, "exactly one tag, not two")
}

func TestTagger_HoldIsIneligible(t *testing.T) {
	tg := New(newFakeGit())
	tag, err := tg.TagIfEligible(context.Background(), &engine.RunRecord{
		Revision: "abc123",
		Decision: engine.DecisionHold,
	})
	require.NoError(t, err)
	assert.Nil(t, tag)
}

func TestTagger_RetriesLostRace(t *testing.T) {
	git := newFakeGit()
	git.failFirstCreate = true

	tg := New(git)
	tg.now = fixedNow

	tag, err := tg.TagIfEligible(context.Background(), safeRecord("abc123"))
	require.NoError(t, err)
	require.NotNil(t, tag)
	assert.True(t, tag.Created)
	assert.Equal(t, 2, tag.Number, "second attempt picks the next number")
}

func TestTagger_SameRevisionRaceYieldsOneTag(t *testing.T) {
	git := newFakeGit()
	git.raceRevision = "abc123"

	tg := New(git)
	tg.now = fixedNow

	tag, err := tg.TagIfEligible(context.Background(), safeRecord("abc123"))
	require.NoError(t, err)
	require.NotNil(t, tag)

	// The racer's tag already points at this revision; ours is a no-op.
	assert.False(t, tag.Created)
	assert.Equal(t, "release_verified_20251021_1", tag.Name)
	assert.Empty(t, git.created)

	at, err := git.TagsAt(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Len(t, at, 1, "exactly one tag, not two")
}

func TestParseTag(t *testing.T) {
	date, n := parseTag("release_verified_20251021_12")
	assert.Equal(t, "20251021", date)
	assert.Equal(t, 12, n)

	_, n = parseTag("release_verified_garbage")
	assert.Zero(t, n)

	_, n = parseTag(fmt.Sprintf("release_verified_20251021_%s", "x"))
	assert.Zero(t, n)
}
