// Package tagger mints immutable release tags for revisions that passed the
// gate. Tag names are release_verified_<YYYYMMDD>_<n>, where n is scoped per
// calendar date and never reused.
package tagger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lindia/preflight/internal/engine"
)

const prefix = "release_verified_"

// GitTags is the slice of git the tagger needs.
type GitTags interface {
	Tags(ctx context.Context, pattern string) ([]string, error)
	TagsAt(ctx context.Context, revision string) ([]string, error)
	CreateTag(ctx context.Context, name, revision, message string) error
}

// ReleaseTag describes the tag decision for one eligible run.
type ReleaseTag struct {
	Name     string `json:"name"`
	Revision string `json:"revision"`
	Date     string `json:"date"`
	Number   int    `json:"number"`
	// Created is false when the revision already carried a release tag and
	// tagging was a no-op.
	Created bool `json:"created"`
}

// Tagger creates release tags.
type Tagger struct {
	git GitTags
	now func() time.Time
}

// New returns a Tagger over the given git tag store.
func New(git GitTags) *Tagger {
	return &Tagger{git: git, now: time.Now}
}

// TagIfEligible tags the record's revision when its decision is
// SAFE_TO_PROCEED. It returns nil for ineligible records. Tagging an
// already-tagged revision is a no-op reported via Created=false, never a
// duplicate or an overwrite.
func (t *Tagger) TagIfEligible(ctx context.Context, record *engine.RunRecord) (*ReleaseTag, error) {
	if record.Decision != engine.DecisionSafe {
		return nil, nil
	}

	// Idempotence: a revision carries at most one release tag.
	if tag, err := t.taggedAt(ctx, record.Revision); err != nil || tag != nil {
		return tag, err
	}

	date := t.now().Format("20060102")

	// Git refuses to overwrite an existing tag, so a concurrent run racing
	// us to the same number fails cleanly. The racer may have tagged this
	// very revision, so the idempotence check runs again before the retry;
	// otherwise one retry picks the next number.
	for attempt := 0; attempt < 2; attempt++ {
		number, err := t.nextNumber(ctx, date)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("%s%s_%d", prefix, date, number)
		message := fmt.Sprintf("Verified release: %s build %d", date, number)
		if err := t.git.CreateTag(ctx, name, record.Revision, message); err != nil {
			if attempt == 0 && strings.Contains(err.Error(), "already exists") {
				if tag, err := t.taggedAt(ctx, record.Revision); err != nil || tag != nil {
					return tag, err
				}
				continue
			}
			return nil, fmt.Errorf("tagger: creating %s: %w", name, err)
		}
		return &ReleaseTag{
			Name:     name,
			Revision: record.Revision,
			Date:     date,
			Number:   number,
			Created:  true,
		}, nil
	}
	return nil, fmt.Errorf("tagger: lost tag race twice for date %s", date)
}

// taggedAt returns the release tag already pointing at revision, or nil.
func (t *Tagger) taggedAt(ctx context.Context, revision string) (*ReleaseTag, error) {
	existing, err := t.git.TagsAt(ctx, revision)
	if err != nil {
		return nil, fmt.Errorf("tagger: listing tags at %s: %w", revision, err)
	}
	for _, name := range existing {
		if strings.HasPrefix(name, prefix) {
			date, number := parseTag(name)
			return &ReleaseTag{
				Name:     name,
				Revision: revision,
				Date:     date,
				Number:   number,
				Created:  false,
			}, nil
		}
	}
	return nil, nil
}

// nextNumber scans existing tags for the date and returns max+1, starting
// at 1. Numbers are never reused even if an earlier tag was deleted.
func (t *Tagger) nextNumber(ctx context.Context, date string) (int, error) {
	tags, err := t.git.Tags(ctx, prefix+date+"_*")
	if err != nil {
		return 0, fmt.Errorf("tagger: listing tags for %s: %w", date, err)
	}
	max := 0
	for _, name := range tags {
		_, n := parseTag(name)
		if n > max {
			max = n
		}
	}
	return max + 1, nil
}

// parseTag extracts the date and number from a release tag name. Malformed
// names yield a zero number and are ignored by callers.
func parseTag(name string) (date string, number int) {
	rest := strings.TrimPrefix(name, prefix)
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return rest, 0
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return parts[0], 0
	}
	return parts[0], n
}
