// Package gitx wraps the git plumbing the gate needs: resolving the current
// revision, listing changed files, and managing the release tag namespace.
// All access goes through the git binary so .gitignore, hooks and the tag
// store behave exactly as they do for the user.
package gitx

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Repo provides git access rooted at a repository working tree.
type Repo struct {
	root string
}

// Open returns a Repo for the given working tree root. It does not verify
// the directory is a repository; the first command will fail if it is not.
func Open(root string) *Repo {
	return &Repo{root: root}
}

// Discover finds the repository containing dir and returns a Repo rooted at
// its working tree top level.
func Discover(ctx context.Context, dir string) (*Repo, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "--show-toplevel")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("not inside a git repository: %s", strings.TrimSpace(string(out)))
	}
	return &Repo{root: strings.TrimSpace(string(out))}, nil
}

// Root returns the working tree root.
func (r *Repo) Root() string { return r.root }

func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.root
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// Head resolves the current commit hash.
func (r *Repo) Head(ctx context.Context) (string, error) {
	return r.git(ctx, "rev-parse", "HEAD")
}

// ChangedFiles lists the paths changed in the given revision relative to its
// first parent. A root commit (no parent) yields an empty list, not an error.
func (r *Repo) ChangedFiles(ctx context.Context, revision string) ([]string, error) {
	out, err := r.git(ctx, "diff", revision+"^", revision, "--name-only")
	if err != nil {
		if strings.Contains(err.Error(), "unknown revision") {
			return nil, nil
		}
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// CommitInfo describes one commit for human-facing output.
type CommitInfo struct {
	Hash    string `json:"hash"`
	Author  string `json:"author"`
	Email   string `json:"email"`
	Date    string `json:"date"`
	Subject string `json:"subject"`
}

// Show returns metadata for a single commit.
func (r *Repo) Show(ctx context.Context, revision string) (CommitInfo, error) {
	out, err := r.git(ctx, "show", revision, "--format=%H|%an|%ae|%ad|%s", "--no-patch")
	if err != nil {
		return CommitInfo{}, err
	}
	parts := strings.SplitN(out, "|", 5)
	info := CommitInfo{Hash: parts[0]}
	if len(parts) > 1 {
		info.Author = parts[1]
	}
	if len(parts) > 2 {
		info.Email = parts[2]
	}
	if len(parts) > 3 {
		info.Date = parts[3]
	}
	if len(parts) > 4 {
		info.Subject = parts[4]
	}
	return info, nil
}

// Tags lists tag names matching the given glob pattern, or all tags when the
// pattern is empty.
func (r *Repo) Tags(ctx context.Context, pattern string) ([]string, error) {
	args := []string{"tag", "-l"}
	if pattern != "" {
		args = append(args, pattern)
	}
	out, err := r.git(ctx, args...)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// TagsAt lists tags pointing at the given revision.
func (r *Repo) TagsAt(ctx context.Context, revision string) ([]string, error) {
	out, err := r.git(ctx, "tag", "--points-at", revision)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// CreateTag creates an annotated tag at the given revision. Git refuses to
// overwrite an existing tag, which is what makes concurrent tagging safe.
func (r *Repo) CreateTag(ctx context.Context, name, revision, message string) error {
	_, err := r.git(ctx, "tag", "-a", name, revision, "-m", message)
	return err
}

// HooksDir returns the repository's hooks directory.
func (r *Repo) HooksDir(ctx context.Context) (string, error) {
	out, err := r.git(ctx, "rev-parse", "--git-path", "hooks")
	if err != nil {
		return "", err
	}
	return out, nil
}

// User returns the configured git user name, falling back to "unknown".
func (r *Repo) User(ctx context.Context) string {
	out, err := r.git(ctx, "config", "user.name")
	if err != nil || out == "" {
		return "unknown"
	}
	return out
}
