package checks

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lindia/preflight/internal/check"
)

// Structure validates that the repository keeps its expected shape: required
// files exist and, when a component glob is configured, at least one
// component file matches it. This is the generalized form of a UI-consistency
// check: it looks at structure, never at rendering.
type Structure struct {
	required      []string
	componentGlob string
}

// NewStructure builds the structure check.
func NewStructure(required []string, componentGlob string) *Structure {
	return &Structure{required: required, componentGlob: componentGlob}
}

// Name implements check.Check.
func (c *Structure) Name() string { return "structure" }

// Run implements check.Check.
func (c *Structure) Run(ctx context.Context, target *check.Target) check.Result {
	start := time.Now()

	if len(c.required) == 0 && c.componentGlob == "" {
		return check.Result{
			Name:     c.Name(),
			Status:   check.StatusSkipped,
			Detail:   "no structure requirements configured",
			Duration: time.Since(start),
		}
	}

	var missing []string
	for _, rel := range c.required {
		info, err := os.Stat(filepath.Join(target.RepoRoot, rel))
		if err != nil || info.IsDir() {
			missing = append(missing, rel)
		}
	}

	var notes []string
	if len(c.required) > 0 {
		notes = append(notes, fmt.Sprintf("%d/%d required files present",
			len(c.required)-len(missing), len(c.required)))
	}

	componentCount := -1
	if c.componentGlob != "" {
		n, err := c.countComponents(ctx, target.RepoRoot)
		if err != nil {
			return check.Result{
				Name:     c.Name(),
				Status:   check.StatusError,
				Detail:   fmt.Sprintf("matching %q: %v", c.componentGlob, err),
				Duration: time.Since(start),
			}
		}
		componentCount = n
		notes = append(notes, fmt.Sprintf("%d component file(s) match %q", n, c.componentGlob))
	}

	if len(missing) > 0 || componentCount == 0 {
		if len(missing) > 0 {
			notes = append(notes, "missing: "+strings.Join(missing, ", "))
		}
		return check.Result{
			Name:     c.Name(),
			Status:   check.StatusFail,
			Detail:   strings.Join(notes, "; "),
			Duration: time.Since(start),
		}
	}
	return check.Result{
		Name:     c.Name(),
		Status:   check.StatusPass,
		Detail:   strings.Join(notes, "; "),
		Duration: time.Since(start),
	}
}

func (c *Structure) countComponents(ctx context.Context, root string) (int, error) {
	// filepath.Glob does not support **, so walk and match on base name and
	// suffix segments instead.
	pattern := c.componentGlob
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if matchGlob(pattern, filepath.ToSlash(rel)) {
			count++
		}
		return nil
	})
	return count, err
}

// matchGlob matches a path against a glob where "**" spans directories.
func matchGlob(pattern, path string) bool {
	if !strings.Contains(pattern, "**") {
		ok, _ := filepath.Match(pattern, path)
		return ok
	}
	parts := strings.SplitN(pattern, "**", 2)
	prefix := strings.TrimSuffix(parts[0], "/")
	suffix := strings.TrimPrefix(parts[1], "/")
	if prefix != "" && !strings.HasPrefix(path, prefix+"/") && path != prefix {
		return false
	}
	if suffix == "" {
		return true
	}
	base := path[strings.LastIndex(path, "/")+1:]
	ok, _ := filepath.Match(suffix, base)
	return ok
}
