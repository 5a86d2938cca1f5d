package checks

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/lindia/preflight/internal/check"
)

// Secrets scans configured files for hardcoded credential patterns. A line
// matching the allow expression (typically an environment lookup) is not
// reported even when a pattern hits.
type Secrets struct {
	files    []string
	patterns []string
	allow    *regexp.Regexp
	allowErr error
}

// NewSecrets builds the secret scan. allow may be empty. An invalid allow
// expression is surfaced at run time as an ERROR result rather than at
// construction, so registry assembly never fails on config typos.
func NewSecrets(files, patterns []string, allow string) *Secrets {
	s := &Secrets{files: files, patterns: patterns}
	if allow != "" {
		s.allow, s.allowErr = regexp.Compile(allow)
	}
	return s
}

// Name implements check.Check.
func (c *Secrets) Name() string { return "secrets" }

// Run implements check.Check.
func (c *Secrets) Run(ctx context.Context, target *check.Target) check.Result {
	start := time.Now()

	if c.allowErr != nil {
		// Scanning without the allowlist would flag legitimate env lookups.
		return check.Result{
			Name:     c.Name(),
			Status:   check.StatusError,
			Detail:   fmt.Sprintf("invalid allow expression: %v", c.allowErr),
			Duration: time.Since(start),
		}
	}

	files := c.files
	if len(files) == 0 {
		// Default to the files touched by this revision; a secret slipping in
		// is almost always in the change under review.
		files = target.ChangedFiles
	}
	if len(files) == 0 {
		return check.Result{
			Name:     c.Name(),
			Status:   check.StatusSkipped,
			Detail:   "no files configured or changed",
			Duration: time.Since(start),
		}
	}

	var findings []string
	scanned := 0
	for _, rel := range files {
		select {
		case <-ctx.Done():
			return check.Result{
				Name:     c.Name(),
				Status:   check.StatusError,
				Detail:   ctx.Err().Error(),
				Duration: time.Since(start),
			}
		default:
		}

		path := filepath.Join(target.RepoRoot, rel)
		hits, err := c.scanFile(path, rel)
		if err != nil {
			if os.IsNotExist(err) {
				continue // deleted in this revision
			}
			return check.Result{
				Name:     c.Name(),
				Status:   check.StatusError,
				Detail:   fmt.Sprintf("scanning %s: %v", rel, err),
				Duration: time.Since(start),
			}
		}
		scanned++
		findings = append(findings, hits...)
	}

	if len(findings) > 0 {
		return check.Result{
			Name:     c.Name(),
			Status:   check.StatusFail,
			Detail:   fmt.Sprintf("%d potential hardcoded secret(s):\n%s", len(findings), strings.Join(findings, "\n")),
			Duration: time.Since(start),
		}
	}
	return check.Result{
		Name:     c.Name(),
		Status:   check.StatusPass,
		Detail:   fmt.Sprintf("no hardcoded secrets in %d file(s)", scanned),
		Duration: time.Since(start),
	}
}

func (c *Secrets) scanFile(path, rel string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var hits []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		lower := strings.ToLower(line)
		for _, pattern := range c.patterns {
			if !strings.Contains(lower, strings.ToLower(pattern)) {
				continue
			}
			if c.allow != nil && c.allow.MatchString(line) {
				continue
			}
			hits = append(hits, fmt.Sprintf("  %s:%d matches %q", rel, lineNo, pattern))
			break
		}
	}
	return hits, scanner.Err()
}
