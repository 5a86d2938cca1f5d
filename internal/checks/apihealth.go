package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lindia/preflight/internal/check"
)

// APIHealth probes one or more HTTP health endpoints and expects a 2xx
// response. When the body is JSON with a "status" field, that field must read
// healthy too; plain bodies are accepted on status code alone.
type APIHealth struct {
	endpoints []string
	client    *http.Client
}

// NewAPIHealth builds the health-probe check. timeout bounds each probe.
func NewAPIHealth(endpoints []string, timeout time.Duration) *APIHealth {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &APIHealth{
		endpoints: endpoints,
		client:    &http.Client{Timeout: timeout},
	}
}

// Name implements check.Check.
func (c *APIHealth) Name() string { return "api-health" }

// Run implements check.Check.
func (c *APIHealth) Run(ctx context.Context, target *check.Target) check.Result {
	start := time.Now()

	if len(c.endpoints) == 0 {
		return check.Result{
			Name:     c.Name(),
			Status:   check.StatusSkipped,
			Detail:   "no health endpoints configured",
			Duration: time.Since(start),
		}
	}

	var failures []string
	var passed int
	for _, url := range c.endpoints {
		if err := c.probe(ctx, url); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", url, err))
			continue
		}
		passed++
	}

	detail := fmt.Sprintf("%d/%d endpoints healthy", passed, len(c.endpoints))
	if len(failures) > 0 {
		return check.Result{
			Name:     c.Name(),
			Status:   check.StatusFail,
			Detail:   detail + "\n" + strings.Join(failures, "\n"),
			Duration: time.Since(start),
		}
	}
	return check.Result{
		Name:     c.Name(),
		Status:   check.StatusPass,
		Detail:   detail,
		Duration: time.Since(start),
	}
}

func (c *APIHealth) probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	// Structured bodies carry their own verdict.
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil // non-JSON body, status code is authoritative
	}
	switch strings.ToLower(body.Status) {
	case "", "ok", "healthy", "up", "pass":
		return nil
	default:
		return fmt.Errorf("reported status %q", body.Status)
	}
}
