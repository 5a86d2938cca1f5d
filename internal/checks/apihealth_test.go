package checks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lindia/preflight/internal/check"
)

func TestAPIHealth_HealthyEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	c := NewAPIHealth([]string{srv.URL + "/health"}, time.Second)
	res := c.Run(context.Background(), &check.Target{})

	assert.Equal(t, check.StatusPass, res.Status)
	assert.Contains(t, res.Detail, "1/1 endpoints healthy")
}

func TestAPIHealth_UnhealthyStatusField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"degraded"}`))
	}))
	defer srv.Close()

	c := NewAPIHealth([]string{srv.URL}, time.Second)
	res := c.Run(context.Background(), &check.Target{})

	assert.Equal(t, check.StatusFail, res.Status)
	assert.Contains(t, res.Detail, `"degraded"`)
}

func TestAPIHealth_Non2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewAPIHealth([]string{srv.URL}, time.Second)
	res := c.Run(context.Background(), &check.Target{})

	assert.Equal(t, check.StatusFail, res.Status)
	assert.Contains(t, res.Detail, "status 503")
}

func TestAPIHealth_PlainBodyAcceptedOnStatusCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	c := NewAPIHealth([]string{srv.URL}, time.Second)
	res := c.Run(context.Background(), &check.Target{})

	assert.Equal(t, check.StatusPass, res.Status)
}

func TestAPIHealth_SkipsWithoutEndpoints(t *testing.T) {
	c := NewAPIHealth(nil, time.Second)
	res := c.Run(context.Background(), &check.Target{})

	assert.Equal(t, check.StatusSkipped, res.Status)
}

func TestAPIHealth_UnreachableEndpoint(t *testing.T) {
	c := NewAPIHealth([]string{"http://127.0.0.1:1/health"}, 200*time.Millisecond)
	res := c.Run(context.Background(), &check.Target{})

	assert.Equal(t, check.StatusFail, res.Status)
}
