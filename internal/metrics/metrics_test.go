package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservePrompt(t *testing.T) {
	m := New()
	m.ObservePrompt("support", "create_order", "ok", 3*time.Millisecond)
	m.ObservePrompt("support", "create_order", "ok", 5*time.Millisecond)
	m.ObservePrompt("support", "", "unrecognized", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.prompts.WithLabelValues("support", "create_order", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.prompts.WithLabelValues("support", "none", "unrecognized")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.latency))
}

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("/ping", http.StatusOK)
	m.ObserveRequest("/support-agent/query", http.StatusBadRequest)

	expected := `
# HELP studiodesk_http_requests_total Total number of HTTP requests, by route and status code
# TYPE studiodesk_http_requests_total counter
studiodesk_http_requests_total{code="400",route="/support-agent/query"} 1
studiodesk_http_requests_total{code="200",route="/ping"} 1
`
	require.NoError(t, testutil.CollectAndCompare(m.requests, strings.NewReader(expected)))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObservePrompt("dashboard", "total_revenue", "ok", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `studiodesk_prompts_total{agent="dashboard",intent="total_revenue",outcome="ok"} 1`)
	assert.Contains(t, body, "studiodesk_prompt_duration_milliseconds_bucket")
	assert.Contains(t, body, "go_goroutines")
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObservePrompt("support", "x", "ok", 0)
	assert.Equal(t, 0, testutil.CollectAndCount(b.prompts))
}
