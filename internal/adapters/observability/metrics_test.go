package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"villarosa/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so counters are non-zero
	observability.ObserveHTTP("/v1/availability", "GET", 200, 12*time.Millisecond)
	observability.ObserveCache("redis", "stale")

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	if !strings.Contains(out, "villarosa_http_requests_total") {
		t.Fatalf("expected villarosa_http_requests_total in output")
	}
	if !strings.Contains(out, `villarosa_cache_events_total{cache="redis",event="stale"}`) {
		t.Fatalf("expected stale cache event counter in output:\n%s", out)
	}
}
