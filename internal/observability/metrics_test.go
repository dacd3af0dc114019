package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("POST", "/api/generate/video", 500, 40*time.Millisecond)
	m.ObserveAPI("POST", "/api/generate/video", 500, 2*time.Second)
	m.ObserveFactory("generate", errors.New("boom"), 3*time.Second)
	m.ObserveOnboarding(nil, 12*time.Second)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`cp_api_requests_total{method="POST",route="/api/generate/video",status="500"} 2`,
		`cp_api_request_duration_seconds_bucket{method="POST",route="/api/generate/video",le="0.05"} 1`,
		`cp_api_request_duration_seconds_bucket{method="POST",route="/api/generate/video",le="+Inf"} 2`,
		`cp_factory_calls_total{operation="generate",outcome="error"} 1`,
		`cp_onboardings_total{outcome="ok"} 1`,
		"# TYPE cp_api_inflight_requests gauge",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("exposition missing %q\n%s", want, out)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/healthcheck", 200, time.Millisecond)
	m.InflightInc()
	m.ObserveBackgroundTask("memory_sync", nil)
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus(nil): %v", err)
	}
}

func TestInflightGauge(t *testing.T) {
	m := NewMetrics()
	m.InflightInc()
	m.InflightInc()
	m.InflightDec()
	if got := m.apiInflight.get(); got != 1 {
		t.Fatalf("inflight: want=1 got=%v", got)
	}
}

func TestEscapeLabel(t *testing.T) {
	if got := labelString([]string{"route"}, []string{`a"b\c`}); got != `{route="a\"b\\c"}` {
		t.Fatalf("labelString: got %s", got)
	}
}

func TestAPIErrorsByCode(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPIError("/api/plan/:day/review", "plan_item_not_found")
	m.ObserveAPIError("/api/plan/:day/review", "plan_item_not_found")
	m.ObserveAPIError("/api/onboarding", "")
	if got := m.apiErrors.get("/api/plan/:day/review", "plan_item_not_found"); got != 2 {
		t.Fatalf("plan_item_not_found: want=2 got=%v", got)
	}
	if got := m.apiErrors.get("/api/onboarding", ""); got != 0 {
		t.Fatalf("empty code should not be counted: got=%v", got)
	}
}
