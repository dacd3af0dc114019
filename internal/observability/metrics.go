package observability

import (
	"io"
	"net/http"
	"strconv"
	"time"
)

// Metrics is a small Prometheus text-format registry. All methods are safe on
// a nil receiver so callers can run with metrics disabled.
type Metrics struct {
	apiRequests    *counterVec
	apiLatency     *histogramVec
	apiInflight    *gaugeVec
	apiErrors      *counterVec
	factoryCalls   *counterVec
	factoryLatency *histogramVec
	onboardings    *counterVec
	onboardLatency *histogramVec
	backgroundRuns *counterVec
	vectorOps      *counterVec
	vectorLatency  *histogramVec
}

func NewMetrics() *Metrics {
	latency := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}
	slow := []float64{1, 5, 15, 30, 60, 120, 300}
	return &Metrics{
		apiRequests:    newCounterVec("cp_api_requests_total", "Total API requests by method/route/status.", "method", "route", "status"),
		apiLatency:     newHistogramVec("cp_api_request_duration_seconds", "API request latency in seconds by method/route.", latency, "method", "route"),
		apiInflight:    newGaugeVec("cp_api_inflight_requests", "In-flight API requests."),
		apiErrors:      newCounterVec("cp_api_errors_total", "API error envelopes by route/code.", "route", "code"),
		factoryCalls:   newCounterVec("cp_factory_calls_total", "Video factory calls by operation/outcome.", "operation", "outcome"),
		factoryLatency: newHistogramVec("cp_factory_call_duration_seconds", "Video factory call latency in seconds.", slow, "operation"),
		onboardings:    newCounterVec("cp_onboardings_total", "Onboarding runs by outcome.", "outcome"),
		onboardLatency: newHistogramVec("cp_onboarding_duration_seconds", "Onboarding fan-out latency in seconds.", slow),
		backgroundRuns: newCounterVec("cp_background_tasks_total", "Detached background tasks by name/outcome.", "task", "outcome"),
		vectorOps:      newCounterVec("cp_vector_store_operations_total", "Vector store operations by provider/operation/outcome.", "provider", "operation", "outcome"),
		vectorLatency:  newHistogramVec("cp_vector_store_operation_duration_seconds", "Vector store operation latency in seconds.", latency, "provider", "operation"),
	}
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.add(1, method, route, strconv.Itoa(status))
	m.apiLatency.observe(dur.Seconds(), method, route)
}

// ObserveAPIError counts an error envelope written for route.
func (m *Metrics) ObserveAPIError(route, code string) {
	if m == nil || code == "" {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.apiErrors.add(1, route, code)
}

func (m *Metrics) InflightInc() {
	if m != nil {
		m.apiInflight.add(1)
	}
}

func (m *Metrics) InflightDec() {
	if m != nil {
		m.apiInflight.add(-1)
	}
}

func (m *Metrics) ObserveFactory(op string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	m.factoryCalls.add(1, op, outcome(err))
	m.factoryLatency.observe(dur.Seconds(), op)
}

func (m *Metrics) ObserveOnboarding(err error, dur time.Duration) {
	if m == nil {
		return
	}
	m.onboardings.add(1, outcome(err))
	m.onboardLatency.observe(dur.Seconds())
}

func (m *Metrics) ObserveBackgroundTask(name string, err error) {
	if m == nil {
		return
	}
	m.backgroundRuns.add(1, name, outcome(err))
}

func (m *Metrics) ObserveVectorStore(provider, op string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	m.vectorOps.add(1, provider, op, outcome(err))
	m.vectorLatency.observe(dur.Seconds(), provider, op)
}

func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []collector{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiErrors,
		m.factoryCalls, m.factoryLatency,
		m.onboardings, m.onboardLatency,
		m.backgroundRuns,
		m.vectorOps, m.vectorLatency,
	} {
		if err := c.writePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
