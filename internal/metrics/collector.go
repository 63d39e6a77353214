package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// RequestMetricName is the histogram holding every observed request.
const RequestMetricName = "http_server_requests_seconds"

// Outcome label values
const (
	OutcomeInformational = "INFORMATIONAL"
	OutcomeSuccess       = "SUCCESS"
	OutcomeRedirection   = "REDIRECTION"
	OutcomeClientError   = "CLIENT_ERROR"
	OutcomeServerError   = "SERVER_ERROR"
	OutcomeUnknown       = "UNKNOWN"
)

// ErrNoData means the counter has not recorded anything yet.
var ErrNoData = errors.New("metrics: no data recorded")

// Instrumentation reports lifetime request counters.
type Instrumentation interface {
	CumulativeRequestCount() (float64, error)
	// CumulativeRequestTime is the latency sum in seconds.
	CumulativeRequestTime() (float64, error)
	CumulativeServerErrorCount() (float64, error)
}

// RequestMetrics records requests into a Prometheus histogram and reads
// the cumulative totals back from the registry.
type RequestMetrics struct {
	registry *prometheus.Registry
	requests *prometheus.HistogramVec
}

var _ Instrumentation = (*RequestMetrics)(nil)

// NewRequestMetrics registers the request histogram on registry. A nil
// registry gets a private one.
func NewRequestMetrics(registry *prometheus.Registry) (*RequestMetrics, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &RequestMetrics{
		registry: registry,
		requests: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    RequestMetricName,
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "status", "outcome"},
		),
	}
	if err := registry.Register(m.requests); err != nil {
		return nil, fmt.Errorf("register %s: %w", RequestMetricName, err)
	}
	return m, nil
}

// Observe records one completed request.
func (m *RequestMetrics) Observe(route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(status), outcome(status)).Observe(elapsed.Seconds())
}

// CumulativeRequestCount returns the number of requests recorded so far.
func (m *RequestMetrics) CumulativeRequestCount() (float64, error) {
	t, err := m.totals()
	return t.count, err
}

// CumulativeRequestTime returns the summed latency in seconds.
func (m *RequestMetrics) CumulativeRequestTime() (float64, error) {
	t, err := m.totals()
	return t.seconds, err
}

// CumulativeServerErrorCount returns requests with a 5xx status.
func (m *RequestMetrics) CumulativeServerErrorCount() (float64, error) {
	t, err := m.totals()
	if err != nil {
		return 0, err
	}
	if !t.sawServerError {
		return 0, ErrNoData
	}
	return t.serverErrors, nil
}

type requestTotals struct {
	count          float64
	seconds        float64
	serverErrors   float64
	sawServerError bool
}

func (m *RequestMetrics) totals() (requestTotals, error) {
	var t requestTotals

	families, err := m.registry.Gather()
	if err != nil {
		return t, fmt.Errorf("gather: %w", err)
	}

	var family *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == RequestMetricName {
			family = mf
			break
		}
	}
	if family == nil || len(family.GetMetric()) == 0 {
		return t, ErrNoData
	}

	for _, metric := range family.GetMetric() {
		h := metric.GetHistogram()
		if h == nil {
			continue
		}
		count := float64(h.GetSampleCount())
		t.count += count
		t.seconds += h.GetSampleSum()
		if labelValue(metric, "outcome") == OutcomeServerError {
			t.serverErrors += count
			t.sawServerError = true
		}
	}
	return t, nil
}

func labelValue(metric *dto.Metric, name string) string {
	for _, lp := range metric.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func outcome(status int) string {
	switch {
	case status >= 100 && status < 200:
		return OutcomeInformational
	case status >= 200 && status < 300:
		return OutcomeSuccess
	case status >= 300 && status < 400:
		return OutcomeRedirection
	case status >= 400 && status < 500:
		return OutcomeClientError
	case status >= 500 && status < 600:
		return OutcomeServerError
	default:
		return OutcomeUnknown
	}
}
