package llm

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors shared by all instrumented
// providers of a process.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the LLM collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "picwrite",
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Number of LLM requests by purpose, model and outcome.",
		}, []string{"purpose", "model", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "picwrite",
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "Duration of LLM requests.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 120},
		}, []string{"purpose", "model"}),
	}
}

// MetricsProvider is a decorator that records request counts and latency.
type MetricsProvider struct {
	inner   Provider
	metrics *Metrics
}

// WithMetrics wraps a Provider with Prometheus instrumentation.
// A nil Metrics returns p unchanged.
func WithMetrics(p Provider, m *Metrics) Provider {
	if m == nil {
		return p
	}
	return &MetricsProvider{inner: p, metrics: m}
}

func (m *MetricsProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := m.inner.Generate(ctx, req)

	purpose := string(PurposeFrom(ctx))
	model := m.inner.ModelID()
	if req.Model != "" {
		model = req.Model
	}
	outcome := "ok"
	if err != nil {
		outcome = string(Classify(err))
	}

	m.metrics.requests.WithLabelValues(purpose, model, outcome).Inc()
	m.metrics.duration.WithLabelValues(purpose, model).Observe(time.Since(start).Seconds())
	return resp, err
}

func (m *MetricsProvider) ModelID() string {
	return m.inner.ModelID()
}
