package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	WebhookRequests     *prometheus.CounterVec
	PipelineFailures    *prometheus.CounterVec
	ReplyLatency        prometheus.Histogram
	SimulatedSends      prometheus.Counter
	UnverifiedRequests  prometheus.Counter
	DashboardRequests   *prometheus.CounterVec
	ActiveStreamClients prometheus.Gauge
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		WebhookRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_requests_total",
			Help:      "Webhook deliveries by outcome.",
		}, []string{"outcome"}),
		PipelineFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_failures_total",
			Help:      "Pipeline failures by stage.",
		}, []string{"stage"}),
		ReplyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reply_latency_ms",
			Help:      "End-to-end latency of a processed webhook delivery in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}),
		SimulatedSends: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulated_sends_total",
			Help:      "Outbound messages handled by the development fallback instead of the Graph API.",
		}),
		UnverifiedRequests: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unverified_requests_total",
			Help:      "Webhook deliveries accepted without signature verification.",
		}),
		DashboardRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_requests_total",
			Help:      "Dashboard API requests by endpoint.",
		}, []string{"endpoint"}),
		ActiveStreamClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_stream_clients",
			Help:      "Connected dashboard websocket clients.",
		}),
	}
}

func (m *Metrics) ObserveReplyLatency(d time.Duration) {
	m.ReplyLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
