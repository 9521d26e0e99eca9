package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	reconcileTotal   *prometheus.CounterVec
	reconcileLatency prometheus.Histogram
	driftCorrections *prometheus.CounterVec
	triggerTotal     *prometheus.CounterVec
	emailTotal       *prometheus.CounterVec
	watchesActive    prometheus.Gauge
	feedEvents       *prometheus.CounterVec
	completions      prometheus.Counter
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide metrics once.
func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("prometheus metrics initialized")
		}
	})
	return instance
}

func Current() *Metrics {
	return instance
}

// NewMetrics registers a fresh metric set on its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mystery_api_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mystery_api_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "mystery_api_inflight_requests",
			Help: "HTTP requests currently being served.",
		}),
		reconcileTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mystery_reconcile_total",
			Help: "Status reconciliations by resulting status and decision path.",
		}, []string{"status", "path"}),
		reconcileLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "mystery_reconcile_duration_seconds",
			Help:    "Time spent reconciling one status.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		driftCorrections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mystery_drift_corrections_total",
			Help: "Status rows rewritten to completed because content was already complete.",
		}, []string{"result"}),
		triggerTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mystery_generation_trigger_total",
			Help: "StartOrResume outcomes.",
		}, []string{"outcome"}),
		emailTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mystery_email_send_total",
			Help: "Emails sent by kind and result.",
		}, []string{"kind", "result"}),
		watchesActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "mystery_watch_sessions_active",
			Help: "Open status watch sessions.",
		}),
		feedEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mystery_feed_events_total",
			Help: "Change notifications by source.",
		}, []string{"source"}),
		completions: f.NewCounter(prometheus.CounterOpts{
			Name: "mystery_first_completions_total",
			Help: "First-completion handler runs.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

// CountAPI records a request without latency, for streams whose duration is
// the client's session length.
func (m *Metrics) CountAPI(method, route, status string) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
}

func (m *Metrics) ObserveReconcile(status, path string, dur time.Duration) {
	if m == nil {
		return
	}
	m.reconcileTotal.WithLabelValues(status, path).Inc()
	m.reconcileLatency.Observe(dur.Seconds())
}

func (m *Metrics) IncDriftCorrection(ok bool) {
	if m == nil {
		return
	}
	result := "written"
	if !ok {
		result = "write_failed"
	}
	m.driftCorrections.WithLabelValues(result).Inc()
}

func (m *Metrics) IncTrigger(outcome string) {
	if m == nil {
		return
	}
	m.triggerTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncEmail(kind string, ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.emailTotal.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) WatchOpened() {
	if m == nil {
		return
	}
	m.watchesActive.Inc()
}

func (m *Metrics) WatchClosed() {
	if m == nil {
		return
	}
	m.watchesActive.Dec()
}

func (m *Metrics) IncFeedEvent(source string) {
	if m == nil {
		return
	}
	m.feedEvents.WithLabelValues(source).Inc()
}

func (m *Metrics) IncFirstCompletion() {
	if m == nil {
		return
	}
	m.completions.Inc()
}
