package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// CartMetrics exports cart, persistence and HTTP counters.
type CartMetrics struct {
	events       *prometheus.CounterVec
	persistence  *prometheus.CounterVec
	promotions   *prometheus.CounterVec
	requests     *prometheus.HistogramVec
	purgeRuns    *prometheus.CounterVec
	purgedCarts  prometheus.Counter
	purgeLatency prometheus.Histogram
}

// NewCartMetrics registers the collectors on reg. A nil reg yields a no-op
// recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	m := &CartMetrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_events_total",
			Help:      "Committed cart mutations by event kind.",
		}, []string{"kind"}),
		persistence: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_persistence_failures_total",
			Help:      "Cart snapshot load/save failures swallowed by the persister.",
		}, []string{"op"}),
		promotions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_apply_total",
			Help:      "Promotion apply attempts by outcome.",
		}, []string{"result"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		purgeRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_purge_runs_total",
			Help:      "Expired cart snapshot purge runs by outcome.",
		}, []string{"result"}),
		purgedCarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_purged_snapshots_total",
			Help:      "Expired cart snapshots deleted.",
		}),
		purgeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cart_purge_duration_seconds",
			Help:      "Duration of expired cart snapshot purges.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.events, m.persistence, m.promotions, m.requests, m.purgeRuns, m.purgedCarts, m.purgeLatency)
	return m
}

// IncEvent counts a committed cart event.
func (m *CartMetrics) IncEvent(kind string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(kind)).Inc()
	switch kind {
	case "promotion_applied":
		m.promotions.WithLabelValues("applied").Inc()
	case "promotion_rejected":
		m.promotions.WithLabelValues("rejected").Inc()
	}
}

// IncPersistenceFailure counts a swallowed persistence error.
func (m *CartMetrics) IncPersistenceFailure(op string) {
	if m == nil || m.persistence == nil {
		return
	}
	m.persistence.WithLabelValues(normalizeLabel(op)).Inc()
}

// ObserveRequest records one served HTTP request.
func (m *CartMetrics) ObserveRequest(route, method string, status int, duration time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(normalizeLabel(route), method, strconv.Itoa(status)).Observe(duration.Seconds())
}

// ObservePurge records one expired snapshot purge.
func (m *CartMetrics) ObservePurge(deleted int64, duration time.Duration, err error) {
	if m == nil || m.purgeRuns == nil {
		return
	}
	m.purgeLatency.Observe(duration.Seconds())
	if err != nil {
		m.purgeRuns.WithLabelValues("failure").Inc()
		return
	}
	m.purgeRuns.WithLabelValues("success").Inc()
	m.purgedCarts.Add(float64(deleted))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
