package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one service on its own registry.
type Metrics struct {
	Registry          *prometheus.Registry
	HTTPDuration      *prometheus.HistogramVec
	SyndicationTotal  *prometheus.CounterVec
	SweepTransitions  *prometheus.CounterVec
	ListingOperations *prometheus.CounterVec
}

func New(serviceName string) *Metrics {
	registry := prometheus.NewRegistry()

	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "avto_sawda",
		Subsystem: serviceName,
		Name:      "http_request_duration_seconds",
		Help:      "Latency of HTTP requests by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	syndicationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "avto_sawda",
		Subsystem: serviceName,
		Name:      "syndication_operations_total",
		Help:      "Channel post/update/delete attempts by outcome.",
	}, []string{"action", "result"})

	sweepTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "avto_sawda",
		Subsystem: serviceName,
		Name:      "sweep_rows_total",
		Help:      "Rows touched by background jobs.",
	}, []string{"job"})

	listingOperations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "avto_sawda",
		Subsystem: serviceName,
		Name:      "listing_operations_total",
		Help:      "Listing lifecycle operations by kind.",
	}, []string{"operation"})

	registry.MustRegister(
		httpDuration,
		syndicationTotal,
		sweepTransitions,
		listingOperations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		Registry:          registry,
		HTTPDuration:      httpDuration,
		SyndicationTotal:  syndicationTotal,
		SweepTransitions:  sweepTransitions,
		ListingOperations: listingOperations,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// The helpers below are nil-safe so components can run without metrics in tests.

func (m *Metrics) Syndication(action, result string) {
	if m == nil {
		return
	}
	m.SyndicationTotal.WithLabelValues(action, result).Inc()
}

func (m *Metrics) Swept(job string, rows int64) {
	if m == nil || rows <= 0 {
		return
	}
	m.SweepTransitions.WithLabelValues(job).Add(float64(rows))
}

func (m *Metrics) Listing(operation string) {
	if m == nil {
		return
	}
	m.ListingOperations.WithLabelValues(operation).Inc()
}
