package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
	ResultSkipped  = "skipped"
)

// Registry owns the service collectors. Each Registry has its own prometheus
// registry so tests can build as many as they like.
type Registry struct {
	reg *prometheus.Registry

	Transitions   *prometheus.CounterVec
	Settlements   *prometheus.CounterVec
	Uploads       *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ideanest",
			Name:      "negotiation_transitions_total",
			Help:      "Negotiation record transitions by event type and result.",
		}, []string{"transition", "result"}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ideanest",
			Name:      "settlement_transactions_total",
			Help:      "On-chain settlement calls by contract method and result.",
		}, []string{"method", "result"}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ideanest",
			Name:      "document_uploads_total",
			Help:      "MOU document uploads by result.",
		}, []string{"result"}),
		HTTPDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ideanest",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.Transitions, r.Settlements, r.Uploads, r.HTTPDurations,
	)
	return r
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// The helpers below accept a nil receiver so services can run without metrics.

func (r *Registry) Transition(event, result string) {
	if r == nil {
		return
	}
	r.Transitions.WithLabelValues(event, result).Inc()
}

func (r *Registry) Settlement(method, result string) {
	if r == nil {
		return
	}
	r.Settlements.WithLabelValues(method, result).Inc()
}

func (r *Registry) Upload(result string) {
	if r == nil {
		return
	}
	r.Uploads.WithLabelValues(result).Inc()
}

func (r *Registry) ObserveHTTP(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.HTTPDurations.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// ResultOf classifies an operation outcome for a result label.
// Rejected covers errors the caller caused; everything else is an error.
func ResultOf(err error, rejected func(error) bool) string {
	switch {
	case err == nil:
		return ResultOK
	case rejected != nil && rejected(err):
		return ResultRejected
	}
	return ResultError
}
