// Package metrics exposes Prometheus counters for HTTP traffic and the
// purchase workflow.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services report business events through.
type Recorder interface {
	RecordTransition(transition, outcome string)
	RecordNotification(notificationType, outcome string)
}

type Collector struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	transitions   *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ideamarket_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ideamarket_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ideamarket_purchase_transitions_total",
			Help: "Purchase request transitions by kind and outcome.",
		}, []string{"transition", "outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ideamarket_notifications_emitted_total",
			Help: "Notifications emitted by type and outcome.",
		}, []string{"type", "outcome"}),
	}

	reg.MustRegister(c.httpRequests, c.httpDuration, c.transitions, c.notifications)
	return c
}

func (c *Collector) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, status).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) RecordTransition(transition, outcome string) {
	c.transitions.WithLabelValues(transition, outcome).Inc()
}

func (c *Collector) RecordNotification(notificationType, outcome string) {
	c.notifications.WithLabelValues(notificationType, outcome).Inc()
}

// Handler serves the metrics gathered by gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordTransition(string, string)   {}
func (Nop) RecordNotification(string, string) {}
