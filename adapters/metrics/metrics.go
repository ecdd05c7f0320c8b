// Package metrics provides Prometheus metrics collection for the lookup
// service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Item outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
	OutcomeDenied = "denied"
)

// Collector holds all Prometheus metrics for the lookup service.
// A nil *Collector records nothing.
type Collector struct {
	// Lookup metrics
	LookupsTotal    *prometheus.CounterVec
	LookupDuration  *prometheus.HistogramVec
	LookupsInFlight prometheus.Gauge
	ItemsTotal      *prometheus.CounterVec
	ScopeFailures   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		LookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lookup",
				Name:      "requests_total",
				Help:      "Total number of lookup requests by kind and result",
			},
			[]string{"kind", "result"},
		),
		LookupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "lookup",
				Name:      "request_duration_seconds",
				Help:      "Lookup duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"kind"},
		),
		LookupsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lookup",
				Name:      "requests_in_flight",
				Help:      "Number of lookups currently being processed",
			},
		),
		ItemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lookup",
				Name:      "items_total",
				Help:      "Total number of request items by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		ScopeFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lookup",
				Name:      "scope_failures_total",
				Help:      "Total number of skipped scopes",
			},
			[]string{"entity", "reason"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lookup",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lookup",
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lookup",
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lookup",
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// Begin marks a lookup as started and returns a func recording its end.
func (c *Collector) Begin(kind string) func(err error) {
	if c == nil {
		return func(error) {}
	}
	start := time.Now()
	c.LookupsInFlight.Inc()
	return func(err error) {
		c.LookupsInFlight.Dec()
		result := "ok"
		if err != nil {
			result = "error"
		}
		c.LookupsTotal.WithLabelValues(kind, result).Inc()
		c.LookupDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}
}

// Item counts one processed request item.
func (c *Collector) Item(kind, outcome string) {
	if c == nil {
		return
	}
	c.ItemsTotal.WithLabelValues(kind, outcome).Inc()
}

// ScopeFailure counts one skipped scope.
func (c *Collector) ScopeFailure(entity, reason string) {
	if c == nil {
		return
	}
	c.ScopeFailures.WithLabelValues(entity, reason).Inc()
}

// HTTPRequest counts one served HTTP request.
func (c *Collector) HTTPRequest(method, route, status string) {
	if c == nil {
		return
	}
	c.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
}

// Reloaded records the outcome of a config reload.
func (c *Collector) Reloaded(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
	c.ConfigLastReload.SetToCurrentTime()
}
