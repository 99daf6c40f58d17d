// Package metrics is a plugin that instruments every dispatched request
// with Prometheus counters and latency histograms and serves the
// scrape endpoint.
//
// The collector registry is shared as the "metrics:registry" service so
// other plugins can register their own collectors on it.
//
//	app := relay.New(
//	    relay.WithPlugins(metrics.New()),
//	)
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relayhttp/relay/internal"
)

// PluginName is the registration name of the metrics plugin.
const PluginName = "metrics"

// DefaultEndpoint is the default scrape endpoint path.
const DefaultEndpoint = "/metrics"

// Config configures the metrics plugin.
type Config struct {
	// Endpoint is the scrape endpoint path. Defaults to "/metrics".
	Endpoint string

	// Namespace prefixes all metric names.
	Namespace string

	// Buckets are the latency histogram buckets in seconds.
	// Defaults to prometheus.DefBuckets.
	Buckets []float64
}

// Option configures Config.
type Option func(*Config)

// WithEndpoint sets the scrape endpoint path.
func WithEndpoint(path string) Option {
	return func(cfg *Config) {
		cfg.Endpoint = path
	}
}

// WithNamespace prefixes all metric names.
func WithNamespace(ns string) Option {
	return func(cfg *Config) {
		cfg.Namespace = ns
	}
}

// WithBuckets sets the latency histogram buckets in seconds.
func WithBuckets(buckets ...float64) Option {
	return func(cfg *Config) {
		cfg.Buckets = buckets
	}
}

// New creates the metrics plugin.
func New(opts ...Option) *internal.Plugin {
	cfg := &Config{
		Endpoint: DefaultEndpoint,
		Buckets:  prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &internal.Plugin{
		Metadata: internal.PluginMetadata{
			Name:        PluginName,
			Version:     "1.0.0",
			Description: "request counters, latency histograms, and the Prometheus scrape endpoint",
			Tags:        []string{"observability"},
		},
		Register: func(_ context.Context, pc *internal.PluginContext) error {
			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			requests := prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "http_requests_total",
				Help:      "Total dispatched HTTP requests.",
			}, []string{"method", "route", "status"})

			latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds.",
				Buckets:   cfg.Buckets,
			}, []string{"method", "route"})

			registry.MustRegister(requests, latency)

			pc.Use(instrument(requests, latency))
			pc.Router().Mount(cfg.Endpoint, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			pc.RegisterService("registry", registry)

			return nil
		},
	}
}

// instrument records one observation per request. The route pattern is
// the label, not the raw path, so parameterized routes stay at one
// series per route.
func instrument(requests *prometheus.CounterVec, latency *prometheus.HistogramVec) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			start := time.Now()
			err := next(c)

			route := "unmatched"
			if r := c.Route(); r != nil {
				route = r.Pattern()
			}

			requests.WithLabelValues(
				c.Method(),
				route,
				strconv.Itoa(c.Response().StatusCode()),
			).Inc()
			latency.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// Registry resolves the shared collector registry from an application.
// Returns nil when the metrics plugin is not registered.
func Registry(app *internal.App) *prometheus.Registry {
	if v, ok := app.Service(PluginName + ":registry"); ok {
		if reg, ok := v.(*prometheus.Registry); ok {
			return reg
		}
	}
	return nil
}
