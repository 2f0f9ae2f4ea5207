// Package metrics exposes Prometheus metrics for assemblies and HTTP traffic.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	guide2pdf "github.com/alnah/go-guide2pdf"
)

// Namespace prefixes every metric name.
const Namespace = "guide2pdf"

// Assembly outcomes used as label values.
const (
	OutcomeOK          = "ok"
	OutcomeClientError = "client_error"
	OutcomeError       = "error"
)

// Compile-time interface check.
var _ guide2pdf.Recorder = (*Collector)(nil)

// Collector owns a private registry and the service's metric vectors.
type Collector struct {
	registry *prometheus.Registry

	AssembliesTotal     *prometheus.CounterVec
	AssemblyDuration    *prometheus.HistogramVec
	AssemblySegments    prometheus.Histogram
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ConverterPoolSize   prometheus.Gauge
}

// New creates a Collector with Go runtime and process collectors registered.
func New() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		AssembliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "assemblies_total",
			Help:      "Total number of assembly requests by outcome",
		}, []string{"outcome", "stage"}),
		AssemblyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "assembly_duration_seconds",
			Help:      "Duration of assembly requests in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),
		AssemblySegments: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "assembly_segments",
			Help:      "Number of segments rendered per assembly",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		ConverterPoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "converter_pool_size",
			Help:      "Maximum number of concurrent browser converters",
		}),
	}

	reg.MustRegister(
		c.AssembliesTotal,
		c.AssemblyDuration,
		c.AssemblySegments,
		c.HTTPRequestsTotal,
		c.HTTPRequestDuration,
		c.ConverterPoolSize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveAssembly records one finished assembly.
func (c *Collector) ObserveAssembly(err error, segments int, elapsed time.Duration) {
	outcome := Outcome(err)
	stage := ""
	var se *guide2pdf.StageError
	if errors.As(err, &se) {
		stage = string(se.Stage)
	}

	c.AssembliesTotal.WithLabelValues(outcome, stage).Inc()
	c.AssemblyDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if segments > 0 {
		c.AssemblySegments.Observe(float64(segments))
	}
}

// RecordHTTPRequest records an HTTP request. path should be the route
// pattern, not the raw URL, to keep label cardinality bounded.
func (c *Collector) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	c.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	c.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetConverterPoolSize publishes the converter pool capacity.
func (c *Collector) SetConverterPoolSize(n int) {
	c.ConverterPoolSize.Set(float64(n))
}

// Outcome classifies an assembly error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case guide2pdf.IsClientError(err):
		return OutcomeClientError
	default:
		return OutcomeError
	}
}
