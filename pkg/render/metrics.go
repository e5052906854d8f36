package render

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/timothycrosley/blox/internal/errors"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "blox").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures NewMetrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "blox",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records render, build and compile activity.
//
// Collected series:
//   - blox_renders_total: renders by template and status
//   - blox_render_duration_seconds: render duration by template
//   - blox_render_bytes_total: bytes of markup written by template
//   - blox_errors_total: failures by stage and error code
//   - blox_builds_total: template builds by template and status
//   - blox_compiles_total: template compilations by template and status
//   - blox_compile_duration_seconds: compilation duration
type Metrics struct {
	rendersTotal    *prometheus.CounterVec
	renderDuration  *prometheus.HistogramVec
	renderBytes     *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	buildsTotal     *prometheus.CounterVec
	compilesTotal   *prometheus.CounterVec
	compileDuration prometheus.Histogram
}

// NewMetrics creates and registers the collectors. Registering twice with
// the same registry panics, so create one Metrics per registry.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		rendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of node trees rendered",
			ConstLabels: config.ConstLabels,
		}, []string{"template", "status"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"template"}),

		renderBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_bytes_total",
			Help:        "Total bytes of markup written",
			ConstLabels: config.ConstLabels,
		}, []string{"template"}),

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total failures by stage and error code",
			ConstLabels: config.ConstLabels,
		}, []string{"stage", "code"}),

		buildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "builds_total",
			Help:        "Total number of compiled templates built into trees",
			ConstLabels: config.ConstLabels,
		}, []string{"template", "status"}),

		compilesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "compiles_total",
			Help:        "Total number of template compilations",
			ConstLabels: config.ConstLabels,
		}, []string{"template", "status"}),

		compileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "compile_duration_seconds",
			Help:        "Template compilation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveRender records one render of template.
func (m *Metrics) ObserveRender(template string, d time.Duration, bytes int64, err error) {
	if m == nil {
		return
	}
	m.renderDuration.WithLabelValues(template).Observe(d.Seconds())
	m.renderBytes.WithLabelValues(template).Add(float64(bytes))
	m.rendersTotal.WithLabelValues(template, status(err)).Inc()
	if err != nil {
		m.errorsTotal.WithLabelValues("render", errors.Code(err)).Inc()
	}
}

// ObserveBuild records one Program.Build of template.
func (m *Metrics) ObserveBuild(template string, err error) {
	if m == nil {
		return
	}
	m.buildsTotal.WithLabelValues(template, status(err)).Inc()
	if err != nil {
		m.errorsTotal.WithLabelValues("build", errors.Code(err)).Inc()
	}
}

// ObserveCompile records one compilation of template.
func (m *Metrics) ObserveCompile(template string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.compileDuration.Observe(d.Seconds())
	m.compilesTotal.WithLabelValues(template, status(err)).Inc()
	if err != nil {
		m.errorsTotal.WithLabelValues("compile", errors.Code(err)).Inc()
	}
}
