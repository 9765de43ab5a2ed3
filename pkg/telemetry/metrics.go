// Package telemetry exposes Prometheus metrics and OpenTelemetry tracing for
// navigation containers.
//
// A nil *Metrics is valid and records nothing, so containers can be built
// without any metrics registry.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the navigation metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "navstate").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the navigation metrics.
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

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "navstate",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Dispatch outcomes.
const (
	OutcomeChanged = "changed"
	OutcomeNoop    = "noop"
)

// Startup sources.
const (
	SourceFresh     = "fresh"
	SourcePersisted = "persisted"
	SourceURL       = "url"
)

// Metrics holds the Prometheus collectors for navigation containers.
type Metrics struct {
	dispatches         *prometheus.CounterVec
	persistWrites      *prometheus.CounterVec
	persistLoads       *prometheus.CounterVec
	hydrationRecovered prometheus.Counter
	startups           *prometheus.CounterVec
	statefulContainers prometheus.Gauge
	listeners          prometheus.Gauge
}

// NewMetrics registers the navigation collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatches_total",
			Help:        "Actions dispatched to stateful containers, by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		persistWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "persist_writes_total",
			Help:        "Snapshot writes, by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		persistLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "persist_loads_total",
			Help:        "Snapshot loads, by result (hit, miss, malformed, error)",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		hydrationRecovered: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hydration_recoveries_total",
			Help:        "Render failures of restored state that triggered a reset",
			ConstLabels: config.ConstLabels,
		}),

		startups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "startups_total",
			Help:        "Completed container startups, by state source",
			ConstLabels: config.ConstLabels,
		}, []string{"source"}),

		statefulContainers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stateful_containers",
			Help:        "Mounted containers that own their navigation state",
			ConstLabels: config.ConstLabels,
		}),

		listeners: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "action_listeners",
			Help:        "Registered action listeners across containers",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// ObserveDispatch counts one dispatch.
func (m *Metrics) ObserveDispatch(changed bool) {
	if m == nil {
		return
	}
	if changed {
		m.dispatches.WithLabelValues(OutcomeChanged).Inc()
	} else {
		m.dispatches.WithLabelValues(OutcomeNoop).Inc()
	}
}

// ObservePersist counts one snapshot write.
func (m *Metrics) ObservePersist(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.persistWrites.WithLabelValues(status).Inc()
}

// ObserveLoad counts one snapshot load.
func (m *Metrics) ObserveLoad(result string) {
	if m == nil {
		return
	}
	m.persistLoads.WithLabelValues(result).Inc()
}

// ObserveRecovery counts one hydration recovery.
func (m *Metrics) ObserveRecovery() {
	if m == nil {
		return
	}
	m.hydrationRecovered.Inc()
}

// ObserveStartup counts one completed startup.
func (m *Metrics) ObserveStartup(source string) {
	if m == nil {
		return
	}
	m.startups.WithLabelValues(source).Inc()
}

// SetStatefulContainers records the mounted stateful container count.
func (m *Metrics) SetStatefulContainers(n int64) {
	if m == nil {
		return
	}
	m.statefulContainers.Set(float64(n))
}

// AddListeners adjusts the registered listener gauge by delta.
func (m *Metrics) AddListeners(delta int) {
	if m == nil {
		return
	}
	m.listeners.Add(float64(delta))
}
