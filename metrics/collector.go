// Package metrics exposes prometheus counters for backend binding, backend
// calls and the attribute cache. A nil *Collector is valid and records nothing.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultAbsent  = "absent"
	ResultSkipped = "skipped"
)

// Collector owns a registry with all adapter metrics.
type Collector struct {
	registry *prometheus.Registry

	moduleLoads    *prometheus.CounterVec
	resolutions    *prometheus.CounterVec
	backendCalls   *prometheus.CounterVec
	attributeSyncs *prometheus.CounterVec
	attributeReads *prometheus.CounterVec
}

var (
	defaultOnce      sync.Once
	defaultCollector *Collector
)

// Default returns the process-wide collector.
func Default() *Collector {
	defaultOnce.Do(func() {
		defaultCollector = NewCollector("dfs")
	})
	return defaultCollector
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		moduleLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "module_loads_total",
			Help:      "Backend modules opened, by protocol and result.",
		}, []string{"protocol", "result"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "binding",
			Name:      "resolutions_total",
			Help:      "Binding table resolutions, by protocol, entity and result.",
		}, []string{"protocol", "entity", "result"}),
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "binding",
			Name:      "calls_total",
			Help:      "Calls into bound backend operations, by protocol, operation and result.",
		}, []string{"protocol", "operation", "result"}),
		attributeSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attributes",
			Name:      "syncs_total",
			Help:      "Attribute synchronisations with the backend, by protocol and result.",
		}, []string{"protocol", "result"}),
		attributeReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attributes",
			Name:      "reads_total",
			Help:      "Attribute reads, by protocol and whether the cache was fresh.",
		}, []string{"protocol", "state"}),
	}

	c.registry.MustRegister(
		c.moduleLoads,
		c.resolutions,
		c.backendCalls,
		c.attributeSyncs,
		c.attributeReads,
	)

	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ModuleLoad(protocol string, err error) {
	if c == nil {
		return
	}
	c.moduleLoads.WithLabelValues(protocol, resultOf(err)).Inc()
}

func (c *Collector) Resolution(protocol, entity, result string) {
	if c == nil {
		return
	}
	c.resolutions.WithLabelValues(protocol, entity, result).Inc()
}

func (c *Collector) BackendCall(protocol, operation string, err error) {
	if c == nil {
		return
	}
	c.backendCalls.WithLabelValues(protocol, operation, resultOf(err)).Inc()
}

func (c *Collector) AttributeSync(protocol, result string) {
	if c == nil {
		return
	}
	c.attributeSyncs.WithLabelValues(protocol, result).Inc()
}

func (c *Collector) AttributeRead(protocol, state string) {
	if c == nil {
		return
	}
	c.attributeReads.WithLabelValues(protocol, state).Inc()
}

// The *Counter accessors return single series, mainly for assertions.

func (c *Collector) ModuleLoadCounter(protocol, result string) prometheus.Counter {
	return c.moduleLoads.WithLabelValues(protocol, result)
}

func (c *Collector) ResolutionCounter(protocol, entity, result string) prometheus.Counter {
	return c.resolutions.WithLabelValues(protocol, entity, result)
}

func (c *Collector) BackendCallCounter(protocol, operation, result string) prometheus.Counter {
	return c.backendCalls.WithLabelValues(protocol, operation, result)
}

func (c *Collector) AttributeSyncCounter(protocol, result string) prometheus.Counter {
	return c.attributeSyncs.WithLabelValues(protocol, result)
}

func resultOf(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
