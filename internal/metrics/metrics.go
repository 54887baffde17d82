// Package metrics records scan statistics on a private Prometheus registry and
// writes them in the node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "netscope"

// Collector holds the scan metrics. A nil *Collector is valid and records
// nothing.
type Collector struct {
	registry      *prometheus.Registry
	probes        *prometheus.CounterVec
	liveHosts     prometheus.Counter
	probeDuration prometheus.Histogram
	sweepDuration *prometheus.GaugeVec
	interfaces    prometheus.Gauge
}

// New creates a Collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Echo probes sent, by result.",
		}, []string{"result"}),
		liveHosts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_hosts_total",
			Help:      "Addresses that answered an echo probe.",
		}),
		probeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Wall time of a single probe including reverse lookup.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2, 5},
		}),
		sweepDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Wall time of the sweep of one interface scope.",
		}, []string{"interface"}),
		interfaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "interfaces_discovered",
			Help:      "IPv4 interfaces found by the last enumeration.",
		}),
	}
	c.registry.MustRegister(c.probes, c.liveHosts, c.probeDuration, c.sweepDuration, c.interfaces)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveProbe records one finished probe.
func (c *Collector) ObserveProbe(live bool, d time.Duration) {
	if c == nil {
		return
	}
	result := "no_reply"
	if live {
		result = "live"
		c.liveHosts.Inc()
	}
	c.probes.WithLabelValues(result).Inc()
	c.probeDuration.Observe(d.Seconds())
}

// ObserveSweep records the duration of the sweep of one interface.
func (c *Collector) ObserveSweep(iface string, d time.Duration) {
	if c == nil {
		return
	}
	c.sweepDuration.WithLabelValues(iface).Set(d.Seconds())
}

// SetInterfaces records the number of enumerated interfaces.
func (c *Collector) SetInterfaces(n int) {
	if c == nil {
		return
	}
	c.interfaces.Set(float64(n))
}

// WriteTextfile atomically writes every metric to path for the node_exporter
// textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, c.registry)
}
