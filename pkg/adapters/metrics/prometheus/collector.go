package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements ports.MetricsCollector using Prometheus.
type Collector struct {
	pluginsLaunched   prometheus.Counter
	pluginsCompleted  *prometheus.CounterVec
	pluginDuration    *prometheus.HistogramVec
	dependencyChecks  *prometheus.CounterVec
	killsTotal        prometheus.Counter
	activeJobs        prometheus.Gauge
	storedResults     prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector.
func NewCollector() *Collector {
	return &Collector{
		pluginsLaunched: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "plexo_plugins_launched_total",
				Help: "Total number of plugin execution units launched",
			},
		),
		pluginsCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plexo_plugins_completed_total",
				Help: "Total number of plugin execution units finished",
			},
			[]string{"status"},
		),
		pluginDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "plexo_plugin_duration_seconds",
				Help:    "Plugin execution duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"status"},
		),
		dependencyChecks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plexo_dependency_checks_total",
				Help: "Total number of plugin dependency gate checks",
			},
			[]string{"result"},
		),
		killsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "plexo_kills_total",
				Help: "Total number of forced job terminations",
			},
		),
		activeJobs: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "plexo_active_jobs",
				Help: "Number of currently tracked plugin jobs",
			},
		),
		storedResults: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "plexo_stored_results",
				Help: "Number of entries in the result registry",
			},
		),
	}
}

// RecordPluginLaunched counts a launched execution unit.
func (c *Collector) RecordPluginLaunched() {
	c.pluginsLaunched.Inc()
}

// RecordPluginCompleted counts a finished execution unit and records
// its duration.
func (c *Collector) RecordPluginCompleted(status string, duration time.Duration) {
	c.pluginsCompleted.WithLabelValues(status).Inc()
	c.pluginDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordDependencyCheck counts a dependency gate check by result.
func (c *Collector) RecordDependencyCheck(result string) {
	c.dependencyChecks.WithLabelValues(result).Inc()
}

// RecordKill counts a forced termination.
func (c *Collector) RecordKill() {
	c.killsTotal.Inc()
}

// SetActiveJobs sets the tracked job gauge.
func (c *Collector) SetActiveJobs(count int) {
	c.activeJobs.Set(float64(count))
}

// SetStoredResults sets the result registry gauge.
func (c *Collector) SetStoredResults(count int) {
	c.storedResults.Set(float64(count))
}
