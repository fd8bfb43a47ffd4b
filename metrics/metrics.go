// Package metrics provides optional Prometheus instrumentation for the scan
// engine (SPEC_FULL section 1 expansion). A Scanner built without
// scanner.WithMetrics never touches this package.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ScanMetrics records counters and a duration histogram for Scanner.Scan
// calls.
type ScanMetrics struct {
	duration  prometheus.Histogram
	scans     *prometheus.CounterVec
	installed prometheus.Counter
	failed    prometheus.Counter
}

// New creates a ScanMetrics and registers its collectors with reg.
func New(reg prometheus.Registerer) *ScanMetrics {
	m := &ScanMetrics{
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pluginfw_scan_duration_seconds",
			Help:    "Time taken by a complete Scanner.Scan call.",
			Buckets: prometheus.DefBuckets,
		}),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pluginfw_scans_total",
			Help: "Number of Scanner.Scan calls, by outcome.",
		}, []string{"outcome"}),
		installed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pluginfw_plugins_installed_total",
			Help: "Number of plug-ins installed or upgraded across all scans.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pluginfw_plugins_failed_total",
			Help: "Number of per-plug-in failures (lookup, uninstall, install, restart) across all scans.",
		}),
	}
	reg.MustRegister(m.duration, m.scans, m.installed, m.failed)
	return m
}

// Observe records the duration and outcome of one Scan call.
func (m *ScanMetrics) Observe(elapsed time.Duration, ok bool) {
	m.duration.Observe(elapsed.Seconds())
	outcome := "error"
	if ok {
		outcome = "ok"
	}
	m.scans.WithLabelValues(outcome).Inc()
}

// AddInstalled increments the installed/upgraded counter by n.
func (m *ScanMetrics) AddInstalled(n int) {
	if n > 0 {
		m.installed.Add(float64(n))
	}
}

// AddFailed increments the per-plug-in failure counter by n.
func (m *ScanMetrics) AddFailed(n int) {
	if n > 0 {
		m.failed.Add(float64(n))
	}
}
