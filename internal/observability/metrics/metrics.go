package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LeadMetrics exposes counters/histograms for lead intake flows.
type LeadMetrics struct {
	createdTotal    *prometheus.CounterVec
	importRowsTotal *prometheus.CounterVec
	staleWrites     prometheus.Counter
	importDuration  prometheus.Histogram
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		createdTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadintake",
			Subsystem: "buyers",
			Name:      "created_total",
			Help:      "Total buyer records created",
		}, []string{"via"}),
		importRowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadintake",
			Subsystem: "imports",
			Name:      "rows_total",
			Help:      "Total CSV import rows by outcome",
		}, []string{"outcome"}),
		staleWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadintake",
			Subsystem: "buyers",
			Name:      "stale_writes_total",
			Help:      "Updates rejected by the concurrency check",
		}),
		importDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leadintake",
			Subsystem: "imports",
			Name:      "duration_seconds",
			Help:      "Latency of CSV import processing",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.createdTotal, m.importRowsTotal, m.staleWrites, m.importDuration)
	return m
}

// ObserveCreated counts a persisted buyer record. via is "form" or "import".
func (m *LeadMetrics) ObserveCreated(via string) {
	if m == nil {
		return
	}
	m.createdTotal.WithLabelValues(via).Inc()
}

// ObserveImportRows counts import rows by outcome ("imported", "invalid",
// "duplicate").
func (m *LeadMetrics) ObserveImportRows(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importRowsTotal.WithLabelValues(outcome).Add(float64(n))
}

// ObserveStaleWrite counts a rejected concurrent update.
func (m *LeadMetrics) ObserveStaleWrite() {
	if m == nil {
		return
	}
	m.staleWrites.Inc()
}

// ObserveImportDuration records how long one import batch took.
func (m *LeadMetrics) ObserveImportDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.importDuration.Observe(d.Seconds())
}
