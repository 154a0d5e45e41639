package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics records restock notification fan-out outcomes.
type DispatchMetrics struct {
	duration   *prometheus.HistogramVec
	notified   *prometheus.CounterVec
	failed     *prometheus.CounterVec
	transition *prometheus.CounterVec
}

// NewDispatchMetrics registers the dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stock_notify_dispatch_duration_seconds",
		Help:    "Duration of restock notification fan-outs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"item_type"})
	notified := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_notify_subscribers_notified",
		Help: "Subscribers successfully notified per restock event.",
	}, []string{"item_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_notify_subscribers_failed",
		Help: "Per-subscriber notification units that failed and were skipped.",
	}, []string{"item_type"})
	transition := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "availability_restock_transitions",
		Help: "Detected unavailable-to-available transitions.",
	}, []string{"item_type"})
	reg.MustRegister(duration, notified, failed, transition)
	return &DispatchMetrics{
		duration:   duration,
		notified:   notified,
		failed:     failed,
		transition: transition,
	}
}

// ObserveDuration records how long a fan-out took for the given item type.
func (d *DispatchMetrics) ObserveDuration(itemType string, duration time.Duration) {
	if d == nil || d.duration == nil {
		return
	}
	d.duration.WithLabelValues(normalizeLabel(itemType)).Observe(duration.Seconds())
}

// IncNotified counts a subscriber whose notification unit committed.
func (d *DispatchMetrics) IncNotified(itemType string) {
	if d == nil || d.notified == nil {
		return
	}
	d.notified.WithLabelValues(normalizeLabel(itemType)).Inc()
}

// IncFailed counts a subscriber whose notification unit rolled back.
func (d *DispatchMetrics) IncFailed(itemType string) {
	if d == nil || d.failed == nil {
		return
	}
	d.failed.WithLabelValues(normalizeLabel(itemType)).Inc()
}

// IncTransition counts a detected restock transition.
func (d *DispatchMetrics) IncTransition(itemType string) {
	if d == nil || d.transition == nil {
		return
	}
	d.transition.WithLabelValues(normalizeLabel(itemType)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
