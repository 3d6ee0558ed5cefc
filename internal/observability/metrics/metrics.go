package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for the scheduling flows.
type SchedulingMetrics struct {
	requestsTotal   *prometheus.CounterVec
	offersComputed  prometheus.Counter
	dedupReplays    prometheus.Counter
	needsHuman      *prometheus.CounterVec
	calendarLatency *prometheus.HistogramVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dispatch",
			Subsystem: "scheduling",
			Name:      "requests_total",
			Help:      "Total scheduling requests by operation and outcome",
		}, []string{"operation", "outcome"}),
		offersComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dispatch",
			Subsystem: "scheduling",
			Name:      "offers_computed_total",
			Help:      "Total slot offers returned to callers",
		}),
		dedupReplays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dispatch",
			Subsystem: "scheduling",
			Name:      "dedup_replays_total",
			Help:      "Requests answered from a completed idempotency claim",
		}),
		needsHuman: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dispatch",
			Subsystem: "scheduling",
			Name:      "needs_human_total",
			Help:      "Requests handed off to human dispatch by reason",
		}, []string{"reason"}),
		calendarLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dispatch",
			Subsystem: "odoo",
			Name:      "call_latency_seconds",
			Help:      "Latency of Odoo calendar calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.offersComputed, m.dedupReplays, m.needsHuman, m.calendarLatency)
	return m
}

func (m *SchedulingMetrics) ObserveRequest(operation, outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *SchedulingMetrics) ObserveOffers(count int) {
	if m == nil {
		return
	}
	m.offersComputed.Add(float64(count))
}

func (m *SchedulingMetrics) ObserveDedupReplay() {
	if m == nil {
		return
	}
	m.dedupReplays.Inc()
}

func (m *SchedulingMetrics) ObserveNeedsHuman(reason string) {
	if m == nil {
		return
	}
	m.needsHuman.WithLabelValues(reason).Inc()
}

func (m *SchedulingMetrics) ObserveCalendarLatency(method string, seconds float64) {
	if m == nil {
		return
	}
	m.calendarLatency.WithLabelValues(method).Observe(seconds)
}
