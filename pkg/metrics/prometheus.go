package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsComputed *prometheus.CounterVec
	tasksDropped    *prometheus.CounterVec
	tasksRetried    *prometheus.CounterVec
	alertsEmitted   *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	queueDepth      *prometheus.GaugeVec
	budgetRemaining *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsComputed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinpulse_signals_computed_total",
				Help: "Total number of signals computed",
			},
			[]string{"tier", "regime"},
		),
		tasksDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinpulse_tasks_dropped_total",
				Help: "Queue tasks dropped after retry exhaustion or load shedding",
			},
			[]string{"tier", "reason"},
		),
		tasksRetried: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinpulse_tasks_retried_total",
				Help: "Queue task retry attempts",
			},
			[]string{"tier"},
		),
		alertsEmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinpulse_alerts_emitted_total",
				Help: "Strong-signal alerts emitted",
			},
			[]string{"reason"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		queueDepth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coinpulse_queue_depth",
				Help: "Current queue depth per tier",
			},
			[]string{"tier"},
		),
		budgetRemaining: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coinpulse_budget_remaining",
				Help: "Remaining provider call budget",
			},
			[]string{"source", "window"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coinpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordSignalComputed(tier, regime string) {
	r.signalsComputed.WithLabelValues(tier, regime).Inc()
}

func (r *Recorder) RecordTaskDropped(tier, reason string) {
	r.tasksDropped.WithLabelValues(tier, reason).Inc()
}

func (r *Recorder) RecordTaskRetried(tier string) {
	r.tasksRetried.WithLabelValues(tier).Inc()
}

func (r *Recorder) RecordQueueDepth(tier string, depth int) {
	r.queueDepth.WithLabelValues(tier).Set(float64(depth))
}

func (r *Recorder) RecordBudgetRemaining(source string, today, month int) {
	r.budgetRemaining.WithLabelValues(source, "day").Set(float64(today))
	r.budgetRemaining.WithLabelValues(source, "month").Set(float64(month))
}

func (r *Recorder) RecordAlertEmitted(reason string) {
	r.alertsEmitted.WithLabelValues(reason).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
