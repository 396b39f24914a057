package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	counterValue  prometheus.Gauge
	perSecondRate prometheus.Gauge
	viewers       prometheus.Gauge
	ticksTotal    prometheus.Counter
	refreshTotal  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		counterValue: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "laborpulse_counter_value",
				Help: "Current displaced-jobs counter value",
			},
		),
		perSecondRate: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "laborpulse_per_second_rate",
				Help: "Current nowcast per-second rate",
			},
		),
		viewers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "laborpulse_connected_viewers",
				Help: "Number of connected websocket viewers",
			},
		),
		ticksTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "laborpulse_ticks_total",
				Help: "Total counter tick advances broadcast",
			},
		),
		refreshTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "laborpulse_refresh_total",
				Help: "Total measurement refresh cycles by result",
			},
			[]string{"result"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "laborpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "laborpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCounter records the current counter value and per-second rate.
func (r *Recorder) RecordCounter(value int64, perSecond float64) {
	r.counterValue.Set(float64(value))
	r.perSecondRate.Set(perSecond)
}

// RecordViewers records the number of connected viewers.
func (r *Recorder) RecordViewers(n int) {
	r.viewers.Set(float64(n))
}

// RecordTick records a broadcast tick.
func (r *Recorder) RecordTick() {
	r.ticksTotal.Inc()
}

// RecordRefresh records a refresh cycle outcome (ok, partial, failed).
func (r *Recorder) RecordRefresh(result string) {
	r.refreshTotal.WithLabelValues(result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
