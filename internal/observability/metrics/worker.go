package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	runTotal         *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	runInFlight      prometheus.Gauge
	queueLag         *prometheus.HistogramVec
	pagesTotal       *prometheus.CounterVec
	placeholderTotal *prometheus.CounterVec
	sweepStalled     *prometheus.CounterVec
	sweepRepublished *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	runTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pod",
			Subsystem: "worker",
			Name:      "extraction_runs_total",
			Help:      "Total finished extraction runs by outcome.",
		},
		[]string{"service", "status"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pod",
			Subsystem: "worker",
			Name:      "extraction_run_duration_seconds",
			Help:      "Extraction run duration in seconds by outcome.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"service", "status"},
	)
	runInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pod",
			Subsystem: "worker",
			Name:      "extraction_runs_in_flight",
			Help:      "Number of extraction runs currently processing.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pod",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between document creation and extraction start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	pagesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pod",
			Subsystem: "worker",
			Name:      "pages_extracted_total",
			Help:      "Total pages persisted, including placeholders.",
		},
		[]string{"service"},
	)
	placeholderTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pod",
			Subsystem: "worker",
			Name:      "placeholder_pages_total",
			Help:      "Total pages persisted as placeholders after a failed attempt.",
		},
		[]string{"service"},
	)
	sweepStalled := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pod",
			Subsystem: "worker",
			Name:      "sweep_stalled_runs_total",
			Help:      "Total runs the sweeper found stalled.",
		},
		[]string{"service"},
	)
	sweepRepublished := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pod",
			Subsystem: "worker",
			Name:      "sweep_republished_total",
			Help:      "Total stalled documents republished for a fresh attempt.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		runTotal, runDuration, runInFlight, queueLag,
		pagesTotal, placeholderTotal, sweepStalled, sweepRepublished,
	)

	return &WorkerMetrics{
		registry:         registry,
		runTotal:         runTotal,
		runDuration:      runDuration,
		runInFlight:      runInFlight,
		queueLag:         queueLag,
		pagesTotal:       pagesTotal,
		placeholderTotal: placeholderTotal,
		sweepStalled:     sweepStalled,
		sweepRepublished: sweepRepublished,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRun() {
	m.runInFlight.Inc()
}

func (m *WorkerMetrics) FinishRun(service string, duration time.Duration, err error) {
	m.runInFlight.Dec()

	status := "completed"
	if err != nil {
		status = "failed"
	}

	m.runTotal.WithLabelValues(service, status).Inc()
	m.runDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) PageExtracted(service string) {
	m.pagesTotal.WithLabelValues(service).Inc()
}

func (m *WorkerMetrics) PlaceholderWritten(service string) {
	m.pagesTotal.WithLabelValues(service).Inc()
	m.placeholderTotal.WithLabelValues(service).Inc()
}

func (m *WorkerMetrics) SweepObserved(service string, stalled, republished int) {
	if stalled > 0 {
		m.sweepStalled.WithLabelValues(service).Add(float64(stalled))
	}
	if republished > 0 {
		m.sweepRepublished.WithLabelValues(service).Add(float64(republished))
	}
}
