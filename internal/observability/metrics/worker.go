package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge

	stageDuration      *prometheus.HistogramVec
	stageFallbackTotal *prometheus.CounterVec
	pageOutcomesTotal  *prometheus.CounterVec
	ocrDuration        *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docpipe",
			Subsystem: "worker",
			Name:      "document_process_total",
			Help:      "Total processed documents by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docpipe",
			Subsystem: "worker",
			Name:      "document_process_duration_seconds",
			Help:      "Document processing duration in seconds by status.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docpipe",
			Subsystem: "worker",
			Name:      "document_process_in_flight",
			Help:      "Number of in-flight document processing tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docpipe",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "LLM stage duration in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"service", "stage"},
	)
	stageFallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docpipe",
			Subsystem: "pipeline",
			Name:      "stage_fallback_total",
			Help:      "Total stages that produced their fallback output.",
		},
		[]string{"service", "stage"},
	)
	pageOutcomesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docpipe",
			Subsystem: "pipeline",
			Name:      "page_outcomes_total",
			Help:      "Total processed pages by outcome.",
		},
		[]string{"service", "outcome"},
	)
	ocrDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docpipe",
			Subsystem: "ocr",
			Name:      "duration_seconds",
			Help:      "OCR call duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 32, 64, 128},
		},
		[]string{"service", "vendor"},
	)

	registry.MustRegister(
		processTotal,
		processDuration,
		processInFlight,
		stageDuration,
		stageFallbackTotal,
		pageOutcomesTotal,
		ocrDuration,
	)

	return &WorkerMetrics{
		registry:           registry,
		processTotal:       processTotal,
		processDuration:    processDuration,
		processInFlight:    processInFlight,
		stageDuration:      stageDuration,
		stageFallbackTotal: stageFallbackTotal,
		pageOutcomesTotal:  pageOutcomesTotal,
		ocrDuration:        ocrDuration,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDocument() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishDocument(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

// PipelineObserver returns the observer wired into the LLM pipeline and the
// page processor. The OCR vendor is fixed per deployment, so it is bound
// here rather than threaded through every page.
func (m *WorkerMetrics) PipelineObserver(service, ocrVendor string) *WorkerPipelineObserver {
	if ocrVendor == "" {
		ocrVendor = "unknown"
	}
	return &WorkerPipelineObserver{metrics: m, service: service, ocrVendor: ocrVendor}
}

type WorkerPipelineObserver struct {
	metrics   *WorkerMetrics
	service   string
	ocrVendor string
}

func (o *WorkerPipelineObserver) ObserveStage(stage string, duration time.Duration, fallback bool) {
	if stage == "" {
		stage = "unknown"
	}
	o.metrics.stageDuration.WithLabelValues(o.service, stage).Observe(duration.Seconds())
	if fallback {
		o.metrics.stageFallbackTotal.WithLabelValues(o.service, stage).Inc()
	}
}

func (o *WorkerPipelineObserver) ObservePage(success bool) {
	o.metrics.pageOutcomesTotal.WithLabelValues(o.service, pageOutcomeLabel(success)).Inc()
}

func (o *WorkerPipelineObserver) ObserveOCR(duration time.Duration) {
	o.metrics.ocrDuration.WithLabelValues(o.service, o.ocrVendor).Observe(duration.Seconds())
}
