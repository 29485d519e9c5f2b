// Package metrics holds the Prometheus collectors for both pipelines.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "docintel"

	// Labels
	providerLabel = "provider"
	resultLabel   = "result"
	statusLabel   = "status"
	codeLabel     = "code"
)

// Recorder records pipeline outcomes. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	ocrCalls      *prometheus.CounterVec
	ocrLatency    *prometheus.HistogramVec
	uploadResults *prometheus.CounterVec
	scanResults   *prometheus.CounterVec
	scanLatency   prometheus.Histogram
	translated    prometheus.Counter
}

// New builds a Recorder on its own registry, with Go and process collectors included.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		ocrCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ocr_calls_total",
			Help:      "OCR provider calls partitioned by provider and result code.",
		}, []string{providerLabel, resultLabel}),
		ocrLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ocr_duration_seconds",
			Help:      "OCR provider call latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{providerLabel}),
		uploadResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "w9_uploads_total",
			Help:      "Upload pipeline runs partitioned by terminal status.",
		}, []string{statusLabel}),
		scanResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_requests_total",
			Help:      "On-demand scans partitioned by result code (OK on success).",
		}, []string{codeLabel}),
		scanLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "End-to-end on-demand scan latency.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		translated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translated_chunks_total",
			Help:      "Text chunks successfully translated.",
		}),
	}
	r.registry.MustRegister(
		r.ocrCalls, r.ocrLatency, r.uploadResults, r.scanResults, r.scanLatency, r.translated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registerer exposes the registry so other components (HTTP middleware) can add collectors.
func (r *Recorder) Registerer() prometheus.Registerer {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) ObserveOCR(provider, result string, d time.Duration) {
	if r == nil {
		return
	}
	r.ocrCalls.WithLabelValues(provider, result).Inc()
	r.ocrLatency.WithLabelValues(provider).Observe(d.Seconds())
}

func (r *Recorder) ObserveUpload(status string) {
	if r == nil {
		return
	}
	r.uploadResults.WithLabelValues(status).Inc()
}

func (r *Recorder) ObserveScan(code string, d time.Duration) {
	if r == nil {
		return
	}
	r.scanResults.WithLabelValues(code).Inc()
	r.scanLatency.Observe(d.Seconds())
}

func (r *Recorder) AddTranslatedChunks(n int) {
	if r == nil {
		return
	}
	r.translated.Add(float64(n))
}
