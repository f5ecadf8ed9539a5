package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics счётчики конвейера детекции. Нулевой указатель безопасен: методы ничего не делают.
type Metrics struct {
	registry *prometheus.Registry

	frames           *prometheus.CounterVec
	detectorFailures prometheus.Counter
	storeFailures    prometheus.Counter
	detectLatency    prometheus.Histogram
}

// NewMetrics создаёт собственный реестр, чтобы несколько экземпляров не конфликтовали.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clearoute",
			Name:      "frames_analyzed_total",
			Help:      "Frames analyzed by the detector, by road quality.",
		}, []string{"quality"}),
		detectorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clearoute",
			Name:      "detector_failures_total",
			Help:      "Frames skipped because the detector failed or timed out.",
		}),
		storeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clearoute",
			Name:      "store_failures_total",
			Help:      "Observations that could not be persisted.",
		}),
		detectLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clearoute",
			Name:      "detect_duration_seconds",
			Help:      "Detector call latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		m.frames,
		m.detectorFailures,
		m.storeFailures,
		m.detectLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// FrameAnalyzed учитывает успешно обработанный кадр.
func (m *Metrics) FrameAnalyzed(quality string, took time.Duration) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(quality).Inc()
	m.detectLatency.Observe(took.Seconds())
}

// DetectorFailed учитывает пропущенный кадр.
func (m *Metrics) DetectorFailed() {
	if m == nil {
		return
	}
	m.detectorFailures.Inc()
}

// StoreFailed учитывает потерянную запись аудита.
func (m *Metrics) StoreFailed() {
	if m == nil {
		return
	}
	m.storeFailures.Inc()
}

// Handler отдаёт /metrics для Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
