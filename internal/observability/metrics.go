package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Chat outcome labels.
const (
	OutcomeRetrieval = "retrieval"
	OutcomeGenerated = "generated"
	OutcomeApology   = "apology"
	OutcomeInvalid   = "invalid"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ChatMessages      *prometheus.CounterVec
	GateSimilarity    prometheus.Histogram
	RetrievalScore    prometheus.Histogram
	GenerationLatency prometheus.Histogram
	PipelineErrors    *prometheus.CounterVec
	ActiveSessions    prometheus.Gauge
	SessionEvents     *prometheus.CounterVec
	WSMessages        *prometheus.CounterVec

	stages *stageWindow
}

// NewMetrics registers instruments in the default registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWith registers instruments in reg. Tests pass a fresh registry
// so instruments do not collide across cases.
func NewMetricsWith(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChatMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Handled chat messages by outcome.",
		}, []string{"outcome"}),
		GateSimilarity: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gate_similarity",
			Help:      "Cosine similarity between the user message and the retrieved question.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1},
		}),
		RetrievalScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_score",
			Help:      "Best index score for the combined query.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1},
		}),
		GenerationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_latency_ms",
			Help:      "Latency of generative model calls in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
		}),
		PipelineErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_errors_total",
			Help:      "Pipeline errors by stage.",
		}, []string{"stage"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of active live chat sessions.",
		}),
		SessionEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		WSMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		stages: newStageWindow(256),
	}
}

// ObserveStage records one pipeline stage latency into the rolling window.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stages.Observe(stage, float64(d.Microseconds())/1000)
}

// SnapshotStages returns the rolling stage latency view for the perf endpoint.
func (m *Metrics) SnapshotStages() StageSnapshot {
	if m == nil {
		return StageSnapshot{}
	}
	return m.stages.Snapshot()
}

func (m *Metrics) ObserveGenerationLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.GenerationLatency.Observe(float64(d.Milliseconds()))
}

// CountMessage tallies a handled chat message by outcome. Safe on nil so
// the orchestrator can run without metrics in tests.
func (m *Metrics) CountMessage(outcome string) {
	if m == nil {
		return
	}
	m.ChatMessages.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveGateSimilarity(sim float64) {
	if m == nil {
		return
	}
	m.GateSimilarity.Observe(sim)
}

func (m *Metrics) ObserveRetrievalScore(score float64) {
	if m == nil {
		return
	}
	m.RetrievalScore.Observe(score)
}

func (m *Metrics) CountPipelineError(stage string) {
	if m == nil {
		return
	}
	m.PipelineErrors.WithLabelValues(stage).Inc()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
