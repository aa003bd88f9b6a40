package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pipeline metrics
	pipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genaibot_pipeline_stage_duration_seconds",
			Help:    "Duration of each orchestrator pipeline stage in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genaibot_turns_total",
			Help: "Total number of chat turns processed",
		},
		[]string{"status"},
	)

	// Tool metrics
	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genaibot_tool_calls_total",
			Help: "Total number of tool branch executions",
		},
		[]string{"tool", "status"},
	)

	toolCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genaibot_tool_call_duration_seconds",
			Help:    "Tool branch execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	// LLM metrics
	llmRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genaibot_llm_requests_total",
			Help: "Total number of LLM API requests",
		},
		[]string{"model", "kind", "status"},
	)

	llmTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genaibot_llm_tokens_total",
			Help: "Total number of LLM tokens consumed",
		},
		[]string{"model", "direction"},
	)

	streamTokensTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "genaibot_stream_tokens_total",
			Help: "Total number of tokens streamed to callers",
		},
	)

	// Persistence metrics
	persistenceStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genaibot_persistence_steps_total",
			Help: "Total number of background persistence steps",
		},
		[]string{"step", "status"},
	)

	summarizationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genaibot_summarizations_total",
			Help: "Total number of session summarization runs",
		},
		[]string{"status"},
	)

	// System metrics
	activeStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "genaibot_active_streams",
			Help: "Number of chat streams currently in flight",
		},
	)

	initOnce sync.Once
)

// InitMetrics initializes Prometheus metrics
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			pipelineStageDuration,
			turnsTotal,
			toolCallsTotal,
			toolCallDuration,
			llmRequestsTotal,
			llmTokensTotal,
			streamTokensTotal,
			persistenceStepsTotal,
			summarizationsTotal,
			activeStreams,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordStage records the duration of a pipeline stage
func RecordStage(stage string, duration time.Duration) {
	pipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordTurn records a completed turn
func RecordTurn(status string) {
	turnsTotal.WithLabelValues(status).Inc()
}

// RecordToolCall records a tool branch execution
func RecordToolCall(tool, status string, duration time.Duration) {
	toolCallsTotal.WithLabelValues(tool, status).Inc()
	toolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordLLMRequest records an LLM API request
func RecordLLMRequest(model, kind, status string) {
	llmRequestsTotal.WithLabelValues(model, kind, status).Inc()
}

// RecordLLMTokens records prompt and completion token usage for a model
func RecordLLMTokens(model string, prompt, completion int) {
	llmTokensTotal.WithLabelValues(model, "prompt").Add(float64(prompt))
	llmTokensTotal.WithLabelValues(model, "completion").Add(float64(completion))
}

// RecordStreamToken records one token flushed to a caller
func RecordStreamToken() {
	streamTokensTotal.Inc()
}

// RecordPersistenceStep records a background persistence step
func RecordPersistenceStep(step, status string) {
	persistenceStepsTotal.WithLabelValues(step, status).Inc()
}

// RecordSummarization records a summarization run
func RecordSummarization(status string) {
	summarizationsTotal.WithLabelValues(status).Inc()
}

// IncActiveStreams increments the in-flight stream gauge
func IncActiveStreams() {
	activeStreams.Inc()
}

// DecActiveStreams decrements the in-flight stream gauge
func DecActiveStreams() {
	activeStreams.Dec()
}
