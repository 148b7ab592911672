// Package prometheus provides Prometheus metrics for PromptForge.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "promptforge"

var (
	// renderTotal is a counter of template render operations.
	renderTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_total",
			Help:      "Total number of template render operations",
		},
		[]string{"status"}, // status: complete, partial (unfilled placeholders remain)
	)

	// generationDuration is a histogram of end-to-end generation duration.
	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Histogram of end-to-end generation duration in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	// generationsTotal is a counter of generation requests by outcome.
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of generation requests",
		},
		[]string{"provider", "model", "status"}, // status: success or an error kind
	)

	// generationTokensTotal is a counter of tokens consumed by generations.
	generationTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_tokens_total",
			Help:      "Total tokens consumed by generation requests",
		},
		[]string{"provider", "model", "type"}, // type: input, output
	)

	// storeOpsTotal is a counter of prompt store operations.
	storeOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of prompt store operations",
		},
		[]string{"operation", "status"}, // operation: get, list, create, update, delete
	)

	// sessionsActive is a gauge of sessions saved minus sessions deleted.
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently tracked variable sessions",
		},
	)

	// allMetrics is a list of all metrics for registration.
	allMetrics = []prometheus.Collector{
		renderTotal,
		generationDuration,
		generationsTotal,
		generationTokensTotal,
		storeOpsTotal,
		sessionsActive,
	}
)

// RecordRender records a template render operation.
func RecordRender(complete bool) {
	status := "complete"
	if !complete {
		status = "partial"
	}
	renderTotal.WithLabelValues(status).Inc()
}

// RecordGeneration records the outcome of a generation request.
// Status is "success" or the normalized error kind.
func RecordGeneration(provider, model, status string, durationSeconds float64) {
	generationDuration.WithLabelValues(provider, model).Observe(durationSeconds)
	generationsTotal.WithLabelValues(provider, model, status).Inc()
}

// RecordGenerationTokens records token consumption.
func RecordGenerationTokens(provider, model string, inputTokens, outputTokens int) {
	if inputTokens > 0 {
		generationTokensTotal.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		generationTokensTotal.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	}
}

// RecordStoreOperation records a prompt store operation.
func RecordStoreOperation(operation, status string) {
	storeOpsTotal.WithLabelValues(operation, status).Inc()
}

// RecordSessionCreated records a new variable session.
func RecordSessionCreated() {
	sessionsActive.Inc()
}

// RecordSessionDeleted records a deleted variable session.
func RecordSessionDeleted() {
	sessionsActive.Dec()
}
