package evaluator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

var (
	executionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orchestrator_agent_executions_total",
		Help: "Total agent executions, labeled by agent and success.",
	}, []string{"agent", "success"})

	executionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orchestrator_agent_execution_duration_ms",
		Help:    "Agent execution duration in milliseconds.",
		Buckets: prometheus.ExponentialBuckets(50, 2, 12),
	}, []string{"agent"})
)

// recordMetrics exports rec to the process's Prometheus registry, scraped
// alongside the evaluator's own SQLite-backed report at /metrics/report.
func recordMetrics(rec models.ExecutionRecord) {
	success := "true"
	if !rec.Success {
		success = "false"
	}
	executionsTotal.WithLabelValues(string(rec.Agent), success).Inc()
	executionDuration.WithLabelValues(string(rec.Agent)).Observe(float64(rec.DurationMS))
}
