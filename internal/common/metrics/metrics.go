// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_queries_total",
			Help: "Total number of questions answered, by outcome",
		},
		[]string{"status"},
	)

	IntentOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_intent_outcomes_total",
			Help: "Intent extraction outcomes (parsed or fallback)",
		},
		[]string{"outcome"},
	)

	LLMCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_llm_calls_total",
			Help: "Language model calls by purpose and status",
		},
		[]string{"purpose", "status"},
	)

	ChartsRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_charts_rendered_total",
			Help: "Charts rendered by kind",
		},
		[]string{"kind"},
	)

	PerformanceReports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_performance_reports_total",
			Help: "Revenue performance reports by status",
		},
		[]string{"status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finsight_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	RequestsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "finsight_requests_active",
			Help: "Number of in-flight requests per endpoint",
		},
		[]string{"endpoint"},
	)
)
