// Prometheus instrumentation for the automation core. Labels are kept to
// bounded vocabularies (action type, status, job name) so cardinality stays
// flat regardless of how many accounts or posts are configured.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// automationActions counts outbound platform actions by type and outcome.
	automationActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_actions_total",
			Help: "Total number of outbound platform actions attempted.",
		},
		[]string{"action", "status"},
	)

	// rateLimitSkips counts actions skipped because the daily cap was reached.
	rateLimitSkips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_rate_limit_skips_total",
			Help: "Actions skipped because the per-account daily cap was reached.",
		},
		[]string{"action"},
	)

	// passDuration records how long each orchestration pass takes end to end.
	passDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "automation_pass_duration_seconds",
			Help: "Duration of orchestration passes in seconds.",
			// Passes include humanized waits, so the interesting range runs
			// from sub-second no-op passes up to tens of minutes.
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 1800, 3600},
		},
		[]string{"job"},
	)
)

func init() {
	prometheus.MustRegister(automationActions, rateLimitSkips, passDuration)
}

const (
	outcomeSuccess = "success"
	outcomeFailed  = "failed"
)
