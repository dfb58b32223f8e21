package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/netdoctor/netdoctor/internal/models"
)

const (
	// OutcomeSuccess labels completed diagnostics runs.
	OutcomeSuccess = "success"
	// OutcomeError labels runs rejected or aborted before a report was built.
	OutcomeError = "error"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netdoctor",
			Name:      "diagnostic_runs_total",
			Help:      "Total number of diagnostics runs, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	runDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "netdoctor",
			Name:      "diagnostic_run_seconds",
			Help:      "Diagnostics run latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13},
		},
	)

	findingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netdoctor",
			Name:      "findings_total",
			Help:      "Findings emitted by the evaluator, partitioned by severity.",
		},
		[]string{"severity"},
	)

	anomaliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netdoctor",
			Name:      "anomalies_total",
			Help:      "Anomalies flagged by the detector, partitioned by field and severity.",
		},
		[]string{"field", "severity"},
	)

	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netdoctor",
			Name:      "queries_total",
			Help:      "Answered free-text queries, partitioned by category.",
		},
		[]string{"category"},
	)
)

// Register attaches netdoctor collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		runsTotal,
		runDurationSeconds,
		findingsTotal,
		anomaliesTotal,
		queriesTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveRun records a run duration and outcome label.
func ObserveRun(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	runsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	runDurationSeconds.Observe(duration.Seconds())
}

// ObserveReport counts the findings and anomalies of a finished report.
func ObserveReport(report models.DiagnosticReport) {
	for _, f := range report.Findings {
		findingsTotal.WithLabelValues(string(f.Severity)).Inc()
	}
	ObserveAnomalies(report.Anomalies)
}

// ObserveAnomalies counts detector output.
func ObserveAnomalies(anomalies []models.Anomaly) {
	for _, a := range anomalies {
		anomaliesTotal.WithLabelValues(a.Field, string(a.Severity)).Inc()
	}
}

// ObserveQuery counts an answered query by category.
func ObserveQuery(category models.Category) {
	queriesTotal.WithLabelValues(string(category)).Inc()
}
