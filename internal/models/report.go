package models

import "time"

// StatusHealthy marks a report without findings.
const StatusHealthy = "healthy"

// DiagnosticReport summarises one diagnostics run.
type DiagnosticReport struct {
	ID          string        `json:"id"`
	Status      string        `json:"status"`
	Findings    []Finding     `json:"findings"`
	Suggestions []string      `json:"suggestions"`
	Anomalies   []Anomaly     `json:"anomalies"`
	Analysis    AnomalyReport `json:"analysis"`
	Sample      *MetricSample `json:"sample,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ReportStatus derives the report status from its findings.
func ReportStatus(findings []Finding) string {
	if top := HighestSeverity(findings); top != "" {
		return string(top)
	}
	return StatusHealthy
}
