package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/netdoctor/netdoctor/internal/models"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register should be tolerated: %v", err)
	}
}

func TestObserveReportCountsSeverities(t *testing.T) {
	before := counterValue(t, findingsTotal.WithLabelValues("critical"))
	beforeAnomaly := counterValue(t, anomaliesTotal.WithLabelValues(models.FieldLatency, "high"))

	ObserveReport(models.DiagnosticReport{
		Findings: []models.Finding{
			{Issue: "Extreme Network Latency", Severity: models.SeverityCritical},
			{Issue: "Severe Packet Loss", Severity: models.SeverityCritical},
		},
		Anomalies: []models.Anomaly{{Field: models.FieldLatency, Severity: models.SeverityHigh}},
	})

	if got := counterValue(t, findingsTotal.WithLabelValues("critical")) - before; got != 2 {
		t.Fatalf("expected 2 critical findings counted, got %v", got)
	}
	if got := counterValue(t, anomaliesTotal.WithLabelValues(models.FieldLatency, "high")) - beforeAnomaly; got != 1 {
		t.Fatalf("expected 1 latency anomaly counted, got %v", got)
	}
}

func TestObserveRunNormalisesOutcome(t *testing.T) {
	before := counterValue(t, runsTotal.WithLabelValues(OutcomeSuccess))
	ObserveRun(-time.Second, "weird")
	if got := counterValue(t, runsTotal.WithLabelValues(OutcomeSuccess)) - before; got != 1 {
		t.Fatalf("expected unknown outcome to count as success, got %v", got)
	}
}

func TestObserveQuery(t *testing.T) {
	before := counterValue(t, queriesTotal.WithLabelValues("greeting"))
	ObserveQuery(models.CategoryGreeting)
	if got := counterValue(t, queriesTotal.WithLabelValues("greeting")) - before; got != 1 {
		t.Fatalf("expected greeting query counted, got %v", got)
	}
}
