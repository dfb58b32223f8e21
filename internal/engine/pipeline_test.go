package engine

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/netdoctor/netdoctor/internal/models"
	"github.com/netdoctor/netdoctor/internal/utils"
)

func newTestPipeline(t *testing.T, stats HistoricalStats) *Pipeline {
	t.Helper()
	p, err := NewPipeline(nil, nil, nil, nil, stats, fakeResponder{})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func TestPipelineRunCriticalLatencyScenario(t *testing.T) {
	p := newTestPipeline(t, nil)
	probes := healthyProbes()
	probes.measurement = models.HealthMeasurement{LatencyMS: 600, PacketLoss: 1}

	report, err := p.Run(context.Background(), probes.set())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Findings) != 1 || report.Findings[0].Severity != models.SeverityCritical || report.Findings[0].Issue != "Extreme Network Latency" {
		t.Fatalf("expected a single critical latency finding, got %+v", report.Findings)
	}
	want := []string{
		"Urgent: Switch to Ethernet and restart your router.",
		"Restart your router.",
		"Use a wired connection for better stability.",
		"Limit background data usage or streaming.",
	}
	if len(report.Suggestions) != len(want) {
		t.Fatalf("expected %d suggestions, got %v", len(want), report.Suggestions)
	}
	for i := range want {
		if report.Suggestions[i] != want[i] {
			t.Fatalf("suggestion %d: expected %q, got %q", i, want[i], report.Suggestions[i])
		}
	}
	if report.Status != string(models.SeverityCritical) {
		t.Fatalf("expected critical status, got %s", report.Status)
	}
	if report.ID == "" || report.Sample == nil || report.Sample.LatencyMS != 600 {
		t.Fatalf("expected id and sample on report: %+v", report)
	}
}

func TestPipelineRunOffline(t *testing.T) {
	p := newTestPipeline(t, nil)
	probes := &fakeProbes{online: false, dnsErr: errProbe, measureErr: errProbe}

	report, err := p.Run(context.Background(), probes.set())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Findings) != 1 || report.Findings[0].Issue != IssueOffline {
		t.Fatalf("expected offline finding only, got %+v", report.Findings)
	}
	if len(report.Suggestions) != 4 || report.Suggestions[0] != offlineSuggestions[0] {
		t.Fatalf("expected offline suggestions, got %v", report.Suggestions)
	}
	if report.Sample != nil || len(report.Anomalies) != 0 {
		t.Fatalf("expected no sample or anomalies offline")
	}
}

func TestPipelineRunLogsConnectivityProbeFailure(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPipeline(utils.NewLoggerTo(&buf, "debug", false), nil, nil, nil, nil, fakeResponder{})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	probes := healthyProbes()
	probes.panicOnline = true

	report, err := p.Run(context.Background(), probes.set())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Findings) != 1 || report.Findings[0].Issue != IssueOffline {
		t.Fatalf("expected offline finding, got %+v", report.Findings)
	}
	if !strings.Contains(buf.String(), "connectivity probe failed") {
		t.Fatalf("expected connectivity failure to be logged, got %q", buf.String())
	}
}

func TestPipelineRunHealthy(t *testing.T) {
	p := newTestPipeline(t, nil)
	report, err := p.Run(context.Background(), healthyProbes().set())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Status != models.StatusHealthy || len(report.Findings) != 0 {
		t.Fatalf("expected healthy report, got %+v", report)
	}
	if len(report.Suggestions) != 1 {
		t.Fatalf("expected stable message, got %v", report.Suggestions)
	}
	if report.Analysis.Summary != "Network performing normally" {
		t.Fatalf("unexpected analysis summary %q", report.Analysis.Summary)
	}
}

func TestPipelineRunDetectsAnomaliesAgainstBaseline(t *testing.T) {
	stats := &fakeStats{baselines: models.BaselineSet{
		models.FieldLatency: {Mean: 40, StdDev: 5},
		models.FieldJitter:  {Mean: 5, StdDev: 1},
	}}
	p := newTestPipeline(t, stats)
	probes := healthyProbes()
	probes.measurement = models.HealthMeasurement{LatencyMS: 90, JitterMS: 5}

	report, err := p.Run(context.Background(), probes.set())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Findings) != 0 {
		t.Fatalf("90ms is under the warning band, got %+v", report.Findings)
	}
	if len(report.Anomalies) != 1 || report.Anomalies[0].Field != models.FieldLatency || report.Anomalies[0].Severity != models.SeverityHigh {
		t.Fatalf("expected high latency anomaly, got %+v", report.Anomalies)
	}
	if report.Analysis.Summary != "Network issues detected" {
		t.Fatalf("unexpected summary %q", report.Analysis.Summary)
	}
}

func TestPipelineRunStatsFailureDegrades(t *testing.T) {
	p := newTestPipeline(t, &fakeStats{err: errors.New("db down")})
	probes := healthyProbes()
	probes.measurement = models.HealthMeasurement{LatencyMS: 90}

	report, err := p.Run(context.Background(), probes.set())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Anomalies) != 0 {
		t.Fatalf("expected no anomalies without baseline, got %+v", report.Anomalies)
	}
}

func TestPipelineRunInvalidMeasurementSkipsDetection(t *testing.T) {
	p := newTestPipeline(t, nil)
	probes := healthyProbes()
	probes.measurement = models.HealthMeasurement{LatencyMS: 50, PacketLoss: 140}

	report, err := p.Run(context.Background(), probes.set())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Sample != nil {
		t.Fatalf("expected sample to be dropped")
	}
	if len(report.Findings) != 1 || report.Findings[0].Issue != "Severe Packet Loss" {
		t.Fatalf("expected findings to still be reported, got %+v", report.Findings)
	}
}

func TestPipelineRunMissingProbe(t *testing.T) {
	p := newTestPipeline(t, nil)
	_, err := p.Run(context.Background(), ProbeSet{})
	if !utils.IsContractViolation(err) {
		t.Fatalf("expected contract violation, got %v", err)
	}
}

func TestPipelineAnalyze(t *testing.T) {
	stats := &fakeStats{baselines: models.BaselineSet{models.FieldPacketLoss: {Mean: 1, StdDev: 0.5}}}
	p := newTestPipeline(t, stats)

	report, err := p.Analyze(context.Background(), &models.MetricSample{PacketLoss: 2.2})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(report.Anomalies) != 1 || report.Anomalies[0].Severity != models.SeverityMedium {
		t.Fatalf("expected medium packet loss anomaly, got %+v", report.Anomalies)
	}
	if report.Timestamp.IsZero() {
		t.Fatalf("expected timestamp to be stamped")
	}

	if _, err := p.Analyze(context.Background(), nil); !utils.IsContractViolation(err) {
		t.Fatalf("expected contract violation for nil sample, got %v", err)
	}
}

func TestPipelineAnswer(t *testing.T) {
	p := newTestPipeline(t, nil)
	answer, err := p.Answer("hello")
	if err != nil || answer.Response != "echo: hello" {
		t.Fatalf("unexpected answer %+v %v", answer, err)
	}
	if _, err := p.Answer("   "); !utils.IsContractViolation(err) {
		t.Fatalf("expected contract violation for blank query, got %v", err)
	}

	bare, err := NewPipeline(nil, nil, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	if _, err := bare.Answer("hello"); err == nil {
		t.Fatalf("expected error without responder")
	}
}

func TestPipelineConcurrentRunsDoNotShareState(t *testing.T) {
	p := newTestPipeline(t, nil)
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(latency float64) {
			defer wg.Done()
			probes := healthyProbes()
			probes.measurement = models.HealthMeasurement{LatencyMS: latency}
			report, err := p.Run(context.Background(), probes.set())
			if err != nil {
				errs <- err
				return
			}
			if report.Sample.LatencyMS != latency {
				errs <- errors.New("report carries another run's sample")
			}
		}(float64(600 + i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}
