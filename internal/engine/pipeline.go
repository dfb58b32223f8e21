package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/netdoctor/netdoctor/internal/extractors"
	"github.com/netdoctor/netdoctor/internal/models"
	"github.com/netdoctor/netdoctor/internal/utils"
)

// Responder answers free-text questions.
type Responder interface {
	Answer(text string) models.ClassifiedAnswer
}

// Pipeline composes evaluation, aggregation, anomaly detection and question
// answering. All collaborators are injected at construction and only read
// afterwards, so one Pipeline serves concurrent callers.
type Pipeline struct {
	logger     *slog.Logger
	evaluator  *Evaluator
	aggregator *Aggregator
	detector   *extractors.AnomalyDetector
	stats      HistoricalStats
	responder  Responder
	now        func() time.Time
}

// NewPipeline constructs the diagnostics orchestrator. stats may be nil, in
// which case no baseline exists and anomaly detection never flags.
func NewPipeline(
	logger *slog.Logger,
	evaluator *Evaluator,
	aggregator *Aggregator,
	detector *extractors.AnomalyDetector,
	stats HistoricalStats,
	responder Responder,
) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if evaluator == nil {
		var err error
		if evaluator, err = NewEvaluator(models.DefaultThresholds()); err != nil {
			return nil, err
		}
	}
	if aggregator == nil {
		var err error
		if aggregator, err = NewAggregator("", logger); err != nil {
			return nil, err
		}
	}
	if detector == nil {
		var err error
		if detector, err = extractors.NewAnomalyDetector(extractors.DetectorOptions{}); err != nil {
			return nil, err
		}
	}

	return &Pipeline{
		logger:     logger,
		evaluator:  evaluator,
		aggregator: aggregator,
		detector:   detector,
		stats:      stats,
		responder:  responder,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Run executes one diagnostics pass against the supplied probes.
func (p *Pipeline) Run(ctx context.Context, probes ProbeSet) (models.DiagnosticReport, error) {
	results, err := p.evaluator.Collect(ctx, probes)
	if err != nil {
		return models.DiagnosticReport{}, err
	}
	logProbeFailures(p.logger, results)

	findings := p.evaluator.Evaluate(results)
	suggestions := p.aggregator.Suggest(findings)
	createdAt := p.now()

	report := models.DiagnosticReport{
		ID:          uuid.NewString(),
		Status:      models.ReportStatus(findings),
		Findings:    findings,
		Suggestions: suggestions,
		Anomalies:   []models.Anomaly{},
		Analysis:    extractors.Summarize(nil),
		CreatedAt:   createdAt,
	}
	report.Analysis.Timestamp = createdAt

	if !results.Online || results.Health.Err != nil {
		return report, nil
	}

	sample := results.Health.Measurement.Sample(createdAt)
	analysis, err := p.detector.Analyze(&sample, p.baseline(ctx))
	if err != nil {
		// A probe returning out-of-range numbers is reported, not fatal.
		p.logger.Warn("skipping anomaly detection", slog.Any("error", err))
		return report, nil
	}
	report.Sample = &sample
	report.Anomalies = analysis.Anomalies
	report.Analysis = analysis
	return report, nil
}

// Analyze scores a caller-supplied sample against the historical baseline.
func (p *Pipeline) Analyze(ctx context.Context, sample *models.MetricSample) (models.AnomalyReport, error) {
	if sample == nil {
		return models.AnomalyReport{}, utils.ContractViolation("analyze metrics", "sample is required", nil)
	}
	if sample.Timestamp.IsZero() {
		stamped := *sample
		stamped.Timestamp = p.now()
		sample = &stamped
	}
	return p.detector.Analyze(sample, p.baseline(ctx))
}

// Answer routes a free-text question to the responder.
func (p *Pipeline) Answer(text string) (models.ClassifiedAnswer, error) {
	if p.responder == nil {
		return models.ClassifiedAnswer{}, fmt.Errorf("question answering not configured")
	}
	if strings.TrimSpace(text) == "" {
		return models.ClassifiedAnswer{}, utils.ContractViolation("answer query", "query text is required", nil)
	}
	return p.responder.Answer(text), nil
}

// Thresholds exposes the evaluator's threshold table.
func (p *Pipeline) Thresholds() models.Thresholds {
	return p.evaluator.Thresholds()
}

// baseline loads every sample field from the stats store. Lookup failures are
// treated as missing history.
func (p *Pipeline) baseline(ctx context.Context) models.BaselineSet {
	set := make(models.BaselineSet, len(models.SampleFields))
	if p.stats == nil {
		return set
	}
	for _, field := range models.SampleFields {
		b, ok, err := p.stats.Get(ctx, field)
		if err != nil {
			p.logger.Warn("baseline lookup failed", slog.String("field", field), slog.Any("error", err))
			continue
		}
		if ok {
			set[field] = b
		}
	}
	return set
}

func logProbeFailures(logger *slog.Logger, results models.ProbeResults) {
	if results.OnlineErr != nil {
		logger.Warn("connectivity probe failed, treating device as offline", slog.Any("error", results.OnlineErr))
		return
	}
	if !results.Online {
		logger.Info("device offline, remaining probes skipped")
		return
	}
	if results.DNS.Err != nil {
		logger.Debug("dns probe failed", slog.Any("error", results.DNS.Err))
	}
	if results.Health.Err != nil {
		logger.Warn("health probe failed", slog.Any("error", results.Health.Err))
	}
	if results.Connection.Err != nil {
		logger.Debug("connection info probe failed", slog.Any("error", results.Connection.Err))
	}
}
