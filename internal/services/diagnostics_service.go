package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/netdoctor/netdoctor/internal/api"
	"github.com/netdoctor/netdoctor/internal/engine"
	"github.com/netdoctor/netdoctor/internal/metrics"
	"github.com/netdoctor/netdoctor/internal/models"
	"github.com/netdoctor/netdoctor/internal/probe"
	"github.com/netdoctor/netdoctor/internal/utils"
)

// ReportPublisher fans finished reports out to other systems.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report models.DiagnosticReport) error
}

// SampleRecorder keeps measured samples as future baseline history.
type SampleRecorder interface {
	RecordSample(ctx context.Context, sample models.MetricSample) error
}

// DiagnosticsService implements both the gRPC and HTTP diagnostics APIs.
type DiagnosticsService struct {
	api.UnimplementedDiagnosticsServer

	logger    *slog.Logger
	pipeline  *engine.Pipeline
	live      engine.ProbeSet
	publisher ReportPublisher
	recorder  SampleRecorder
	latencies *utils.LatencyTracker
}

// NewDiagnosticsService constructs the service facade. publisher and recorder
// are optional.
func NewDiagnosticsService(logger *slog.Logger, pipeline *engine.Pipeline, live engine.ProbeSet, publisher ReportPublisher, recorder SampleRecorder) *DiagnosticsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiagnosticsService{
		logger:    logger,
		pipeline:  pipeline,
		live:      live,
		publisher: publisher,
		recorder:  recorder,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// Diagnose runs the pipeline against the live probes, or against static
// probes when the request carries measurements.
func (s *DiagnosticsService) Diagnose(ctx context.Context, req models.DiagnosticsRequest) (models.DiagnosticReport, error) {
	if s.pipeline == nil {
		return models.DiagnosticReport{}, status.Error(codes.FailedPrecondition, "pipeline not configured")
	}

	probes := s.live
	supplied := req.Measurements != nil
	if supplied {
		m := req.Measurements
		probes = probe.Static{
			Online:         m.IsOnline(),
			DNSResolved:    m.Resolved(),
			Measurement:    m.Health(),
			ConnectionType: m.ConnectionType,
		}.ProbeSet()
	}
	if host := strings.TrimSpace(req.DNSHost); host != "" {
		probes.DNSHost = host
	}

	start := time.Now()
	report, err := s.pipeline.Run(ctx, probes)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveRun(duration, metrics.OutcomeError)
		s.logger.Error("diagnostics run failed", slog.Any("error", err))
		return models.DiagnosticReport{}, err
	}
	s.latencies.Observe(duration)
	metrics.ObserveRun(duration, metrics.OutcomeSuccess)
	metrics.ObserveReport(report)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		p95 := s.latencies.Percentile(95)
		s.logger.Info("diagnostics latency", slog.Duration("p95", p95), slog.Int("samples", count))
	}

	s.logger.Debug("diagnostics run complete",
		slog.String("report_id", report.ID),
		slog.String("status", report.Status),
		slog.Int("findings", len(report.Findings)),
		slog.Bool("supplied_measurements", supplied))

	// Only live measurements feed the baseline history.
	if !supplied && report.Sample != nil && s.recorder != nil {
		if err := s.recorder.RecordSample(ctx, *report.Sample); err != nil {
			s.logger.Warn("record sample failed", slog.String("report_id", report.ID), slog.Any("error", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishReport(ctx, report); err != nil {
			s.logger.Warn("publish report failed", slog.String("report_id", report.ID), slog.Any("error", err))
		}
	}
	return report, nil
}

// Analyze scores a caller-supplied sample against the baseline history.
func (s *DiagnosticsService) Analyze(ctx context.Context, req models.AnalyzeRequest) (models.AnomalyReport, error) {
	if s.pipeline == nil {
		return models.AnomalyReport{}, status.Error(codes.FailedPrecondition, "pipeline not configured")
	}
	if err := req.MissingFields(); err != nil {
		return models.AnomalyReport{}, utils.ContractViolation("analyze metrics", "incomplete sample", err)
	}
	at, err := utils.ParseTimestamp(req.TimestampText(), time.Time{})
	if err != nil {
		return models.AnomalyReport{}, utils.ContractViolation("analyze metrics", "bad timestamp", err)
	}

	sample := req.Sample(at)
	analysis, err := s.pipeline.Analyze(ctx, &sample)
	if err != nil {
		return models.AnomalyReport{}, err
	}
	metrics.ObserveAnomalies(analysis.Anomalies)
	return analysis, nil
}

// Ask answers a free-text question.
func (s *DiagnosticsService) Ask(_ context.Context, req models.AskRequest) (models.ClassifiedAnswer, error) {
	if s.pipeline == nil {
		return models.ClassifiedAnswer{}, status.Error(codes.FailedPrecondition, "pipeline not configured")
	}
	answer, err := s.pipeline.Answer(req.Query)
	if err != nil {
		return models.ClassifiedAnswer{}, err
	}
	metrics.ObserveQuery(answer.Category)
	return answer, nil
}

// RunDiagnostics implements netdoctor.v1.Diagnostics/RunDiagnostics.
func (s *DiagnosticsService) RunDiagnostics(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := api.FromStructDiagnosticsRequest(in)
	if err != nil {
		return nil, api.GRPCError(err)
	}
	report, err := s.Diagnose(ctx, req)
	if err != nil {
		return nil, api.GRPCError(err)
	}
	out, err := api.ToStructReport(report)
	return out, api.GRPCError(err)
}

// AnalyzeMetrics implements netdoctor.v1.Diagnostics/AnalyzeMetrics.
func (s *DiagnosticsService) AnalyzeMetrics(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := api.FromStructAnalyzeRequest(in)
	if err != nil {
		return nil, api.GRPCError(err)
	}
	analysis, err := s.Analyze(ctx, req)
	if err != nil {
		return nil, api.GRPCError(err)
	}
	out, err := api.ToStructAnomalyReport(analysis)
	return out, api.GRPCError(err)
}

// AnswerQuery implements netdoctor.v1.Diagnostics/AnswerQuery.
func (s *DiagnosticsService) AnswerQuery(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := api.FromStructAskRequest(in)
	if err != nil {
		return nil, api.GRPCError(err)
	}
	answer, err := s.Ask(ctx, req)
	if err != nil {
		return nil, api.GRPCError(err)
	}
	out, err := api.ToStructAnswer(answer)
	return out, api.GRPCError(err)
}

// LatencyP95 returns the current p95 diagnostics run latency.
func (s *DiagnosticsService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}
