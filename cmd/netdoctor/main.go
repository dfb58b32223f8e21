package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/netdoctor/netdoctor/internal/api"
	"github.com/netdoctor/netdoctor/internal/bus"
	"github.com/netdoctor/netdoctor/internal/cache"
	"github.com/netdoctor/netdoctor/internal/classifier"
	"github.com/netdoctor/netdoctor/internal/config"
	"github.com/netdoctor/netdoctor/internal/engine"
	"github.com/netdoctor/netdoctor/internal/extractors"
	"github.com/netdoctor/netdoctor/internal/metrics"
	"github.com/netdoctor/netdoctor/internal/probe"
	"github.com/netdoctor/netdoctor/internal/repo"
	"github.com/netdoctor/netdoctor/internal/services"
	"github.com/netdoctor/netdoctor/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting netdoctor",
		slog.String("grpc_address", cfg.Server.Address),
		slog.String("http_address", cfg.Server.HTTPAddress))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		source   repo.Source = repo.NewStaticStats(cfg.Baseline)
		recorder services.SampleRecorder
	)
	if cfg.Database.DSN != "" {
		store, err := repo.NewStore(ctx, cfg.Database.DSN)
		if err != nil {
			logger.Warn("sample history unavailable, using static baseline", slog.Any("error", err))
		} else {
			defer store.Close()
			history := repo.NewSampleHistory(store, cfg.Database.Window)
			if err := history.EnsureSchema(ctx); err != nil {
				logger.Warn("sample history schema", slog.Any("error", err))
			}
			source, recorder = history, history
		}
	}

	var stats engine.HistoricalStats = source
	if cfg.Cache.Enabled {
		memory := cache.NewMemoryProvider()
		defer memory.Close()
		stats = repo.NewCachedStats(source, memory, cfg.Cache.BaselineTTL, utils.Component(logger, "baseline"))
	}

	var publisher services.ReportPublisher
	if cfg.NATS.URL != "" {
		pub, err := bus.NewPublisher(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			logger.Warn("report publication disabled", slog.Any("error", err))
		} else {
			defer pub.Close()
			publisher = pub
			logger.Info("publishing reports", slog.String("subject", pub.Subject()))
		}
	}

	evaluator, err := engine.NewEvaluator(cfg.Thresholds)
	if err != nil {
		logger.Error("invalid thresholds", slog.Any("error", err))
		os.Exit(1)
	}
	aggregator, err := engine.NewAggregator(cfg.Rules.Path, utils.Component(logger, "suggestions"))
	if err != nil {
		logger.Error("failed to load tip pack", slog.Any("error", err))
		os.Exit(1)
	}
	detector, err := extractors.NewAnomalyDetector(extractors.DetectorOptions{
		MediumZ: cfg.Detector.MediumZ,
		HighZ:   cfg.Detector.HighZ,
	})
	if err != nil {
		logger.Error("invalid detector settings", slog.Any("error", err))
		os.Exit(1)
	}
	assistant, err := classifier.Load(cfg.Classifier.CorpusPath, cfg.Classifier.KnowledgeBasePath)
	if err != nil {
		logger.Error("failed to train query classifier", slog.Any("error", err))
		os.Exit(1)
	}

	pipeline, err := engine.NewPipeline(utils.Component(logger, "pipeline"), evaluator, aggregator, detector, stats, assistant)
	if err != nil {
		logger.Error("failed to build pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	live := probe.NewLive(probe.Options{
		ConnectivityTargets: cfg.Probe.ConnectivityTargets,
		DNSHost:             cfg.Probe.DNSHost,
		Health:              probe.Health(cfg.Probe.Health),
		HealthURL:           cfg.Probe.HealthURL,
		SampleTarget:        cfg.Probe.SampleTarget,
		SampleCount:         cfg.Probe.SampleCount,
		SampleInterval:      cfg.Probe.SampleInterval,
		Timeout:             cfg.Probe.Timeout,
		ConnectionType:      cfg.Probe.ConnectionType,
	})

	diagnostics := services.NewDiagnosticsService(logger, pipeline, live, publisher, recorder)

	server, err := api.NewServer(cfg.Server, diagnostics, logger)
	if err != nil {
		logger.Error("failed to create gRPC server", slog.Any("error", err))
		os.Exit(1)
	}

	var httpServer *http.Server
	if cfg.Server.HTTPAddress != "" {
		httpServer = &http.Server{
			Addr:              cfg.Server.HTTPAddress,
			Handler:           api.NewHandler(utils.Component(logger, "http"), diagnostics).Router(cfg.Server.RequestTimeout),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("http server listening", slog.String("address", cfg.Server.HTTPAddress))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		logger.Info("grpc server listening", slog.String("address", server.Address()))
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("gRPC server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.GracefulTimeout())
	defer cancel()
	server.Shutdown(shutdownCtx)

	for _, srv := range []*http.Server{httpServer, metricsServer} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("http shutdown", slog.String("address", srv.Addr), slog.Any("error", err))
		}
	}

	logger.Info("netdoctor stopped", slog.Duration("run_p95", diagnostics.LatencyP95()))
}
