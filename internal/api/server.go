package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/netdoctor/netdoctor/internal/config"
)

// Server owns the gRPC listener, the diagnostics service and its health state.
type Server struct {
	cfg      config.ServerConfig
	logger   *slog.Logger
	grpc     *grpc.Server
	listener net.Listener
	health   *health.Server
}

// NewServer binds cfg.Address and registers the diagnostics, health and
// reflection services. Calls are measured by the Prometheus interceptors and
// logged at debug level; panics in handlers surface as codes.Internal.
func NewServer(cfg config.ServerConfig, service DiagnosticsServer, logger *slog.Logger, opts ...grpc.ServerOption) (*Server, error) {
	if service == nil {
		return nil, errors.New("diagnostics service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "grpc"))

	lis, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Address, err)
	}

	grpc_prometheus.EnableHandlingTimeHistogram()
	serverOpts := append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			grpc_prometheus.UnaryServerInterceptor,
			recoverUnary(logger),
		),
		grpc.ChainStreamInterceptor(grpc_prometheus.StreamServerInterceptor),
	}, opts...)
	srv := grpc.NewServer(serverOpts...)

	RegisterDiagnosticsServer(srv, service)
	grpc_prometheus.Register(srv)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	s := &Server{cfg: cfg, logger: logger, grpc: srv, listener: lis, health: hs}
	s.SetServing(true)
	return s, nil
}

// recoverUnary logs each call and turns handler panics into Internal errors.
func recoverUnary(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("grpc handler panic", slog.String("method", info.FullMethod), slog.Any("panic", r))
				resp, err = nil, status.Error(codes.Internal, "internal error")
			}
			logger.Debug("grpc call",
				slog.String("method", info.FullMethod),
				slog.String("code", status.Code(err).String()),
				slog.Duration("took", time.Since(start)),
			)
		}()
		return handler(ctx, req)
	}
}

// SetServing flips the health status reported for the server and the
// diagnostics service.
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(DiagnosticsServiceName, st)
}

// Start serves until Shutdown.
func (s *Server) Start() error {
	if s.grpc == nil || s.listener == nil {
		return errors.New("server not initialised")
	}
	s.logger.Info("grpc listening", slog.String("address", s.Address()))
	return s.grpc.Serve(s.listener)
}

// Shutdown marks the server as not serving, then drains in-flight calls.
// When ctx expires first the remaining calls are cut off.
func (s *Server) Shutdown(ctx context.Context) {
	if s.grpc == nil {
		return
	}
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(stopped)
	}()

	select {
	case <-ctx.Done():
		s.logger.Warn("graceful stop timed out, forcing")
		s.grpc.Stop()
	case <-stopped:
	}
}

// Address is the bound listener address; with port 0 it carries the real port.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// GracefulTimeout is the configured drain budget.
func (s *Server) GracefulTimeout() time.Duration {
	return s.cfg.GracefulTimeout
}
