package grpc

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health-check key reported alongside the overall status.
const ServiceName = "supertry.v1.API"

// ReadinessFunc reports whether the backing stores answer.
type ReadinessFunc func(ctx context.Context) error

type Server struct {
	server *grpc.Server
	health *health.Server
	ready  ReadinessFunc
	logger *slog.Logger
}

func NewServer(logger *slog.Logger, ready ReadinessFunc) *Server {
	srv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(srv, healthSrv)
	reflection.Register(srv)
	s := &Server{server: srv, health: healthSrv, ready: ready, logger: logger}
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func (s *Server) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

// WatchReadiness flips the health status whenever the readiness check changes
// outcome. It returns when ctx is done.
func (s *Server) WatchReadiness(ctx context.Context, interval time.Duration) error {
	if s.ready == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	serving := true
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := s.ready(checkCtx)
		cancel()
		switch {
		case err != nil && serving:
			serving = false
			s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
			s.logger.WarnContext(ctx, "grpc health degraded",
				"module", "grpc",
				"layer", "adapter",
				"operation", "watch_readiness",
				"outcome", "failure",
				"error", err,
			)
		case err == nil && !serving:
			serving = true
			s.setStatus(healthpb.HealthCheckResponse_SERVING)
			s.logger.InfoContext(ctx, "grpc health restored",
				"module", "grpc",
				"layer", "adapter",
				"operation", "watch_readiness",
				"outcome", "success",
			)
		}
	}
}

// GracefulStop marks the server as not serving and drains in-flight calls.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
