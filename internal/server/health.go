package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ScanService is the gRPC health service name reported alongside the overall status.
const ScanService = "docintel.Scan"

// HealthServer mirrors the diagnostics report onto the standard gRPC health service.
type HealthServer struct {
	hs       *health.Server
	checker  Diagnoser
	interval time.Duration
	logger   *slog.Logger
}

func NewHealthServer(checker Diagnoser, interval time.Duration, logger *slog.Logger) *HealthServer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthServer{hs: health.NewServer(), checker: checker, interval: interval, logger: logger}
}

// Register adds the health and reflection services to s.
func (h *HealthServer) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.hs)
	reflection.Register(s)
}

// Refresh runs diagnostics once and updates the serving status.
func (h *HealthServer) Refresh(ctx context.Context) {
	report := h.checker.Run(ctx, uuid.NewString())
	status := healthpb.HealthCheckResponse_SERVING
	if !report.OK {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		h.logger.Warn("health degraded", "failed_checks", report.Failed())
	}
	h.hs.SetServingStatus("", status)
	h.hs.SetServingStatus(ScanService, status)
}

// Run refreshes the status on every interval until ctx is done, then marks everything not serving.
func (h *HealthServer) Run(ctx context.Context) {
	h.Refresh(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.hs.Shutdown()
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}
