package grpc_control

import (
	"fmt"
	"net"
	"sync"

	"jpx-history/src/logger"
	"jpx-history/src/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Health service names reported by the daemon.
const (
	ServiceMaster  = "master"
	ServiceHistory = "history"
)

// -----------------------------------------------------------------------------

// ControlService exposes grpc.health.v1 for the observer daemon. The overall
// service ("") is SERVING while the process runs; "history" turns NOT_SERVING
// when the last batch aborted and "master" when the last master build failed.
type ControlService struct {
	Config *models.MConfig
	Health *health.Server
	Logger *logger.Logger

	server *grpc.Server
	mu     sync.Mutex
}

// -----------------------------------------------------------------------------

func NewControlService(cfg *models.MConfig, log *logger.Logger) *ControlService {
	hs := health.NewServer()
	hs.SetServingStatus(ServiceMaster, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceHistory, healthpb.HealthCheckResponse_SERVING)

	return &ControlService{
		Config: cfg,
		Health: hs,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// Start listens on grpc_host:grpc_port and serves until Stop.
func (s *ControlService) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.GrpcHost, s.Config.GrpcPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", addr, err)
	}
	s.Logger.Info("gRPC health service listening on %s", addr)
	return s.Serve(lis)
}

// Serve runs the gRPC server on an existing listener.
func (s *ControlService) Serve(lis net.Listener) error {
	s.mu.Lock()
	s.server = grpc.NewServer()
	healthpb.RegisterHealthServer(s.server, s.Health)
	srv := s.server
	s.mu.Unlock()

	return srv.Serve(lis)
}

func (s *ControlService) Stop() {
	s.Health.Shutdown()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		s.server.GracefulStop()
	}
}

// -----------------------------------------------------------------------------

// ReportBatch updates the "history" status from a finished batch.
func (s *ControlService) ReportBatch(summary models.MBatchSummary) {
	status := healthpb.HealthCheckResponse_SERVING
	if summary.Aborted {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.Health.SetServingStatus(ServiceHistory, status)
	s.Logger.Debug("history health: %s (run %s)", status, summary.RunID)
}

// ReportMaster updates the "master" status from the last build.
func (s *ControlService) ReportMaster(err error) {
	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.Health.SetServingStatus(ServiceMaster, status)
}
