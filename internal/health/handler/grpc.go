// Package handler implements the standard grpc.health.v1.Health service on top of health.Checker.
package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the service name reported alongside the overall ("") status.
const ServiceName = "resume_analyzer.auth"

// ReadinessChecker reports whether the service can serve requests.
type ReadinessChecker interface {
	Check(ctx context.Context) error
}

// Server implements grpc_health_v1.HealthServer. Watch and List are left unimplemented.
type Server struct {
	healthpb.UnimplementedHealthServer
	checker ReadinessChecker
}

// NewServer returns a Health server backed by checker. A nil checker always reports SERVING.
func NewServer(checker ReadinessChecker) *Server {
	return &Server{checker: checker}
}

// Check reports SERVING when the checker passes and NOT_SERVING otherwise.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	switch req.GetService() {
	case "", ServiceName:
	default:
		return nil, status.Error(codes.NotFound, "unknown service")
	}
	if s.checker != nil {
		if err := s.checker.Check(ctx); err != nil {
			return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
		}
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
