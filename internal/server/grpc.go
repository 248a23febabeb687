// Package server builds the gRPC server exposing the standard health service.
package server

import (
	"log/slog"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	healthhandler "resume-analyzer/backend/internal/health/handler"
	"resume-analyzer/backend/internal/server/interceptors"
)

// Deps holds the gRPC server's dependencies.
type Deps struct {
	// Readiness backs grpc.health.v1.Health. If nil, health always reports SERVING.
	Readiness healthhandler.ReadinessChecker
	// Logger receives one line per non-health RPC. If nil, RPCs are not logged.
	Logger *slog.Logger
}

// NewGRPCServer returns a gRPC server instrumented with otelgrpc, with every service registered.
func NewGRPCServer(deps Deps, opts ...grpc.ServerOption) *grpc.Server {
	skip := map[string]bool{
		healthpb.Health_Check_FullMethodName: true,
	}
	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors.LoggingUnary(deps.Logger, skip)),
	}, opts...)
	s := grpc.NewServer(opts...)
	RegisterServices(s, deps)
	return s
}

// RegisterServices registers all gRPC services with the given registrar.
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	healthpb.RegisterHealthServer(s, healthhandler.NewServer(deps.Readiness))
}
