package router

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/sickfits-server/internal/api/grpc/handler"
	"github.com/dtroode/sickfits-server/internal/api/grpc/middleware"
	"github.com/dtroode/sickfits-server/internal/logger"
	"github.com/dtroode/sickfits-server/internal/model"
)

// Router wires the operator gRPC API.
type Router struct {
	reconcileService handler.ReconcileService
	sessions         middleware.SessionResolver
	guard            middleware.Authorizer
	contextManager   model.ContextManager
	logger           *logger.Logger
	health           *health.Server
}

func New(
	reconcileService handler.ReconcileService,
	sessions middleware.SessionResolver,
	guard middleware.Authorizer,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		reconcileService: reconcileService,
		sessions:         sessions,
		guard:            guard,
		contextManager:   contextManager,
		logger:           logger,
		health:           health.NewServer(),
	}
}

// Health sets the serving status reported by grpc.health.v1.
func (r *Router) Health() *health.Server {
	return r.health
}

func authRequired(_ context.Context, c interceptors.CallMeta) bool {
	return !strings.HasPrefix(c.FullMethod(), "/"+healthpb.Health_ServiceDesc.ServiceName+"/")
}

// Register builds the gRPC server with logging, recovery and ADMIN-only auth.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.sessions, r.guard, r.contextManager, r.logger)
	recoveryOpt := recovery.WithRecoveryHandler(middleware.NewRecovery(r.logger).Handle)

	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			recovery.UnaryServerInterceptor(recoveryOpt),
			selector.UnaryServerInterceptor(
				auth.UnaryServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(authRequired),
			),
		),
		grpc.ChainStreamInterceptor(
			logging.HandleStream,
			recovery.StreamServerInterceptor(recoveryOpt),
			selector.StreamServerInterceptor(
				auth.StreamServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(authRequired),
			),
		),
	)

	handler.RegisterReconciliationServer(s, handler.NewReconciliation(r.reconcileService, r.logger))
	healthpb.RegisterHealthServer(s, r.health)
	r.health.SetServingStatus(handler.ReconciliationServiceName, healthpb.HealthCheckResponse_SERVING)

	return s
}
