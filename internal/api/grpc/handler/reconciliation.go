package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dtroode/sickfits-server/internal/logger"
	"github.com/dtroode/sickfits-server/internal/model"
)

// ReconciliationServiceName is the fully qualified operator service name.
const ReconciliationServiceName = "sickfits.ops.v1.Reconciliation"

// ReconcileService defines checkout reconciliation operations.
type ReconcileService interface {
	ListStuck(ctx context.Context) ([]model.CheckoutAttempt, error)
	Replay(ctx context.Context, attemptID uuid.UUID) (model.Order, error)
}

// ReconciliationServer is the server API of the operator service.
type ReconciliationServer interface {
	ListStuckCheckouts(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	ReplayCheckout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ReconciliationServiceDesc describes the operator service. Messages are
// protobuf well-known types so no generated code is needed.
var ReconciliationServiceDesc = grpc.ServiceDesc{
	ServiceName: ReconciliationServiceName,
	HandlerType: (*ReconciliationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListStuckCheckouts", Handler: listStuckCheckoutsHandler},
		{MethodName: "ReplayCheckout", Handler: replayCheckoutHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sickfits/ops/v1/reconciliation.proto",
}

// RegisterReconciliationServer registers srv on s.
func RegisterReconciliationServer(s grpc.ServiceRegistrar, srv ReconciliationServer) {
	s.RegisterService(&ReconciliationServiceDesc, srv)
}

func listStuckCheckoutsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReconciliationServer).ListStuckCheckouts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ReconciliationServiceName + "/ListStuckCheckouts",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReconciliationServer).ListStuckCheckouts(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func replayCheckoutHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReconciliationServer).ReplayCheckout(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ReconciliationServiceName + "/ReplayCheckout",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReconciliationServer).ReplayCheckout(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var _ ReconciliationServer = (*Reconciliation)(nil)

// Reconciliation handles operator requests for charged but unfinished checkouts.
type Reconciliation struct {
	reconcileService ReconcileService
	logger           *logger.Logger
}

func NewReconciliation(reconcileService ReconcileService, logger *logger.Logger) *Reconciliation {
	return &Reconciliation{
		reconcileService: reconcileService,
		logger:           logger,
	}
}

// ListStuckCheckouts returns {"attempts": [...]} for charged or inconsistent attempts.
func (h *Reconciliation) ListStuckCheckouts(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	h.logger.Debug("Reconciliation handler: processing list stuck checkouts request")

	attempts, err := h.reconcileService.ListStuck(ctx)
	if err != nil {
		h.logger.Error("Reconciliation handler: list stuck checkouts failed",
			"error", err.Error())
		return nil, handleError(err)
	}

	list := make([]any, 0, len(attempts))
	for _, a := range attempts {
		list = append(list, attemptFields(a))
	}

	resp, err := structpb.NewStruct(map[string]any{"attempts": list})
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return resp, nil
}

// ReplayCheckout completes the order of {"attempt_id": "..."}.
func (h *Reconciliation) ReplayCheckout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw := req.GetFields()["attempt_id"].GetStringValue()
	attemptID, err := uuid.Parse(raw)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "attempt_id must be a uuid")
	}

	h.logger.Debug("Reconciliation handler: processing replay request",
		"attempt_id", attemptID.String())

	order, err := h.reconcileService.Replay(ctx, attemptID)
	if err != nil {
		h.logger.Error("Reconciliation handler: replay failed",
			"attempt_id", attemptID.String(),
			"error", err.Error())
		return nil, handleError(err)
	}

	h.logger.Info("Reconciliation handler: replay completed",
		"attempt_id", attemptID.String(),
		"order_id", order.ID.String())

	resp, err := structpb.NewStruct(map[string]any{
		"order_id": order.ID.String(),
		"total":    order.Total,
		"charge":   order.ChargeID,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return resp, nil
}

func attemptFields(a model.CheckoutAttempt) map[string]any {
	fields := map[string]any{
		"id":             a.ID.String(),
		"user_id":        a.UserID.String(),
		"status":         string(a.Status),
		"total":          a.Total,
		"currency":       a.Currency,
		"charge_id":      a.ChargeID,
		"charged_amount": a.ChargedAmount,
		"failure_reason": a.FailureReason,
		"created_at":     a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.OrderID != nil {
		fields["order_id"] = a.OrderID.String()
	}
	return fields
}
