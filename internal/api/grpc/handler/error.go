package handler

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/sickfits-server/internal/model"
)

var kindCodes = map[model.ErrorKind]codes.Code{
	model.KindAuthenticationRequired:    codes.Unauthenticated,
	model.KindAuthorizationDenied:       codes.PermissionDenied,
	model.KindNotFound:                  codes.NotFound,
	model.KindValidationFailed:          codes.FailedPrecondition,
	model.KindExpiredOrInvalidToken:     codes.Unauthenticated,
	model.KindPaymentDeclined:           codes.FailedPrecondition,
	model.KindUpstreamFailure:           codes.Unavailable,
	model.KindInconsistentCheckoutState: codes.Internal,
}

func handleError(err error) error {
	var e *model.Error
	if errors.As(err, &e) {
		if code, ok := kindCodes[e.Kind]; ok {
			return status.Error(code, e.Message)
		}
	}
	return status.Error(codes.Internal, "internal server error")
}
