// Package stripe captures checkout payments through Stripe charges.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/charge"

	"github.com/dtroode/sickfits-server/internal/model"
)

var _ model.PaymentGateway = (*Gateway)(nil)

type chargeAPI interface {
	New(params *stripe.ChargeParams) (*stripe.Charge, error)
}

type Gateway struct {
	charges chargeAPI
}

func NewGateway(secretKey string) *Gateway {
	return NewGatewayWithAPI(&charge.Client{
		B:   stripe.GetBackend(stripe.APIBackend),
		Key: secretKey,
	})
}

func NewGatewayWithAPI(api chargeAPI) *Gateway {
	return &Gateway{charges: api}
}

// Capture charges the source. Card errors map to model.ErrCardDeclined and
// rejected sources to model.ErrInvalidPaymentSource; both mean nothing was
// charged.
func (g *Gateway) Capture(ctx context.Context, req model.CaptureRequest) (model.Charge, error) {
	params := &stripe.ChargeParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if err := params.SetSource(req.Source); err != nil {
		return model.Charge{}, fmt.Errorf("%w: %v", model.ErrInvalidPaymentSource, err)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.Context = ctx

	ch, err := g.charges.New(params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) {
			switch {
			case serr.Type == stripe.ErrorTypeCard:
				return model.Charge{}, fmt.Errorf("%w: %s", model.ErrCardDeclined, serr.Msg)
			case rejectedSource(serr):
				return model.Charge{}, fmt.Errorf("%w: %s", model.ErrInvalidPaymentSource, serr.Msg)
			}
		}
		return model.Charge{}, fmt.Errorf("failed to create charge: %w", err)
	}

	return model.Charge{ID: ch.ID, Amount: ch.Amount}, nil
}

// rejectedSource reports an invalid request caused by the payment token
// itself: unknown, already used, or otherwise refused.
func rejectedSource(serr *stripe.Error) bool {
	if serr.Type != stripe.ErrorTypeInvalidRequest {
		return false
	}
	switch serr.Code {
	case stripe.ErrorCodeResourceMissing, stripe.ErrorCodeTokenAlreadyUsed:
		return true
	}
	return serr.Param == "source"
}
