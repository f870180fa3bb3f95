package stripe

import (
	"context"
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v76"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/sickfits-server/internal/model"
)

type fakeCharges struct {
	params *stripe.ChargeParams
	charge *stripe.Charge
	err    error
}

func (f *fakeCharges) New(params *stripe.ChargeParams) (*stripe.Charge, error) {
	f.params = params
	return f.charge, f.err
}

func TestGateway_Capture(t *testing.T) {
	req := model.CaptureRequest{
		Amount:         2000,
		Currency:       "USD",
		Source:         "tok_visa",
		IdempotencyKey: "attempt-1",
		Description:    "order",
	}

	tests := []struct {
		name          string
		charge        *stripe.Charge
		err           error
		want          model.Charge
		declined      bool
		invalidSource bool
		wantErr       bool
	}{
		{
			name:   "captured",
			charge: &stripe.Charge{ID: "ch_1", Amount: 2000},
			want:   model.Charge{ID: "ch_1", Amount: 2000},
		},
		{
			name:     "card declined",
			err:      &stripe.Error{Type: stripe.ErrorTypeCard, Msg: "Your card was declined."},
			declined: true,
			wantErr:  true,
		},
		{
			name: "unknown token",
			err: &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, Code: stripe.ErrorCodeResourceMissing,
				Param: "source", Msg: "No such token: 'tok_nope'"},
			invalidSource: true,
			wantErr:       true,
		},
		{
			name: "token already used",
			err: &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, Code: stripe.ErrorCodeTokenAlreadyUsed,
				Msg: "You cannot use a Stripe token more than once"},
			invalidSource: true,
			wantErr:       true,
		},
		{
			name:          "source rejected",
			err:           &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, Param: "source", Msg: "Invalid source object"},
			invalidSource: true,
			wantErr:       true,
		},
		{
			name:    "invalid request unrelated to the source",
			err:     &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, Param: "amount", Msg: "Amount must be at least 50 cents"},
			wantErr: true,
		},
		{
			name:    "api error",
			err:     &stripe.Error{Type: stripe.ErrorTypeAPI, Msg: "boom"},
			wantErr: true,
		},
		{
			name:    "network error",
			err:     errors.New("connection reset"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCharges{charge: tt.charge, err: tt.err}
			g := NewGatewayWithAPI(fake)

			got, err := g.Capture(context.Background(), req)

			require.NotNil(t, fake.params)
			assert.Equal(t, int64(2000), *fake.params.Amount)
			assert.Equal(t, "usd", *fake.params.Currency)
			assert.Equal(t, "attempt-1", *fake.params.IdempotencyKey)
			assert.Equal(t, "order", *fake.params.Description)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.declined, errors.Is(err, model.ErrCardDeclined))
				assert.Equal(t, tt.invalidSource, errors.Is(err, model.ErrInvalidPaymentSource))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
