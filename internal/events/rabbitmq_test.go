package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/sickfits-server/internal/model"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange = exchange
	f.key = key
	f.msg = msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		event   model.Event
		pubErr  error
		wantErr bool
	}{
		{
			name: "order created",
			event: model.Event{
				Type:     model.EventOrderCreated,
				UserID:   "u-1",
				Metadata: map[string]any{"order_id": "o-1", "total": 2000},
			},
		},
		{
			name:  "without metadata",
			event: model.Event{Type: model.EventUserSignedUp, UserID: "u-2"},
		},
		{
			name:    "broker error",
			event:   model.Event{Type: model.EventCheckoutInconsistent},
			pubErr:  errors.New("channel closed"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &fakeChannel{err: tt.pubErr}
			p := newPublisher(ch, "sickfits")
			p.now = func() time.Time { return fixed }

			err := p.Publish(context.Background(), tt.event)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.pubErr)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, "sickfits", ch.exchange)
			assert.Equal(t, tt.event.Type, ch.key)
			assert.Equal(t, "application/json", ch.msg.ContentType)
			assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
			assert.Equal(t, fixed, ch.msg.Timestamp)

			var got message
			require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
			assert.Equal(t, tt.event.Type, got.Type)
			assert.Equal(t, tt.event.UserID, got.UserID)
			assert.Equal(t, len(tt.event.Metadata), len(got.Metadata))
		})
	}
}

func TestPublisher_Close(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, "sickfits")

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), model.Event{Type: "anything"}))
}
