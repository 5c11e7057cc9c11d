package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/response"
)

type captured struct {
	key     string
	value   []byte
	headers []kafkago.Header
}

type fakeQueue struct {
	messages []captured
	reject   bool
}

func (q *fakeQueue) Publish(key, value []byte, headers ...kafkago.Header) bool {
	if q.reject {
		return false
	}
	q.messages = append(q.messages, captured{key: string(key), value: value, headers: headers})
	return true
}

func TestOrderPlaced_WrapsPayloadInEnvelope(t *testing.T) {
	q := &fakeQueue{}
	pub := NewKafkaPublisher(q, zap.NewNop())
	pub.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	order := &domain.Order{
		ID:        42,
		ProfileID: 7,
		Items: []domain.OrderItem{
			{ProductID: 1, Name: "Strawberry box", Quantity: 2, Price: decimal.RequireFromString("50"), Total: decimal.RequireFromString("100")},
		},
		TotalPrice: decimal.RequireFromString("100"),
		Status:     domain.OrderStatusPending,
	}
	ctx := response.WithTraceID(context.Background(), "trace-1")

	pub.OrderPlaced(ctx, order, &domain.Profile{ID: 7, Phone: "+992900000001"})

	require.Len(t, q.messages, 1)
	msg := q.messages[0]
	assert.Equal(t, "42", msg.key)
	assert.Equal(t, "x-event-type", msg.headers[0].Key)
	assert.Equal(t, EventOrderPlaced, string(msg.headers[0].Value))

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.value, &env))
	assert.Equal(t, EventOrderPlaced, env.EventType)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, "trace-1", env.TraceID)
	assert.Equal(t, "42", env.CorrelationID)
	assert.NotEmpty(t, env.EventID)

	var payload OrderPlacedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "100.00", payload.TotalPrice)
	assert.Equal(t, "+992900000001", payload.Phone)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, "50.00", payload.Items[0].Price)
}

func TestOrderStatusChanged(t *testing.T) {
	q := &fakeQueue{}
	order := &domain.Order{ID: 3, Status: domain.OrderStatusConfirmed}

	NewKafkaPublisher(q, zap.NewNop()).OrderStatusChanged(context.Background(), order, domain.OrderStatusPending)

	require.Len(t, q.messages, 1)
	var env Envelope
	require.NoError(t, json.Unmarshal(q.messages[0].value, &env))
	var payload OrderStatusChangedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "pending", payload.From)
	assert.Equal(t, "confirmed", payload.To)
}

func TestPublish_DroppedMessageDoesNotPanic(t *testing.T) {
	q := &fakeQueue{reject: true}
	assert.NotPanics(t, func() {
		NewKafkaPublisher(q, zap.NewNop()).OrderStatusChanged(context.Background(), &domain.Order{ID: 1}, domain.OrderStatusPending)
	})
}
