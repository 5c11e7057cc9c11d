package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/dto"
	"storefront/internal/response"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"

	eventVersion = 1
	producerName = "storefront-api"
)

// Envelope wraps every event published to the order topic. Messages are
// keyed by order id so the events of one order stay ordered.
type Envelope struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	EventVersion  int             `json:"eventVersion"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"traceId,omitempty"`
	CorrelationID string          `json:"correlationId"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderPlacedPayload struct {
	OrderID    uint                    `json:"orderId"`
	ProfileID  uint                    `json:"profileId"`
	Phone      string                  `json:"phone"`
	Items      []dto.OrderItemResponse `json:"items"`
	TotalPrice string                  `json:"totalPrice"`
	Status     string                  `json:"status"`
	CreatedAt  time.Time               `json:"createdAt"`
}

type OrderStatusChangedPayload struct {
	OrderID   uint      `json:"orderId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"changedAt"`
}

// Enqueuer accepts a message for asynchronous delivery.
type Enqueuer interface {
	Publish(key, value []byte, headers ...kafkago.Header) bool
}

type Publisher interface {
	OrderPlaced(ctx context.Context, order *domain.Order, profile *domain.Profile)
	OrderStatusChanged(ctx context.Context, order *domain.Order, from domain.OrderStatus)
}

type KafkaPublisher struct {
	queue  Enqueuer
	now    func() time.Time
	logger *zap.Logger
}

func NewKafkaPublisher(queue Enqueuer, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{queue: queue, now: time.Now, logger: logger}
}

func (p *KafkaPublisher) OrderPlaced(ctx context.Context, order *domain.Order, profile *domain.Profile) {
	resp := dto.NewOrderResponse(order)
	payload := OrderPlacedPayload{
		OrderID:    order.ID,
		ProfileID:  order.ProfileID,
		Items:      resp.Items,
		TotalPrice: resp.TotalPrice,
		Status:     resp.Status,
		CreatedAt:  order.CreatedAt,
	}
	if profile != nil {
		payload.Phone = profile.Phone
	}
	p.publish(ctx, EventOrderPlaced, order.ID, payload)
}

func (p *KafkaPublisher) OrderStatusChanged(ctx context.Context, order *domain.Order, from domain.OrderStatus) {
	p.publish(ctx, EventOrderStatusChanged, order.ID, OrderStatusChangedPayload{
		OrderID:   order.ID,
		From:      string(from),
		To:        string(order.Status),
		ChangedAt: order.UpdatedAt,
	})
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType string, orderID uint, payload any) {
	logger := p.logger.With(zap.String("eventType", eventType), zap.Uint("orderId", orderID))

	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("encoding event payload", zap.Error(err))
		return
	}

	key := strconv.FormatUint(uint64(orderID), 10)
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  eventVersion,
		OccurredAt:    p.now().UTC(),
		Producer:      producerName,
		TraceID:       response.TraceID(ctx),
		CorrelationID: key,
		Payload:       body,
	}
	value, err := json.Marshal(env)
	if err != nil {
		logger.Error("encoding event envelope", zap.Error(err))
		return
	}

	if !p.queue.Publish([]byte(key), value,
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(eventVersion))},
	) {
		logger.Warn("order event dropped", zap.String("eventId", env.EventID))
		return
	}
	logger.Debug("order event queued", zap.String("eventId", env.EventID))
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) OrderPlaced(context.Context, *domain.Order, *domain.Profile) {}
func (NopPublisher) OrderStatusChanged(context.Context, *domain.Order, domain.OrderStatus) {}
