package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusPreparing  OrderStatus = "preparing"
	OrderStatusDelivering OrderStatus = "delivering"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var validNext = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing:  {OrderStatusDelivering},
	OrderStatusDelivering: {OrderStatusCompleted},
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusDelivering, OrderStatusCompleted, OrderStatusCancelled:
		return st, true
	}
	return "", false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range validNext[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return len(validNext[s]) == 0
}

type Order struct {
	ID                    uint
	ProfileID             uint
	Items                 []OrderItem
	TotalPrice            decimal.Decimal
	Status                OrderStatus
	NotificationMessageID *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// OrderItem is a snapshot of a cart line at checkout time. It is never
// re-derived from the catalog after the order is stored.
type OrderItem struct {
	ProductID uint
	Name      string
	Quantity  int
	Price     decimal.Decimal
	Total     decimal.Decimal
}
