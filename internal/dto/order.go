package dto

import (
	"time"

	"storefront/internal/domain"
)

type OrderItemResponse struct {
	ProductID uint   `json:"productId,omitempty"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	Total     string `json:"total"`
}

type OrderResponse struct {
	ID                    uint                `json:"id"`
	ProfileID             uint                `json:"profileId"`
	Items                 []OrderItemResponse `json:"items"`
	TotalPrice            string              `json:"totalPrice"`
	Status                string              `json:"status"`
	NotificationMessageID *string             `json:"notificationMessageId"`
	CreatedAt             time.Time           `json:"createdAt"`
	UpdatedAt             time.Time           `json:"updatedAt"`
}

func NewOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     Money(item.Price),
			Total:     Money(item.Total),
		})
	}
	return OrderResponse{
		ID:                    o.ID,
		ProfileID:             o.ProfileID,
		Items:                 items,
		TotalPrice:            Money(o.TotalPrice),
		Status:                string(o.Status),
		NotificationMessageID: o.NotificationMessageID,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
}

// PlaceOrderResponse is the body of a successful checkout.
type PlaceOrderResponse struct {
	OrderResponse
	ProfileCreated bool `json:"profileCreated"`
}
