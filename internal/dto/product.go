package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// Money renders an amount with two decimal places.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type ProductResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Image       *string   `json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       Money(p.Price),
		Image:       p.Image,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func NewProductResponses(products []domain.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductResponse(p))
	}
	return out
}

type NewItemResponse struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description"`
	BackgroundImage string    `json:"backgroundImage"`
	Order           int       `json:"order"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func NewNewItemResponses(items []domain.NewItem) []NewItemResponse {
	out := make([]NewItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewItemResponse{
			ID:              item.ID,
			Title:           item.Title,
			Description:     item.Description,
			BackgroundImage: item.BackgroundImage,
			Order:           item.SortOrder,
			IsActive:        item.IsActive,
			CreatedAt:       item.CreatedAt,
			UpdatedAt:       item.UpdatedAt,
		})
	}
	return out
}
