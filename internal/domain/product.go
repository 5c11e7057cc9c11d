package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uint
	Name        string
	Description string
	Price       decimal.Decimal
	Image       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewItem is a promotional banner shown on the storefront landing page.
type NewItem struct {
	ID              uint
	Title           string
	Description     *string
	BackgroundImage string
	SortOrder       int
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
