package dto

import (
	"time"

	"storefront/internal/domain"
)

type ProfileResponse struct {
	ID        uint      `json:"id"`
	AccountID *uint     `json:"accountId"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Photo     *string   `json:"photo"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewProfileResponse maps p, returning nil for a nil profile.
func NewProfileResponse(p *domain.Profile) *ProfileResponse {
	if p == nil {
		return nil
	}
	return &ProfileResponse{
		ID:        p.ID,
		AccountID: p.AccountID,
		Name:      p.Name,
		Phone:     p.Phone,
		Address:   p.Address,
		Photo:     p.Photo,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type AccountResponse struct {
	ID       uint    `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email"`
	IsStaff  bool    `json:"isStaff"`
}

func NewAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{ID: a.ID, Username: a.Username, Email: a.Email, IsStaff: a.IsStaff}
}
