package domain

import "time"

type Account struct {
	ID           uint
	Username     string
	PasswordHash string
	Email        *string
	IsActive     bool
	IsStaff      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile holds the contact details used for delivery. AccountID is nil for
// guest profiles created through anonymous checkout.
type Profile struct {
	ID        uint
	AccountID *uint
	Name      string
	Phone     string
	Address   string
	Photo     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Profile) IsClaimed() bool {
	return p.AccountID != nil
}

func (p *Profile) IsOwnedBy(accountID uint) bool {
	return p.AccountID != nil && *p.AccountID == accountID
}

// MissingContactFields lists the contact fields that are blank.
func (p *Profile) MissingContactFields() []string {
	var missing []string
	if p.Name == "" {
		missing = append(missing, "name")
	}
	if p.Phone == "" {
		missing = append(missing, "phone")
	}
	if p.Address == "" {
		missing = append(missing, "address")
	}
	return missing
}

// ProfilePatch carries the mutable contact fields. Phone is deliberately absent.
type ProfilePatch struct {
	Name    *string
	Address *string
	Photo   *string
}

func (p ProfilePatch) IsEmpty() bool {
	return p.Name == nil && p.Address == nil && p.Photo == nil
}
