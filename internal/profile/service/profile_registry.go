package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/errors"
	"storefront/internal/infrastructure/mysql"
)

const maxSettleAttempts = 3

type Repository interface {
	FindByID(ctx context.Context, id uint) (*domain.Profile, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Profile, error)
	FindByAccountID(ctx context.Context, accountID uint) (*domain.Profile, error)
	Create(ctx context.Context, p *domain.Profile) error
	OverwriteUnclaimed(ctx context.Context, id uint, name, address string) (bool, error)
	OverwriteOwned(ctx context.Context, id, accountID uint, name, address string) (bool, error)
	Attach(ctx context.Context, id, accountID uint, name, address string) (bool, error)
	UpdateContact(ctx context.Context, id uint, patch domain.ProfilePatch) error
}

// Contact is the set of fields a checkout or registration supplies for a profile.
type Contact struct {
	Name    string
	Phone   string
	Address string
}

func (c Contact) normalized() Contact {
	return Contact{
		Name:    strings.TrimSpace(c.Name),
		Phone:   NormalizePhone(c.Phone),
		Address: strings.TrimSpace(c.Address),
	}
}

// NormalizePhone removes all whitespace from phone.
func NormalizePhone(phone string) string {
	return strings.Join(strings.Fields(phone), "")
}

type ProfileRegistry struct {
	repo   Repository
	logger *zap.Logger
}

func NewProfileRegistry(repo Repository, logger *zap.Logger) *ProfileRegistry {
	return &ProfileRegistry{repo: repo, logger: logger}
}

// FindByPhone returns nil without error when no profile holds the phone.
func (s *ProfileRegistry) FindByPhone(ctx context.Context, phone string) (*domain.Profile, error) {
	return s.optional(s.repo.FindByPhone(ctx, NormalizePhone(phone)))
}

// FindByAccount returns the profile linked to accountID, or nil when the
// account has none.
func (s *ProfileRegistry) FindByAccount(ctx context.Context, accountID uint) (*domain.Profile, error) {
	return s.optional(s.repo.FindByAccountID(ctx, accountID))
}

func (s *ProfileRegistry) optional(p *domain.Profile, err error) (*domain.Profile, error) {
	if err != nil {
		if _, ok := errors.IsNotFoundError(err); ok {
			return nil, nil
		}
		return nil, errors.NewInternalError("loading profile", err)
	}
	return p, nil
}

// CreateOrAttach settles the single profile for contact.Phone. It creates
// the profile when absent, overwrites name and address otherwise (latest
// wins) and links accountID to an unowned profile. The boolean reports
// whether a new profile was inserted. Address may be blank only when an
// account is supplied; a blank address never replaces a stored one.
func (s *ProfileRegistry) CreateOrAttach(ctx context.Context, contact Contact, accountID *uint) (*domain.Profile, bool, error) {
	contact = contact.normalized()
	if details := validateContact(contact, accountID == nil); len(details) > 0 {
		return nil, false, errors.NewValidationError("invalid contact details", details...)
	}

	logger := s.logger.With(zap.Bool("withAccount", accountID != nil))

	for attempt := 1; attempt <= maxSettleAttempts; attempt++ {
		existing, err := s.repo.FindByPhone(ctx, contact.Phone)
		if _, ok := errors.IsNotFoundError(err); ok {
			created, err := s.insert(ctx, contact, accountID)
			if err == nil {
				logger.Info("profile created", zap.Uint("profileId", created.ID))
				return created, true, nil
			}
			if mysql.IsDuplicateEntry(err) {
				if conflictErr := s.accountAlreadyLinked(ctx, accountID); conflictErr != nil {
					return nil, false, conflictErr
				}
				logger.Debug("concurrent profile insert, re-reading", zap.Int("attempt", attempt))
				continue
			}
			return nil, false, errors.NewInternalError("creating profile", err)
		}
		if err != nil {
			return nil, false, errors.NewInternalError("loading profile", err)
		}

		settled, err := s.settleExisting(ctx, existing, contact, accountID)
		if err != nil {
			return nil, false, err
		}
		if !settled {
			logger.Debug("profile ownership changed concurrently, re-reading",
				zap.Uint("profileId", existing.ID), zap.Int("attempt", attempt))
			continue
		}

		updated, err := s.repo.FindByID(ctx, existing.ID)
		if err != nil {
			return nil, false, errors.NewInternalError("reloading profile", err)
		}
		return updated, false, nil
	}

	logger.Warn("profile could not be settled", zap.Int("attempts", maxSettleAttempts))
	return nil, false, errors.NewInternalError("profile could not be settled after concurrent updates", nil)
}

func (s *ProfileRegistry) insert(ctx context.Context, contact Contact, accountID *uint) (*domain.Profile, error) {
	p := &domain.Profile{
		AccountID: accountID,
		Name:      contact.Name,
		Phone:     contact.Phone,
		Address:   contact.Address,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// settleExisting applies the overwrite/attach rules to a profile found by
// phone. It returns false when a conditional update lost a race.
func (s *ProfileRegistry) settleExisting(ctx context.Context, existing *domain.Profile, contact Contact, accountID *uint) (bool, error) {
	var (
		ok  bool
		err error
	)

	if contact.Address == "" {
		contact.Address = existing.Address
	}

	switch {
	case existing.IsClaimed() && accountID != nil && existing.IsOwnedBy(*accountID):
		ok, err = s.repo.OverwriteOwned(ctx, existing.ID, *accountID, contact.Name, contact.Address)
	case existing.IsClaimed():
		return false, errors.NewPhoneAlreadyClaimedError()
	case accountID != nil:
		ok, err = s.repo.Attach(ctx, existing.ID, *accountID, contact.Name, contact.Address)
		if err != nil && mysql.IsDuplicateEntry(err) {
			return false, errors.NewConflictError(errors.CodeAccountHasProfile, "account is already linked to another profile")
		}
	default:
		ok, err = s.repo.OverwriteUnclaimed(ctx, existing.ID, contact.Name, contact.Address)
	}

	if err != nil {
		return false, errors.NewInternalError("updating profile", err)
	}
	return ok, nil
}

func (s *ProfileRegistry) accountAlreadyLinked(ctx context.Context, accountID *uint) error {
	if accountID == nil {
		return nil
	}
	linked, err := s.FindByAccount(ctx, *accountID)
	if err != nil {
		return err
	}
	if linked != nil {
		return errors.NewConflictError(errors.CodeAccountHasProfile, "account is already linked to another profile")
	}
	return nil
}

// UpdateContactable changes name, address or photo. The phone number is
// immutable and cannot be expressed in a patch.
func (s *ProfileRegistry) UpdateContactable(ctx context.Context, profileID uint, patch domain.ProfilePatch) (*domain.Profile, error) {
	var details []errors.ValidationDetail
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
		details = append(details, validateName(name)...)
	}
	if patch.Address != nil {
		address := strings.TrimSpace(*patch.Address)
		patch.Address = &address
		if address == "" {
			details = append(details, errors.ValidationDetail{Field: "address", Message: "address must not be blank", Code: errors.CodeMissingAddress})
		}
	}
	if len(details) > 0 {
		return nil, errors.NewValidationError("invalid profile update", details...)
	}

	if !patch.IsEmpty() {
		if err := s.repo.UpdateContact(ctx, profileID, patch); err != nil {
			if _, ok := errors.IsNotFoundError(err); ok {
				return nil, err
			}
			return nil, errors.NewInternalError("updating profile", err)
		}
		s.logger.Info("profile updated", zap.Uint("profileId", profileID))
	}

	p, err := s.repo.FindByID(ctx, profileID)
	if err != nil {
		if _, ok := errors.IsNotFoundError(err); ok {
			return nil, err
		}
		return nil, errors.NewInternalError("loading profile", err)
	}
	return p, nil
}

func validateContact(c Contact, requireAddress bool) []errors.ValidationDetail {
	var details []errors.ValidationDetail
	if c.Phone == "" {
		details = append(details, errors.ValidationDetail{Field: "phone", Message: "phone is required", Code: errors.CodeMissingPhone})
	} else if utf8.RuneCountInString(c.Phone) > 20 {
		details = append(details, errors.ValidationDetail{Field: "phone", Message: "phone must be at most 20 characters"})
	}
	if c.Address == "" && requireAddress {
		details = append(details, errors.ValidationDetail{Field: "address", Message: "address is required", Code: errors.CodeMissingAddress})
	}
	details = append(details, validateName(c.Name)...)
	return details
}

func validateName(name string) []errors.ValidationDetail {
	if name == "" {
		return []errors.ValidationDetail{{Field: "name", Message: "name is required", Code: errors.CodeMissingName}}
	}
	if utf8.RuneCountInString(name) > 200 {
		return []errors.ValidationDetail{{Field: "name", Message: "name must be at most 200 characters"}}
	}
	return nil
}
