package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/errors"
	"storefront/internal/infrastructure/mysql"
	profileservice "storefront/internal/profile/service"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 72

	compensationTimeout = 5 * time.Second
)

type Repository interface {
	FindByID(ctx context.Context, id uint) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	Delete(ctx context.Context, id uint) error
}

type ProfileRegistry interface {
	FindByPhone(ctx context.Context, phone string) (*domain.Profile, error)
	FindByAccount(ctx context.Context, accountID uint) (*domain.Profile, error)
	CreateOrAttach(ctx context.Context, contact profileservice.Contact, accountID *uint) (*domain.Profile, bool, error)
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	Name            string
	Phone           string
	Address         string
}

type AccountRegistry struct {
	repo     Repository
	profiles ProfileRegistry
	hasher   PasswordHasher
	logger   *zap.Logger
}

func NewAccountRegistry(repo Repository, profiles ProfileRegistry, hasher PasswordHasher, logger *zap.Logger) *AccountRegistry {
	return &AccountRegistry{repo: repo, profiles: profiles, hasher: hasher, logger: logger}
}

// Register creates an account and links it to the profile for the given
// phone. If the profile step fails the account is deleted again.
func (s *AccountRegistry) Register(ctx context.Context, in RegisterInput) (*domain.Account, *domain.Profile, error) {
	in.Phone = profileservice.NormalizePhone(in.Phone)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" {
		in.Username = in.Phone
	}

	if details := validateRegistration(in); len(details) > 0 {
		return nil, nil, errors.NewValidationError("registration validation failed", details...)
	}

	logger := s.logger.With(zap.String("username", in.Username))

	existing, err := s.profiles.FindByPhone(ctx, in.Phone)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil && existing.IsClaimed() {
		return nil, nil, errors.NewPhoneAlreadyClaimedError()
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, nil, errors.NewInternalError("hashing password", err)
	}

	account := &domain.Account{
		Username:     in.Username,
		PasswordHash: hash,
		IsActive:     true,
	}
	if in.Email != "" {
		account.Email = &in.Email
	}

	if err := s.repo.Create(ctx, account); err != nil {
		if mysql.IsDuplicateEntry(err) {
			return nil, nil, errors.NewConflictError(errors.CodeUsernameTaken, "username is already taken")
		}
		return nil, nil, errors.NewInternalError("creating account", err)
	}

	profile, _, err := s.profiles.CreateOrAttach(ctx, profileservice.Contact{
		Name:    in.Name,
		Phone:   in.Phone,
		Address: in.Address,
	}, &account.ID)
	if err != nil {
		logger.Warn("profile attach failed, removing account", zap.Uint("accountId", account.ID), zap.Error(err))
		// The account must go even if the caller has already gone away.
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
		defer cancel()
		if delErr := s.repo.Delete(cleanupCtx, account.ID); delErr != nil {
			logger.Error("compensating account delete failed", zap.Uint("accountId", account.ID), zap.Error(delErr))
		}
		return nil, nil, err
	}

	logger.Info("account registered", zap.Uint("accountId", account.ID), zap.Uint("profileId", profile.ID))
	return account, profile, nil
}

// Authenticate verifies credentials. Unknown users, wrong passwords and
// inactive accounts all yield the same error.
func (s *AccountRegistry) Authenticate(ctx context.Context, username, password string) (*domain.Account, error) {
	invalid := errors.NewUnauthorizedError(errors.CodeInvalidCredentials, "invalid username or password")

	account, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if _, ok := errors.IsNotFoundError(err); ok {
			return nil, invalid
		}
		return nil, errors.NewInternalError("loading account", err)
	}

	if !account.IsActive || !s.hasher.Matches(account.PasswordHash, password) {
		s.logger.Info("login rejected", zap.Uint("accountId", account.ID), zap.Bool("active", account.IsActive))
		return nil, invalid
	}
	return account, nil
}

// Me loads the account and its profile; profile is nil when none is linked.
func (s *AccountRegistry) Me(ctx context.Context, accountID uint) (*domain.Account, *domain.Profile, error) {
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		if _, ok := errors.IsNotFoundError(err); ok {
			return nil, nil, errors.NewUnauthorizedError(errors.CodeInvalidToken, "account no longer exists")
		}
		return nil, nil, errors.NewInternalError("loading account", err)
	}

	profile, err := s.profiles.FindByAccount(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	return account, profile, nil
}

func validateRegistration(in RegisterInput) []errors.ValidationDetail {
	var details []errors.ValidationDetail
	if in.Phone == "" {
		details = append(details, errors.ValidationDetail{Field: "phone", Message: "phone is required", Code: errors.CodeMissingPhone})
	}
	if strings.TrimSpace(in.Name) == "" {
		details = append(details, errors.ValidationDetail{Field: "name", Message: "name is required", Code: errors.CodeMissingName})
	}
	if len(in.Password) < minPasswordLength {
		details = append(details, errors.ValidationDetail{Field: "password", Message: "password must be at least 6 characters"})
	} else if len(in.Password) > maxPasswordLength {
		details = append(details, errors.ValidationDetail{Field: "password", Message: "password must be at most 72 bytes"})
	}
	if in.Password != in.PasswordConfirm {
		details = append(details, errors.ValidationDetail{Field: "passwordConfirm", Message: "passwords do not match"})
	}
	if len(in.Username) > 150 {
		details = append(details, errors.ValidationDetail{Field: "username", Message: "username must be at most 150 characters"})
	}
	return details
}
