package service

import (
	"context"
	"errors"
	"testing"

	driver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/domain"
	apperrors "storefront/internal/errors"
	profileservice "storefront/internal/profile/service"
)

type mockRepository struct {
	FindByIDFunc       func(ctx context.Context, id uint) (*domain.Account, error)
	FindByUsernameFunc func(ctx context.Context, username string) (*domain.Account, error)
	CreateFunc         func(ctx context.Context, a *domain.Account) error
	DeleteFunc         func(ctx context.Context, id uint) error
}

func (m *mockRepository) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return m.FindByUsernameFunc(ctx, username)
}

func (m *mockRepository) Create(ctx context.Context, a *domain.Account) error {
	return m.CreateFunc(ctx, a)
}

func (m *mockRepository) Delete(ctx context.Context, id uint) error {
	return m.DeleteFunc(ctx, id)
}

type mockProfiles struct {
	FindByPhoneFunc    func(ctx context.Context, phone string) (*domain.Profile, error)
	FindByAccountFunc  func(ctx context.Context, accountID uint) (*domain.Profile, error)
	CreateOrAttachFunc func(ctx context.Context, contact profileservice.Contact, accountID *uint) (*domain.Profile, bool, error)
}

func (m *mockProfiles) FindByPhone(ctx context.Context, phone string) (*domain.Profile, error) {
	return m.FindByPhoneFunc(ctx, phone)
}

func (m *mockProfiles) FindByAccount(ctx context.Context, accountID uint) (*domain.Profile, error) {
	return m.FindByAccountFunc(ctx, accountID)
}

func (m *mockProfiles) CreateOrAttach(ctx context.Context, contact profileservice.Contact, accountID *uint) (*domain.Profile, bool, error) {
	return m.CreateOrAttachFunc(ctx, contact, accountID)
}

// plainHasher keeps tests fast; bcrypt is covered separately.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (plainHasher) Matches(hash, password string) bool   { return hash == "hashed:"+password }

func validInput() RegisterInput {
	return RegisterInput{
		Password:        "secret1",
		PasswordConfirm: "secret1",
		Name:            "Malika",
		Phone:           "+992 93 555 11 22",
		Address:         "Somoni 5",
	}
}

func noProfile(context.Context, string) (*domain.Profile, error) { return nil, nil }

func TestRegister_CreatesAccountAndAttachesProfile(t *testing.T) {
	var created *domain.Account
	repo := &mockRepository{
		CreateFunc: func(ctx context.Context, a *domain.Account) error {
			a.ID = 7
			created = a
			return nil
		},
	}
	profiles := &mockProfiles{
		FindByPhoneFunc: noProfile,
		CreateOrAttachFunc: func(ctx context.Context, contact profileservice.Contact, accountID *uint) (*domain.Profile, bool, error) {
			require.NotNil(t, accountID)
			assert.Equal(t, uint(7), *accountID)
			assert.Equal(t, "+992935551122", contact.Phone)
			return &domain.Profile{ID: 3, AccountID: accountID, Name: contact.Name, Phone: contact.Phone, Address: contact.Address}, false, nil
		},
	}

	account, profile, err := NewAccountRegistry(repo, profiles, plainHasher{}, zap.NewNop()).Register(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, uint(7), account.ID)
	assert.Equal(t, "+992935551122", created.Username, "username defaults to the phone")
	assert.Equal(t, "hashed:secret1", created.PasswordHash)
	assert.True(t, created.IsActive)
	assert.False(t, created.IsStaff)
	assert.Nil(t, created.Email)
	assert.Equal(t, uint(3), profile.ID)
}

func TestRegister_CollectsValidationDetails(t *testing.T) {
	in := RegisterInput{Password: "abc", PasswordConfirm: "xyz"}

	_, _, err := NewAccountRegistry(&mockRepository{}, &mockProfiles{}, plainHasher{}, zap.NewNop()).Register(context.Background(), in)

	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.True(t, ve.HasCode(apperrors.CodeMissingPhone))
	assert.True(t, ve.HasCode(apperrors.CodeMissingName))
	assert.False(t, ve.HasCode(apperrors.CodeMissingAddress), "address is optional at registration")

	fields := make([]string, 0, len(ve.Details))
	for _, d := range ve.Details {
		fields = append(fields, d.Field)
	}
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "passwordConfirm")
}

func TestRegister_RejectsClaimedPhoneBeforeCreatingAccount(t *testing.T) {
	owner := uint(1)
	repo := &mockRepository{
		CreateFunc: func(ctx context.Context, a *domain.Account) error {
			t.Fatal("account must not be created")
			return nil
		},
	}
	profiles := &mockProfiles{
		FindByPhoneFunc: func(ctx context.Context, phone string) (*domain.Profile, error) {
			return &domain.Profile{ID: 2, AccountID: &owner, Phone: phone}, nil
		},
	}

	_, _, err := NewAccountRegistry(repo, profiles, plainHasher{}, zap.NewNop()).Register(context.Background(), validInput())
	assert.True(t, apperrors.IsPhoneAlreadyClaimed(err))
}

func TestRegister_DuplicateUsername(t *testing.T) {
	repo := &mockRepository{
		CreateFunc: func(ctx context.Context, a *domain.Account) error {
			return &driver.MySQLError{Number: 1062, Message: "Duplicate entry"}
		},
	}
	profiles := &mockProfiles{FindByPhoneFunc: noProfile}

	_, _, err := NewAccountRegistry(repo, profiles, plainHasher{}, zap.NewNop()).Register(context.Background(), validInput())

	ce, ok := apperrors.IsConflictError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeUsernameTaken, ce.Code)
}

func TestRegister_DeletesAccountWhenProfileAttachFails(t *testing.T) {
	var deleted uint
	repo := &mockRepository{
		CreateFunc: func(ctx context.Context, a *domain.Account) error {
			a.ID = 9
			return nil
		},
		DeleteFunc: func(ctx context.Context, id uint) error {
			deleted = id
			return nil
		},
	}
	profiles := &mockProfiles{
		FindByPhoneFunc: noProfile,
		CreateOrAttachFunc: func(ctx context.Context, contact profileservice.Contact, accountID *uint) (*domain.Profile, bool, error) {
			return nil, false, apperrors.NewPhoneAlreadyClaimedError()
		},
	}

	_, _, err := NewAccountRegistry(repo, profiles, plainHasher{}, zap.NewNop()).Register(context.Background(), validInput())
	assert.True(t, apperrors.IsPhoneAlreadyClaimed(err))
	assert.Equal(t, uint(9), deleted)
}

func TestRegister_KeepsOriginalErrorWhenCompensationFails(t *testing.T) {
	attachErr := apperrors.NewInternalError("creating profile", errors.New("boom"))
	repo := &mockRepository{
		CreateFunc: func(ctx context.Context, a *domain.Account) error { a.ID = 4; return nil },
		DeleteFunc: func(ctx context.Context, id uint) error { return errors.New("connection lost") },
	}
	profiles := &mockProfiles{
		FindByPhoneFunc: noProfile,
		CreateOrAttachFunc: func(ctx context.Context, contact profileservice.Contact, accountID *uint) (*domain.Profile, bool, error) {
			return nil, false, attachErr
		},
	}

	_, _, err := NewAccountRegistry(repo, profiles, plainHasher{}, zap.NewNop()).Register(context.Background(), validInput())
	assert.Same(t, attachErr, err)
}

func TestRegister_DeletesAccountAfterRequestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var deleted uint
	repo := &mockRepository{
		CreateFunc: func(ctx context.Context, a *domain.Account) error { a.ID = 12; return nil },
		DeleteFunc: func(ctx context.Context, id uint) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			deleted = id
			return nil
		},
	}
	profiles := &mockProfiles{
		FindByPhoneFunc: noProfile,
		CreateOrAttachFunc: func(ctx context.Context, contact profileservice.Contact, accountID *uint) (*domain.Profile, bool, error) {
			cancel()
			return nil, false, ctx.Err()
		},
	}

	_, _, err := NewAccountRegistry(repo, profiles, plainHasher{}, zap.NewNop()).Register(ctx, validInput())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint(12), deleted)
}

func TestAuthenticate(t *testing.T) {
	active := &domain.Account{ID: 5, Username: "malika", PasswordHash: "hashed:secret1", IsActive: true}
	inactive := &domain.Account{ID: 6, Username: "old", PasswordHash: "hashed:secret1", IsActive: false}

	repo := &mockRepository{
		FindByUsernameFunc: func(ctx context.Context, username string) (*domain.Account, error) {
			switch username {
			case "malika":
				return active, nil
			case "old":
				return inactive, nil
			}
			return nil, apperrors.NewNotFoundError("account not found")
		},
	}
	registry := NewAccountRegistry(repo, &mockProfiles{}, plainHasher{}, zap.NewNop())

	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{name: "valid credentials", username: "malika", password: "secret1"},
		{name: "username is trimmed", username: "  malika ", password: "secret1"},
		{name: "wrong password", username: "malika", password: "nope", wantErr: true},
		{name: "unknown user", username: "ghost", password: "secret1", wantErr: true},
		{name: "inactive account", username: "old", password: "secret1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, err := registry.Authenticate(context.Background(), tt.username, tt.password)
			if tt.wantErr {
				ue, ok := apperrors.IsUnauthorizedError(err)
				require.True(t, ok)
				assert.Equal(t, apperrors.CodeInvalidCredentials, ue.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint(5), account.ID)
		})
	}
}

func TestMe_ReturnsAccountWithoutProfile(t *testing.T) {
	repo := &mockRepository{
		FindByIDFunc: func(ctx context.Context, id uint) (*domain.Account, error) {
			return &domain.Account{ID: id, Username: "staff", IsStaff: true, IsActive: true}, nil
		},
	}
	profiles := &mockProfiles{
		FindByAccountFunc: func(ctx context.Context, accountID uint) (*domain.Profile, error) { return nil, nil },
	}

	account, profile, err := NewAccountRegistry(repo, profiles, plainHasher{}, zap.NewNop()).Me(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, uint(12), account.ID)
	assert.Nil(t, profile)
}

func TestMe_DeletedAccount(t *testing.T) {
	repo := &mockRepository{
		FindByIDFunc: func(ctx context.Context, id uint) (*domain.Account, error) {
			return nil, apperrors.NewNotFoundError("account not found")
		},
	}

	_, _, err := NewAccountRegistry(repo, &mockProfiles{}, plainHasher{}, zap.NewNop()).Me(context.Background(), 12)
	_, ok := apperrors.IsUnauthorizedError(err)
	assert.True(t, ok)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)

	hash, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.True(t, h.Matches(hash, "secret1"))
	assert.False(t, h.Matches(hash, "secret2"))
}
