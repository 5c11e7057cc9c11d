package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	driver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/domain"
	apperrors "storefront/internal/errors"
)

type mockOrderRepository struct {
	FindByIDFunc          func(ctx context.Context, id uint) (*domain.Order, error)
	FindByIDForUpdateFunc func(ctx context.Context, tx *sql.Tx, id uint) (*domain.Order, error)
	ListByProfileFunc     func(ctx context.Context, profileID uint) ([]domain.Order, error)
	UpdateStatusFunc      func(ctx context.Context, tx *sql.Tx, id uint, status domain.OrderStatus) error
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockOrderRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id uint) (*domain.Order, error) {
	return m.FindByIDForUpdateFunc(ctx, tx, id)
}

func (m *mockOrderRepository) ListByProfile(ctx context.Context, profileID uint) ([]domain.Order, error) {
	return m.ListByProfileFunc(ctx, profileID)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id uint, status domain.OrderStatus) error {
	return m.UpdateStatusFunc(ctx, tx, id, status)
}

type mockProfileFinder struct {
	FindByAccountFunc func(ctx context.Context, accountID uint) (*domain.Profile, error)
}

func (m *mockProfileFinder) FindByAccount(ctx context.Context, accountID uint) (*domain.Profile, error) {
	return m.FindByAccountFunc(ctx, accountID)
}

type statusChange struct {
	orderID uint
	from    domain.OrderStatus
	to      domain.OrderStatus
}

type recordingEvents struct {
	changes []statusChange
}

func (r *recordingEvents) OrderStatusChanged(ctx context.Context, order *domain.Order, from domain.OrderStatus) {
	r.changes = append(r.changes, statusChange{orderID: order.ID, from: from, to: order.Status})
}

func newService(t *testing.T, repo OrderRepository, events StatusEvents) (*OrderService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewOrderService(db, repo, &mockProfileFinder{}, events, zap.NewNop(), time.Second, 3), mock
}

func TestChangeStatus_ValidTransition(t *testing.T) {
	var updated domain.OrderStatus
	repo := &mockOrderRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id uint) (*domain.Order, error) {
			return &domain.Order{ID: id, Status: domain.OrderStatusPending}, nil
		},
		UpdateStatusFunc: func(ctx context.Context, tx *sql.Tx, id uint, status domain.OrderStatus) error {
			updated = status
			return nil
		},
	}
	events := &recordingEvents{}
	svc, mock := newService(t, repo, events)
	mock.ExpectBegin()
	mock.ExpectCommit()

	order, err := svc.ChangeStatus(context.Background(), 8, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
	assert.Equal(t, domain.OrderStatusConfirmed, updated)
	assert.Equal(t, []statusChange{{orderID: 8, from: domain.OrderStatusPending, to: domain.OrderStatusConfirmed}}, events.changes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeStatus_InvalidTransition(t *testing.T) {
	repo := &mockOrderRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id uint) (*domain.Order, error) {
			return &domain.Order{ID: id, Status: domain.OrderStatusCompleted}, nil
		},
		UpdateStatusFunc: func(ctx context.Context, tx *sql.Tx, id uint, status domain.OrderStatus) error {
			t.Fatal("terminal order must not be updated")
			return nil
		},
	}
	events := &recordingEvents{}
	svc, mock := newService(t, repo, events)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.ChangeStatus(context.Background(), 8, "cancelled")

	ce, ok := apperrors.IsConflictError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidTransition, ce.Code)
	assert.Empty(t, events.changes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeStatus_UnknownStatus(t *testing.T) {
	svc, _ := newService(t, &mockOrderRepository{}, &recordingEvents{})

	_, err := svc.ChangeStatus(context.Background(), 8, "shipped")

	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "status", ve.Details[0].Field)
}

func TestChangeStatus_NotFound(t *testing.T) {
	repo := &mockOrderRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id uint) (*domain.Order, error) {
			return nil, apperrors.NewNotFoundError("order not found")
		},
	}
	svc, mock := newService(t, repo, &recordingEvents{})
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.ChangeStatus(context.Background(), 8, "confirmed")
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestChangeStatus_RetriesDeadlock(t *testing.T) {
	calls := 0
	repo := &mockOrderRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id uint) (*domain.Order, error) {
			return &domain.Order{ID: id, Status: domain.OrderStatusConfirmed}, nil
		},
		UpdateStatusFunc: func(ctx context.Context, tx *sql.Tx, id uint, status domain.OrderStatus) error {
			calls++
			if calls == 1 {
				return &driver.MySQLError{Number: 1213, Message: "Deadlock found"}
			}
			return nil
		},
	}
	svc, mock := newService(t, repo, &recordingEvents{})
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	order, err := svc.ChangeStatus(context.Background(), 8, "preparing")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPreparing, order.Status)
	assert.Equal(t, 2, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeStatus_GivesUpAfterMaxAttempts(t *testing.T) {
	repo := &mockOrderRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id uint) (*domain.Order, error) {
			return nil, &driver.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}
		},
	}
	svc, mock := newService(t, repo, &recordingEvents{})
	for range 3 {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	_, err := svc.ChangeStatus(context.Background(), 8, "confirmed")
	_, ok := apperrors.IsInternalError(err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForAccount_WithoutProfile(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	profiles := &mockProfileFinder{
		FindByAccountFunc: func(ctx context.Context, accountID uint) (*domain.Profile, error) { return nil, nil },
	}
	repo := &mockOrderRepository{
		ListByProfileFunc: func(ctx context.Context, profileID uint) ([]domain.Order, error) {
			t.Fatal("no profile means no lookup")
			return nil, nil
		},
	}
	svc := NewOrderService(db, repo, profiles, &recordingEvents{}, zap.NewNop(), time.Second, 1)

	orders, err := svc.ListForAccount(context.Background(), 4)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestListForAccount(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	profiles := &mockProfileFinder{
		FindByAccountFunc: func(ctx context.Context, accountID uint) (*domain.Profile, error) {
			return &domain.Profile{ID: 11}, nil
		},
	}
	repo := &mockOrderRepository{
		ListByProfileFunc: func(ctx context.Context, profileID uint) ([]domain.Order, error) {
			assert.Equal(t, uint(11), profileID)
			return []domain.Order{{ID: 2}, {ID: 1}}, nil
		},
	}
	svc := NewOrderService(db, repo, profiles, &recordingEvents{}, zap.NewNop(), time.Second, 1)

	orders, err := svc.ListForAccount(context.Background(), 4)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}
