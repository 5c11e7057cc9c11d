package service

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/errors"
	"storefront/internal/infrastructure/mysql"
)

const retryBackoffStep = 100 * time.Millisecond

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type OrderRepository interface {
	FindByID(ctx context.Context, id uint) (*domain.Order, error)
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id uint) (*domain.Order, error)
	ListByProfile(ctx context.Context, profileID uint) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uint, status domain.OrderStatus) error
}

type ProfileFinder interface {
	FindByAccount(ctx context.Context, accountID uint) (*domain.Profile, error)
}

type StatusEvents interface {
	OrderStatusChanged(ctx context.Context, order *domain.Order, from domain.OrderStatus)
}

type OrderService struct {
	db          TransactionManager
	repo        OrderRepository
	profiles    ProfileFinder
	events      StatusEvents
	logger      *zap.Logger
	txTimeout   time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewOrderService(
	db TransactionManager,
	repo OrderRepository,
	profiles ProfileFinder,
	events StatusEvents,
	logger *zap.Logger,
	txTimeout time.Duration,
	maxAttempts int,
) *OrderService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &OrderService{
		db:          db,
		repo:        repo,
		profiles:    profiles,
		events:      events,
		logger:      logger,
		txTimeout:   txTimeout,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

func (s *OrderService) Get(ctx context.Context, id uint) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if _, ok := errors.IsNotFoundError(err); ok {
			return nil, err
		}
		return nil, errors.NewInternalError("loading order", err)
	}
	return order, nil
}

// ListForAccount returns the orders of the profile linked to accountID.
// An account without a profile has no orders.
func (s *OrderService) ListForAccount(ctx context.Context, accountID uint) ([]domain.Order, error) {
	profile, err := s.profiles.FindByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return []domain.Order{}, nil
	}

	orders, err := s.repo.ListByProfile(ctx, profile.ID)
	if err != nil {
		return nil, errors.NewInternalError("listing orders", err)
	}
	return orders, nil
}

// ChangeStatus moves an order along the status table. The row is locked
// for the check and update; deadlocks are retried with backoff.
func (s *OrderService) ChangeStatus(ctx context.Context, id uint, status string) (*domain.Order, error) {
	next, ok := domain.ParseOrderStatus(status)
	if !ok {
		return nil, errors.NewValidationError("invalid order status", errors.ValidationDetail{
			Field:   "status",
			Message: fmt.Sprintf("unknown status %q", status),
		})
	}

	logger := s.logger.With(zap.Uint("orderId", id), zap.String("to", string(next)))

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		order, from, err := s.changeStatusOnce(ctx, id, next)
		if err == nil {
			logger.Info("order status changed", zap.String("from", string(from)))
			s.events.OrderStatusChanged(ctx, order, from)
			return order, nil
		}

		if !mysql.IsDeadlock(err) {
			return nil, err
		}
		if attempt == s.maxAttempts {
			break
		}

		logger.Warn("deadlock detected, retrying", zap.Int("attempt", attempt), zap.Int("maxAttempts", s.maxAttempts))
		if err := sleepWithJitter(ctx, time.Duration(attempt)*retryBackoffStep); err != nil {
			return nil, errors.NewInternalError("status change cancelled", err)
		}
	}

	return nil, errors.NewInternalError("order status change failed after retries", nil)
}

func (s *OrderService) changeStatusOnce(ctx context.Context, id uint, next domain.OrderStatus) (*domain.Order, domain.OrderStatus, error) {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, "", errors.NewInternalError("beginning transaction", err)
	}
	defer tx.Rollback()

	order, err := s.repo.FindByIDForUpdate(txCtx, tx, id)
	if err != nil {
		if _, ok := errors.IsNotFoundError(err); ok || mysql.IsDeadlock(err) {
			return nil, "", err
		}
		return nil, "", errors.NewInternalError("loading order", err)
	}

	from := order.Status
	if !from.CanTransitionTo(next) {
		return nil, "", errors.NewConflictError(errors.CodeInvalidTransition,
			fmt.Sprintf("order cannot move from %s to %s", from, next))
	}

	if err := s.repo.UpdateStatus(txCtx, tx, id, next); err != nil {
		if mysql.IsDeadlock(err) {
			return nil, "", err
		}
		return nil, "", errors.NewInternalError("updating order status", err)
	}

	if err := tx.Commit(); err != nil {
		if mysql.IsDeadlock(err) {
			return nil, "", err
		}
		return nil, "", errors.NewInternalError("committing status change", err)
	}

	order.Status = next
	order.UpdatedAt = s.now().UTC()
	return order, from, nil
}

// sleepWithJitter waits base ±20%, or until ctx ends.
func sleepWithJitter(ctx context.Context, base time.Duration) error {
	spread := base * 2 / 5
	wait := base - base/5
	if spread > 0 {
		wait += rand.N(spread)
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
