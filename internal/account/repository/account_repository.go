package repository

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/errors"
)

const accountColumns = `id, username, password_hash, email, is_active, is_staff, created_at, updated_at`

type MySQLAccountRepository struct {
	db *sql.DB
}

func NewMySQLAccountRepository(db *sql.DB) *MySQLAccountRepository {
	return &MySQLAccountRepository{db: db}
}

func (r *MySQLAccountRepository) findOne(ctx context.Context, where string, arg any, notFoundMsg string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + where

	var a domain.Account
	var email sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Username, &a.PasswordHash, &email, &a.IsActive, &a.IsStaff, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", err)
	}
	if email.Valid {
		a.Email = &email.String
	}
	return &a, nil
}

func (r *MySQLAccountRepository) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	return r.findOne(ctx, "id = ?", id, fmt.Sprintf("account with id %d not found", id))
}

func (r *MySQLAccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.findOne(ctx, "username = ?", username, "account not found")
}

func (r *MySQLAccountRepository) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (username, password_hash, email, is_active, is_staff) VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, a.Username, a.PasswordHash, a.Email, a.IsActive, a.IsStaff)
	if err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting account id: %w", err)
	}
	a.ID = uint(id)
	return nil
}

func (r *MySQLAccountRepository) Delete(ctx context.Context, id uint) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("account with id %d not found", id))
	}
	return nil
}
