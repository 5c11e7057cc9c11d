package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/errors"
)

const profileColumns = `id, account_id, name, phone, address, photo, created_at, updated_at`

type MySQLProfileRepository struct {
	db *sql.DB
}

func NewMySQLProfileRepository(db *sql.DB) *MySQLProfileRepository {
	return &MySQLProfileRepository{db: db}
}

func scanProfile(row interface{ Scan(...any) error }) (*domain.Profile, error) {
	var p domain.Profile
	var accountID sql.NullInt64
	var photo sql.NullString
	if err := row.Scan(&p.ID, &accountID, &p.Name, &p.Phone, &p.Address, &photo, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if accountID.Valid {
		id := uint(accountID.Int64)
		p.AccountID = &id
	}
	if photo.Valid {
		p.Photo = &photo.String
	}
	return &p, nil
}

func (r *MySQLProfileRepository) findOne(ctx context.Context, where string, arg any, notFoundMsg string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE ` + where

	p, err := scanProfile(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return p, nil
}

func (r *MySQLProfileRepository) FindByID(ctx context.Context, id uint) (*domain.Profile, error) {
	return r.findOne(ctx, "id = ?", id, fmt.Sprintf("profile with id %d not found", id))
}

func (r *MySQLProfileRepository) FindByPhone(ctx context.Context, phone string) (*domain.Profile, error) {
	return r.findOne(ctx, "phone = ?", phone, "profile not found for phone")
}

func (r *MySQLProfileRepository) FindByAccountID(ctx context.Context, accountID uint) (*domain.Profile, error) {
	return r.findOne(ctx, "account_id = ?", accountID, fmt.Sprintf("no profile linked to account %d", accountID))
}

// Create inserts p and sets its id. Unique violations on phone or account_id
// are returned wrapped so the caller can classify them.
func (r *MySQLProfileRepository) Create(ctx context.Context, p *domain.Profile) error {
	query := `INSERT INTO profiles (account_id, name, phone, address, photo) VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, p.AccountID, p.Name, p.Phone, p.Address, p.Photo)
	if err != nil {
		return fmt.Errorf("inserting profile: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting profile id: %w", err)
	}
	p.ID = uint(id)
	return nil
}

// OverwriteUnclaimed replaces the contact fields of a profile that has no
// owning account. It reports false when the profile was claimed meanwhile.
func (r *MySQLProfileRepository) OverwriteUnclaimed(ctx context.Context, id uint, name, address string) (bool, error) {
	query := `UPDATE profiles SET name = ?, address = ? WHERE id = ? AND account_id IS NULL`
	return r.execConditional(ctx, query, name, address, id)
}

// OverwriteOwned replaces the contact fields of a profile owned by accountID.
func (r *MySQLProfileRepository) OverwriteOwned(ctx context.Context, id, accountID uint, name, address string) (bool, error) {
	query := `UPDATE profiles SET name = ?, address = ? WHERE id = ? AND account_id = ?`
	return r.execConditional(ctx, query, name, address, id, accountID)
}

// Attach links an unowned profile to accountID and overwrites its contact fields.
func (r *MySQLProfileRepository) Attach(ctx context.Context, id, accountID uint, name, address string) (bool, error) {
	query := `UPDATE profiles SET account_id = ?, name = ?, address = ? WHERE id = ? AND account_id IS NULL`
	return r.execConditional(ctx, query, accountID, name, address, id)
}

func (r *MySQLProfileRepository) UpdateContact(ctx context.Context, id uint, patch domain.ProfilePatch) error {
	var sets []string
	var args []any
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Address != nil {
		sets = append(sets, "address = ?")
		args = append(args, *patch.Address)
	}
	if patch.Photo != nil {
		sets = append(sets, "photo = ?")
		args = append(args, *patch.Photo)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	query := `UPDATE profiles SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	ok, err := r.execConditional(ctx, query, args...)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError(fmt.Sprintf("profile with id %d not found", id))
	}
	return nil
}

func (r *MySQLProfileRepository) execConditional(ctx context.Context, query string, args ...any) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("updating profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
