package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/errors"
)

const contentColumns = `id, content_key, content, page, created_at, updated_at`

type MySQLContentRepository struct {
	db *sql.DB
}

func NewMySQLContentRepository(db *sql.DB) *MySQLContentRepository {
	return &MySQLContentRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (*domain.EditableContent, error) {
	var c domain.EditableContent
	var page sql.NullString
	if err := row.Scan(&c.ID, &c.Key, &c.Content, &page, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if page.Valid {
		c.Page = &page.String
	}
	return &c, nil
}

func (r *MySQLContentRepository) query(ctx context.Context, query string, args ...any) ([]domain.EditableContent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying content: %w", err)
	}
	defer rows.Close()

	items := []domain.EditableContent{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning content: %w", err)
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating content: %w", err)
	}
	return items, nil
}

// List returns all records ordered by page then key, or only those of page when it is not empty.
func (r *MySQLContentRepository) List(ctx context.Context, page string) ([]domain.EditableContent, error) {
	if page == "" {
		return r.query(ctx, `SELECT `+contentColumns+` FROM editable_contents ORDER BY page, content_key`)
	}
	return r.ListByPage(ctx, page)
}

func (r *MySQLContentRepository) ListByPage(ctx context.Context, page string) ([]domain.EditableContent, error) {
	return r.query(ctx, `SELECT `+contentColumns+` FROM editable_contents WHERE page = ? ORDER BY content_key`, page)
}

// PageCounts groups records by page. Records without a page are reported under the global page.
func (r *MySQLContentRepository) PageCounts(ctx context.Context) ([]domain.PageCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(NULLIF(page, ''), ?) AS page_name, COUNT(*)
		FROM editable_contents
		GROUP BY page_name
		ORDER BY page_name
	`, domain.GlobalContentPage)
	if err != nil {
		return nil, fmt.Errorf("querying content pages: %w", err)
	}
	defer rows.Close()

	counts := []domain.PageCount{}
	for rows.Next() {
		var pc domain.PageCount
		if err := rows.Scan(&pc.Page, &pc.ContentCount); err != nil {
			return nil, fmt.Errorf("scanning content page: %w", err)
		}
		counts = append(counts, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating content pages: %w", err)
	}
	return counts, nil
}

func (r *MySQLContentRepository) FindByID(ctx context.Context, id uint) (*domain.EditableContent, error) {
	c, err := scanContent(r.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM editable_contents WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("content with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying content by id: %w", err)
	}
	return c, nil
}

func (r *MySQLContentRepository) FindByKey(ctx context.Context, key string) (*domain.EditableContent, error) {
	c, err := scanContent(r.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM editable_contents WHERE content_key = ?`, key))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("content with key %q not found", key))
	}
	if err != nil {
		return nil, fmt.Errorf("querying content by key: %w", err)
	}
	return c, nil
}

func (r *MySQLContentRepository) Create(ctx context.Context, c *domain.EditableContent) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO editable_contents (content_key, content, page) VALUES (?, ?, ?)`,
		c.Key, c.Content, c.Page,
	)
	if err != nil {
		return fmt.Errorf("inserting content: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting content id: %w", err)
	}
	c.ID = uint(id)
	return nil
}

func (r *MySQLContentRepository) Update(ctx context.Context, c *domain.EditableContent) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE editable_contents SET content_key = ?, content = ?, page = ? WHERE id = ?`,
		c.Key, c.Content, c.Page, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating content: %w", err)
	}
	return requireAffected(result, c.ID)
}

func (r *MySQLContentRepository) Delete(ctx context.Context, id uint) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM editable_contents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting content: %w", err)
	}
	return requireAffected(result, id)
}

// DeleteByKeys removes every record whose key is listed and returns how many were removed.
func (r *MySQLContentRepository) DeleteByKeys(ctx context.Context, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM editable_contents WHERE content_key IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting content by keys: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return n, nil
}

func requireAffected(result sql.Result, id uint) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("content with id %d not found", id))
	}
	return nil
}
