package repository

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/domain"
)

type MySQLNewItemRepository struct {
	db *sql.DB
}

func NewMySQLNewItemRepository(db *sql.DB) *MySQLNewItemRepository {
	return &MySQLNewItemRepository{db: db}
}

// ListActive returns active banners by display order, newest first on ties.
func (r *MySQLNewItemRepository) ListActive(ctx context.Context) ([]domain.NewItem, error) {
	query := `
		SELECT id, title, description, background_image, sort_order, is_active, created_at, updated_at
		FROM new_items
		WHERE is_active = 1
		ORDER BY sort_order ASC, created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying new items: %w", err)
	}
	defer rows.Close()

	var items []domain.NewItem
	for rows.Next() {
		var item domain.NewItem
		var description sql.NullString
		if err := rows.Scan(
			&item.ID, &item.Title, &description, &item.BackgroundImage,
			&item.SortOrder, &item.IsActive, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning new item row: %w", err)
		}
		if description.Valid {
			item.Description = &description.String
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating new item rows: %w", err)
	}
	return items, nil
}
