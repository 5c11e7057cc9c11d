package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/errors"
)

const orderColumns = `id, profile_id, items, total_price, status, notification_message_id, created_at, updated_at`

// storedItem is the JSON shape of one line in orders.items. Money is kept
// as a fixed two-decimal string so stored values round-trip exactly.
type storedItem struct {
	ProductID uint   `json:"productId,omitempty"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	Total     string `json:"total"`
}

func encodeItems(items []domain.OrderItem) ([]byte, error) {
	stored := make([]storedItem, 0, len(items))
	for _, item := range items {
		stored = append(stored, storedItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price.StringFixed(2),
			Total:     item.Total.StringFixed(2),
		})
	}
	return json.Marshal(stored)
}

func decodeItems(raw []byte) ([]domain.OrderItem, error) {
	var stored []storedItem
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, 0, len(stored))
	for i, s := range stored {
		price, err := decimal.NewFromString(s.Price)
		if err != nil {
			return nil, fmt.Errorf("item %d price: %w", i, err)
		}
		total, err := decimal.NewFromString(s.Total)
		if err != nil {
			return nil, fmt.Errorf("item %d total: %w", i, err)
		}
		items = append(items, domain.OrderItem{
			ProductID: s.ProductID,
			Name:      s.Name,
			Quantity:  s.Quantity,
			Price:     price,
			Total:     total,
		})
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o         domain.Order
		items     []byte
		total     string
		status    string
		messageID sql.NullString
	)
	if err := row.Scan(&o.ID, &o.ProfileID, &items, &total, &status, &messageID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}

	decoded, err := decodeItems(items)
	if err != nil {
		return nil, fmt.Errorf("decoding items of order %d: %w", o.ID, err)
	}
	o.Items = decoded

	if o.TotalPrice, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parsing total of order %d: %w", o.ID, err)
	}
	o.Status = domain.OrderStatus(status)
	if messageID.Valid {
		o.NotificationMessageID = &messageID.String
	}
	return &o, nil
}

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

// Create inserts o and assigns its id. CreatedAt and UpdatedAt are written
// as given so the caller's clock is the one shown in notifications.
func (r *MySQLOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	items, err := encodeItems(o.Items)
	if err != nil {
		return fmt.Errorf("encoding order items: %w", err)
	}

	query := `
		INSERT INTO orders (profile_id, items, total_price, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		o.ProfileID, string(items), o.TotalPrice.StringFixed(2), string(o.Status), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting order id: %w", err)
	}
	o.ID = uint(id)
	return nil
}

func (r *MySQLOrderRepository) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}
	return order, nil
}

// FindByIDForUpdate locks the order row until tx ends.
func (r *MySQLOrderRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id uint) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ? FOR UPDATE`

	order, err := scanOrder(tx.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order for update: %w", err)
	}
	return order, nil
}

// ListByProfile returns the profile's orders, newest first.
func (r *MySQLOrderRepository) ListByProfile(ctx context.Context, profileID uint) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE profile_id = ? ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("querying orders by profile: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}
	return orders, nil
}

func (r *MySQLOrderRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id uint, status domain.OrderStatus) error {
	query := `UPDATE orders SET status = ? WHERE id = ?`

	result, err := tx.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}
	return requireAffected(result, id)
}

func (r *MySQLOrderRepository) SetNotificationMessageID(ctx context.Context, id uint, messageID string) error {
	query := `UPDATE orders SET notification_message_id = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, messageID, id)
	if err != nil {
		return fmt.Errorf("updating notification message id: %w", err)
	}
	return requireAffected(result, id)
}

func requireAffected(result sql.Result, id uint) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}
	return nil
}
