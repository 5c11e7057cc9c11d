package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/errors"
	"storefront/internal/testutil"
)

var orderCols = []string{"id", "profile_id", "items", "total_price", "status", "notification_message_id", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*MySQLOrderRepository, *sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMySQLOrderRepository(db), db, mock
}

func sampleOrder() *domain.Order {
	now := time.Date(2025, 2, 14, 9, 5, 0, 0, time.UTC)
	return &domain.Order{
		ProfileID: 3,
		Items: []domain.OrderItem{
			{ProductID: 1, Name: "Strawberry box", Quantity: 2, Price: decimal.RequireFromString("45"), Total: decimal.RequireFromString("90")},
			{Name: "Gift card", Quantity: 1, Price: decimal.RequireFromString("10.5"), Total: decimal.RequireFromString("10.5")},
		},
		TotalPrice: decimal.RequireFromString("100.5"),
		Status:     domain.OrderStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestOrderRepository_Create(t *testing.T) {
	repo, _, mock := newMockRepo(t)
	o := sampleOrder()

	items := `[{"productId":1,"name":"Strawberry box","quantity":2,"price":"45.00","total":"90.00"},` +
		`{"name":"Gift card","quantity":1,"price":"10.50","total":"10.50"}]`

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders (profile_id, items, total_price, status, created_at, updated_at)")).
		WithArgs(3, items, "100.50", "pending", o.CreatedAt, o.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(21, 1))

	require.NoError(t, repo.Create(context.Background(), o))
	assert.Equal(t, uint(21), o.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_FindByID(t *testing.T) {
	repo, _, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = ?")).
		WithArgs(21).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(
			21, 3, []byte(`[{"productId":1,"name":"Strawberry box","quantity":2,"price":"45.00","total":"90.00"}]`),
			"90.00", "confirmed", "555", now, now,
		))

	o, err := repo.FindByID(context.Background(), 21)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, o.Status)
	require.Len(t, o.Items, 1)
	assert.True(t, o.Items[0].Price.Equal(decimal.RequireFromString("45")))
	assert.Equal(t, "90.00", o.TotalPrice.StringFixed(2))
	require.NotNil(t, o.NotificationMessageID)
	assert.Equal(t, "555", *o.NotificationMessageID)
}

func TestOrderRepository_FindByID_NotFound(t *testing.T) {
	repo, _, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = ?")).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 99)
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestOrderRepository_FindByID_CorruptItems(t *testing.T) {
	repo, _, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = ?")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(5, 3, []byte(`{not json`), "1.00", "pending", nil, now, now))

	_, err := repo.FindByID(context.Background(), 5)
	require.Error(t, err)
	_, ok := errors.IsNotFoundError(err)
	assert.False(t, ok)
}

func TestOrderRepository_ListByProfile_Empty(t *testing.T) {
	repo, _, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE profile_id = ? ORDER BY created_at DESC")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(orderCols))

	orders, err := repo.ListByProfile(context.Background(), 3)
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	repo, db, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = ? WHERE id = ?")).
		WithArgs("confirmed", 21).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatus(context.Background(), tx, 21, domain.OrderStatusConfirmed))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_SetNotificationMessageID_NotFound(t *testing.T) {
	repo, _, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET notification_message_id = ? WHERE id = ?")).
		WithArgs("987", 404).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetNotificationMessageID(context.Background(), 404, "987")
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

// Integration Tests

func TestOrderRepository_RoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	res, err := db.Exec(`INSERT INTO profiles (name, phone, address) VALUES ('Ali', '+992900000009', 'Rudaki 1')`)
	require.NoError(t, err)
	profileID, err := res.LastInsertId()
	require.NoError(t, err)

	repo := NewMySQLOrderRepository(db)
	o := sampleOrder()
	o.ProfileID = uint(profileID)
	require.NoError(t, repo.Create(context.Background(), o))

	require.NoError(t, repo.SetNotificationMessageID(context.Background(), o.ID, "42"))

	loaded, err := repo.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, loaded.Status)
	assert.True(t, loaded.TotalPrice.Equal(o.TotalPrice))
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, "10.50", loaded.Items[1].Price.StringFixed(2))
	assert.Equal(t, uint(0), loaded.Items[1].ProductID)
	require.NotNil(t, loaded.NotificationMessageID)
	assert.Equal(t, "42", *loaded.NotificationMessageID)

	list, err := repo.ListByProfile(context.Background(), uint(profileID))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
