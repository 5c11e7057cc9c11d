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
)

var productCols = []string{"id", "name", "description", "price", "image", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*MySQLRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMySQLRepository(db), mock
}

func TestNewMySQLRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestRepository_List(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM products ORDER BY created_at DESC, id DESC")).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(2, "Zinger", "spicy", "45.50", "products/zinger.png", now, now).
			AddRow(1, "Twister", "wrap", "30.00", nil, now, now))

	products, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, uint(2), products[0].ID)
	assert.True(t, decimal.RequireFromString("45.50").Equal(products[0].Price))
	require.NotNil(t, products[0].Image)
	assert.Equal(t, "products/zinger.png", *products[0].Image)
	assert.Nil(t, products[1].Image)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = ?")).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	product, err := repo.FindByID(context.Background(), 99)
	assert.Nil(t, product)
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestRepository_FindByIDs(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id IN (?, ?)")).
		WithArgs(1, 3).
		WillReturnRows(sqlmock.NewRows(productCols).AddRow(1, "Twister", "wrap", "30.00", nil, now, now))

	products, err := repo.FindByIDs(context.Background(), []uint{1, 3})
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByIDs_Empty(t *testing.T) {
	repo, mock := newMockRepo(t)

	products, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO products (name, description, price, image)")).
		WithArgs("Zinger", "spicy", "45.50", nil).
		WillReturnResult(sqlmock.NewResult(12, 1))

	p := &domain.Product{Name: "Zinger", Description: "spicy", Price: decimal.RequireFromString("45.5")}
	require.NoError(t, repo.Create(context.Background(), p))
	assert.Equal(t, uint(12), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Update_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &domain.Product{ID: 5, Name: "x", Price: decimal.Zero})
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestRepository_Delete(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id = ?")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewItemRepository_ListActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY sort_order ASC, created_at DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "background_image", "sort_order", "is_active", "created_at", "updated_at"}).
			AddRow(1, "Summer box", "new!", "banners/summer.jpg", 0, true, now, now).
			AddRow(2, "Wings", nil, "banners/wings.jpg", 1, true, now, now))

	items, err := NewMySQLNewItemRepository(db).ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].Description)
	assert.Equal(t, "new!", *items[0].Description)
	assert.Nil(t, items[1].Description)
}
