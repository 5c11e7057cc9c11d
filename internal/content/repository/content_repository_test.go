package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/errors"
)

var contentCols = []string{"id", "content_key", "content", "page", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*MySQLContentRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMySQLContentRepository(db), mock
}

func TestContentRepository_List_All(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM editable_contents ORDER BY page, content_key")).
		WillReturnRows(sqlmock.NewRows(contentCols).
			AddRow(1, "footer.phone", "+992 900", nil, now, now).
			AddRow(2, "home.title", "Welcome", "home", now, now))

	items, err := repo.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Nil(t, items[0].Page)
	require.NotNil(t, items[1].Page)
	assert.Equal(t, "home", *items[1].Page)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_List_FilteredByPage(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM editable_contents WHERE page = ? ORDER BY content_key")).
		WithArgs("menu").
		WillReturnRows(sqlmock.NewRows(contentCols))

	items, err := repo.List(context.Background(), "menu")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_FindByKey_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE content_key = ?")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByKey(context.Background(), "missing")
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestContentRepository_PageCounts(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY page_name")).
		WithArgs(domain.GlobalContentPage).
		WillReturnRows(sqlmock.NewRows([]string{"page_name", "count"}).
			AddRow("Global", 3).
			AddRow("home", 2))

	counts, err := repo.PageCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.PageCount{{Page: "Global", ContentCount: 3}, {Page: "home", ContentCount: 2}}, counts)
}

func TestContentRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	page := "home"

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO editable_contents (content_key, content, page)")).
		WithArgs("home.title", "Welcome", "home").
		WillReturnResult(sqlmock.NewResult(9, 1))

	c := &domain.EditableContent{Key: "home.title", Content: "Welcome", Page: &page}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, uint(9), c.ID)
}

func TestContentRepository_Update_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE editable_contents SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &domain.EditableContent{ID: 4, Key: "k"})
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestContentRepository_DeleteByKeys(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM editable_contents WHERE content_key IN (?,?,?)")).
		WithArgs("a", "b", "c").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteByKeys(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_DeleteByKeys_Empty(t *testing.T) {
	repo, mock := newMockRepo(t)

	n, err := repo.DeleteByKeys(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
