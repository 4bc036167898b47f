package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"retail_pos_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDBAndCategoryRepo(t *testing.T) (*sql.DB, sqlmock.Sqlmock, CategoryRepository) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")
	return db, mock, NewCategoryRepository(db)
}

func TestCreateCategory_DuplicateName(t *testing.T) {
	db, mock, repo := newMockDBAndCategoryRepo(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO categories`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "categories_name_key"})

	category := &models.Category{Name: "Beverages", IsActive: true}
	_, err := repo.CreateCategory(db, category)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateKey), "expected ErrDuplicateKey, got %v", err)
	assert.Contains(t, err.Error(), "Beverages")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCategories_DefaultsPagination(t *testing.T) {
	db, mock, repo := newMockDBAndCategoryRepo(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "description", "is_active",
		"created_at", "updated_at", "total_count"}).
		AddRow(int64(1), "Beverages", nil, true, now, now, 2).
		AddRow(int64(2), "Snacks", nil, true, now, now, 2)

	// Page and page size of zero fall back to the defaults.
	mock.ExpectQuery(`FROM categories\s+WHERE is_active = TRUE`).
		WithArgs(100, 0).
		WillReturnRows(rows)

	categories, total, err := repo.GetCategories(true, 0, 0)

	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, categories, 2)
	assert.Equal(t, "Beverages", categories[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCategory_RefusedWithProducts(t *testing.T) {
	db, mock, repo := newMockDBAndCategoryRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products WHERE category_id`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	err := repo.DeleteCategory(db, 3)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRecordInUse), "expected ErrRecordInUse, got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCategory_Success(t *testing.T) {
	db, mock, repo := newMockDBAndCategoryRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products WHERE category_id`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM categories`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.DeleteCategory(db, 3)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
