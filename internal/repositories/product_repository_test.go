package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"retail_pos_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDBAndProductRepo(t *testing.T) (*sql.DB, sqlmock.Sqlmock, ProductRepository) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")
	return db, mock, NewProductRepository(db)
}

func TestDecrementStock_Success(t *testing.T) {
	db, mock, repo := newMockDBAndProductRepo(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE products\s+SET stock = stock - \$1`).
		WithArgs(3, sqlmock.AnyArg(), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(7))

	newStock, err := repo.DecrementStock(db, 10, 3)

	require.NoError(t, err)
	assert.Equal(t, 7, newStock)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStock_Insufficient(t *testing.T) {
	db, mock, repo := newMockDBAndProductRepo(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE products\s+SET stock = stock - \$1`).
		WithArgs(5, sqlmock.AnyArg(), int64(10)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.DecrementStock(db, 10, 5)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock), "expected ErrInsufficientStock, got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStock_ProductGone(t *testing.T) {
	db, mock, repo := newMockDBAndProductRepo(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE products\s+SET stock = stock - \$1`).
		WithArgs(1, sqlmock.AnyArg(), int64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.DecrementStock(db, 99, 1)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductByID_NotFound(t *testing.T) {
	db, mock, repo := newMockDBAndProductRepo(t)
	defer db.Close()

	mock.ExpectQuery(`FROM products p`).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	product, err := repo.GetProductByID(42)

	assert.Nil(t, product)
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductByID_LowStockFlag(t *testing.T) {
	db, mock, repo := newMockDBAndProductRepo(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "sku", "description", "price", "stock",
		"min_stock", "category_id", "image", "is_active", "created_at", "updated_at", "category_name"}).
		AddRow(int64(5), "Espresso Beans", "SKU-ESP", nil, "12000", 3, 5, int64(2), nil, true, now, now, "Coffee")

	mock.ExpectQuery(`FROM products p`).
		WithArgs(int64(5)).
		WillReturnRows(rows)

	product, err := repo.GetProductByID(5)

	require.NoError(t, err)
	assert.True(t, product.IsLowStock, "stock 3 with min_stock 5 should flag low stock")
	require.NotNil(t, product.Category)
	assert.Equal(t, "Coffee", product.Category.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProduct_DuplicateSKU(t *testing.T) {
	db, mock, repo := newMockDBAndProductRepo(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO products`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "products_sku_key"})

	product := &models.Product{
		Name: "Duplicate", SKU: "SKU-DUP", Price: decimal.NewFromInt(100),
		CategoryID: 1, IsActive: true,
	}
	_, err := repo.CreateProduct(db, product)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateKey), "expected ErrDuplicateKey, got %v", err)
	assert.Contains(t, err.Error(), "SKU-DUP")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProduct_RefusedWhenSold(t *testing.T) {
	db, mock, repo := newMockDBAndProductRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sale_items`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	err := repo.DeleteProduct(db, 7)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRecordInUse), "expected ErrRecordInUse, got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProduct_Success(t *testing.T) {
	db, mock, repo := newMockDBAndProductRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sale_items`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM products`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.DeleteProduct(db, 7)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProducts_FiltersAndPagination(t *testing.T) {
	db, mock, repo := newMockDBAndProductRepo(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "sku", "description", "price", "stock",
		"min_stock", "category_id", "image", "is_active", "created_at", "updated_at",
		"category_name", "total_count"}).
		AddRow(int64(1), "Americano", "SKU-AME", nil, "8000", 20, 5, int64(2), nil, true, now, now, "Coffee", 11).
		AddRow(int64(2), "Latte", "SKU-LAT", nil, "10000", 15, 5, int64(2), nil, true, now, now, "Coffee", 11)

	search := "a"
	mock.ExpectQuery(`ILIKE`).
		WithArgs("%a%", 10, 0).
		WillReturnRows(rows)

	products, total, err := repo.GetProducts(models.ProductFilters{
		Search:   &search,
		Page:     1,
		PageSize: 10,
	})

	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, products, 2)
	assert.Equal(t, "Americano", products[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
