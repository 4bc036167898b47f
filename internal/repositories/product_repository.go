package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"retail_pos_backend/internal/models"

	"github.com/lib/pq"
)

// ProductRepository defines the interface for product-related database
// operations, including the stock read/decrement pair used by checkout.
type ProductRepository interface {
	CreateProduct(executor SQLExecutor, product *models.Product) (int64, error)
	GetProductByID(id int64) (*models.Product, error) // Joins with category
	GetProducts(filters models.ProductFilters) ([]models.Product, int, error)
	UpdateProduct(executor SQLExecutor, product *models.Product) error
	DeleteProduct(executor SQLExecutor, id int64) error

	// GetProductForUpdate reads a product with a row lock so that checkout
	// validation and the subsequent decrement see consistent stock. Must be
	// called with a transaction executor.
	GetProductForUpdate(executor SQLExecutor, id int64) (*models.Product, error)

	// DecrementStock subtracts quantity from stock only if enough remains.
	// Returns the new stock level, or ErrInsufficientStock if the conditional
	// update matched no row.
	DecrementStock(executor SQLExecutor, id int64, quantity int) (int, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) CreateProduct(executor SQLExecutor, product *models.Product) (int64, error) {
	query := `INSERT INTO products
	            (name, sku, description, price, stock, min_stock, category_id, image, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		product.Name, product.SKU, product.Description, product.Price, product.Stock,
		product.MinStock, product.CategoryID, product.Image, product.IsActive,
		currentTime, currentTime,
	).Scan(&product.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return 0, fmt.Errorf("%w: product SKU '%s' already exists (constraint: %s)", ErrDuplicateKey, product.SKU, pqErr.Constraint)
			case "foreign_key_violation":
				return 0, fmt.Errorf("%w: creating product: category %d does not exist", ErrDatabaseError, product.CategoryID)
			}
		}
		return 0, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	return product.ID, nil
}

func (r *productRepository) GetProductByID(id int64) (*models.Product, error) {
	product := &models.Product{}
	var categoryName sql.NullString
	query := `SELECT p.id, p.name, p.sku, p.description, p.price, p.stock, p.min_stock,
	                 p.category_id, p.image, p.is_active, p.created_at, p.updated_at,
	                 c.name AS category_name
	          FROM products p
	          LEFT JOIN categories c ON p.category_id = c.id
	          WHERE p.id = $1`
	err := r.db.QueryRow(query, id).Scan(
		&product.ID, &product.Name, &product.SKU, &product.Description, &product.Price,
		&product.Stock, &product.MinStock, &product.CategoryID, &product.Image,
		&product.IsActive, &product.CreatedAt, &product.UpdatedAt,
		&categoryName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, id, err)
	}
	if categoryName.Valid {
		product.Category = &models.Category{ID: product.CategoryID, Name: categoryName.String}
	}
	product.ComputeLowStock()
	return product, nil
}

func (r *productRepository) GetProducts(filters models.ProductFilters) ([]models.Product, int, error) {
	products := []models.Product{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
        SELECT
            p.id, p.name, p.sku, p.description, p.price, p.stock, p.min_stock,
            p.category_id, p.image, p.is_active, p.created_at, p.updated_at,
            c.name AS category_name,
            COUNT(*) OVER() AS total_count
        FROM products p
        LEFT JOIN categories c ON p.category_id = c.id
    `)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(p.name ILIKE $%d OR p.sku ILIKE $%d)", argCounter, argCounter))
		args = append(args, "%"+*filters.Search+"%")
		argCounter++
	}
	if filters.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", argCounter))
		args = append(args, *filters.CategoryID)
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		switch *filters.Status {
		case "active":
			conditions = append(conditions, "p.is_active = TRUE")
		case "inactive":
			conditions = append(conditions, "p.is_active = FALSE")
		case "low_stock":
			conditions = append(conditions, "p.stock <= p.min_stock")
		}
	}
	if filters.ActiveOnly {
		conditions = append(conditions, "p.is_active = TRUE")
	}
	if filters.InStock {
		conditions = append(conditions, "p.stock > 0")
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY p.name")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		var categoryName sql.NullString
		err := rows.Scan(
			&p.ID, &p.Name, &p.SKU, &p.Description, &p.Price, &p.Stock, &p.MinStock,
			&p.CategoryID, &p.Image, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
			&categoryName,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		if categoryName.Valid {
			p.Category = &models.Category{ID: p.CategoryID, Name: categoryName.String}
		}
		p.ComputeLowStock()
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}
	return products, totalCount, nil
}

func (r *productRepository) UpdateProduct(executor SQLExecutor, product *models.Product) error {
	query := `UPDATE products
	          SET name = $1, sku = $2, description = $3, price = $4, stock = $5,
	              min_stock = $6, category_id = $7, image = $8, is_active = $9, updated_at = $10
	          WHERE id = $11`
	result, err := executor.Exec(query,
		product.Name, product.SKU, product.Description, product.Price, product.Stock,
		product.MinStock, product.CategoryID, product.Image, product.IsActive,
		time.Now(), product.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: product SKU '%s' already exists (constraint: %s)", ErrDuplicateKey, product.SKU, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating product ID %d: %v", ErrDatabaseError, product.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) DeleteProduct(executor SQLExecutor, id int64) error {
	// Products referenced by sale items are never deleted: line items keep a
	// frozen price snapshot, and removing the product would orphan them.
	var count int
	checkQuery := `SELECT COUNT(*) FROM sale_items WHERE product_id = $1`
	if err := r.db.QueryRow(checkQuery, id).Scan(&count); err != nil {
		return fmt.Errorf("%w: checking product usage for ID %d: %v", ErrDatabaseError, id, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: product ID %d appears in %d sale items", ErrRecordInUse, id, count)
	}

	result, err := executor.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting product ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) GetProductForUpdate(executor SQLExecutor, id int64) (*models.Product, error) {
	product := &models.Product{}
	query := `SELECT id, name, sku, description, price, stock, min_stock, category_id,
	                 image, is_active, created_at, updated_at
	          FROM products
	          WHERE id = $1
	          FOR UPDATE`
	err := executor.QueryRow(query, id).Scan(
		&product.ID, &product.Name, &product.SKU, &product.Description, &product.Price,
		&product.Stock, &product.MinStock, &product.CategoryID, &product.Image,
		&product.IsActive, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking product ID %d: %v", ErrDatabaseError, id, err)
	}
	product.ComputeLowStock()
	return product, nil
}

func (r *productRepository) DecrementStock(executor SQLExecutor, id int64, quantity int) (int, error) {
	var newStock int
	query := `UPDATE products
	          SET stock = stock - $1, updated_at = $2
	          WHERE id = $3 AND stock >= $1
	          RETURNING stock`
	err := executor.QueryRow(query, quantity, time.Now(), id).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either the product is gone or the remaining stock is short.
			var exists bool
			checkErr := executor.QueryRow(`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
			if checkErr == nil && !exists {
				return 0, ErrNotFound
			}
			return 0, fmt.Errorf("%w: product ID %d, requested %d", ErrInsufficientStock, id, quantity)
		}
		return 0, fmt.Errorf("%w: decrementing stock for product ID %d: %v", ErrDatabaseError, id, err)
	}
	return newStock, nil
}
