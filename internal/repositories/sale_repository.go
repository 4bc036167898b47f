package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"retail_pos_backend/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// invoiceLockClass namespaces the advisory lock used to serialize same-day
// invoice numbering against other advisory locks in the database.
const invoiceLockClass = 7001

// SaleRepository defines the interface for the sale ledger. Sales are
// append-only: there are no update or delete operations.
type SaleRepository interface {
	CreateSale(executor SQLExecutor, sale *models.Sale) (int64, error)
	CreateSaleItem(executor SQLExecutor, item *models.SaleItem) (int64, error)

	// NextInvoiceSequence returns the next per-day invoice sequence number.
	// It takes a transaction-scoped advisory lock keyed on the calendar day,
	// so two concurrent checkouts cannot observe the same maximum. Must be
	// called with a transaction executor.
	NextInvoiceSequence(executor SQLExecutor, day time.Time) (int, error)

	GetSaleByID(id int64) (*models.Sale, error) // Joins with user
	GetSaleItemsBySaleID(saleID int64) ([]models.SaleItem, error)
	GetSales(filters models.SaleFilters) ([]models.Sale, int, error)
	GetSalesSummary(filters models.SaleFilters) (*models.SalesSummary, error)
}

type saleRepository struct {
	db *sql.DB
}

// NewSaleRepository creates a new instance of SaleRepository.
func NewSaleRepository(db *sql.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) CreateSale(executor SQLExecutor, sale *models.Sale) (int64, error) {
	query := `INSERT INTO sales
	            (invoice_number, user_id, subtotal, tax_amount, discount_amount,
	             total_amount, cash_received, change_amount, payment_method, status, notes,
	             created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id`

	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}
	if sale.UpdatedAt.IsZero() {
		sale.UpdatedAt = sale.CreatedAt
	}

	err := executor.QueryRow(query,
		sale.InvoiceNumber, sale.UserID, sale.Subtotal, sale.TaxAmount, sale.DiscountAmount,
		sale.TotalAmount, sale.CashReceived, sale.ChangeAmount, sale.PaymentMethod, sale.Status, sale.Notes,
		sale.CreatedAt, sale.UpdatedAt,
	).Scan(&sale.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: invoice number '%s' (constraint: %s)", ErrDuplicateKey, sale.InvoiceNumber, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating sale: %v", ErrDatabaseError, err)
	}
	return sale.ID, nil
}

func (r *saleRepository) CreateSaleItem(executor SQLExecutor, item *models.SaleItem) (int64, error) {
	query := `INSERT INTO sale_items
	            (sale_id, product_id, quantity, unit_price, total_price, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		item.SaleID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice,
		item.CreatedAt,
	).Scan(&item.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return 0, fmt.Errorf("%w: creating sale item (constraint: %s): %v", ErrDatabaseError, pqErr.Constraint, err)
		}
		return 0, fmt.Errorf("%w: creating sale item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *saleRepository) NextInvoiceSequence(executor SQLExecutor, day time.Time) (int, error) {
	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)
	dayKey := day.Year()*10000 + int(day.Month())*100 + day.Day()

	// The advisory lock is released automatically when the surrounding
	// transaction commits or rolls back.
	if _, err := executor.Exec(`SELECT pg_advisory_xact_lock($1, $2)`, invoiceLockClass, dayKey); err != nil {
		return 0, fmt.Errorf("%w: acquiring invoice lock for %d: %v", ErrDatabaseError, dayKey, err)
	}

	var maxSeq sql.NullInt64
	query := `SELECT MAX(CAST(RIGHT(invoice_number, 4) AS INTEGER))
	          FROM sales
	          WHERE created_at >= $1 AND created_at < $2`
	if err := executor.QueryRow(query, startOfDay, endOfDay).Scan(&maxSeq); err != nil {
		return 0, fmt.Errorf("%w: reading max invoice sequence: %v", ErrDatabaseError, err)
	}
	if !maxSeq.Valid {
		return 1, nil
	}
	return int(maxSeq.Int64) + 1, nil
}

func (r *saleRepository) GetSaleByID(id int64) (*models.Sale, error) {
	sale := &models.Sale{}
	var userName sql.NullString
	query := `SELECT s.id, s.invoice_number, s.user_id, s.subtotal, s.tax_amount,
	                 s.discount_amount, s.total_amount, s.cash_received, s.change_amount,
	                 s.payment_method, s.status, s.notes, s.created_at, s.updated_at,
	                 u.full_name AS user_name
	          FROM sales s
	          LEFT JOIN users u ON s.user_id = u.id
	          WHERE s.id = $1`
	err := r.db.QueryRow(query, id).Scan(
		&sale.ID, &sale.InvoiceNumber, &sale.UserID, &sale.Subtotal, &sale.TaxAmount,
		&sale.DiscountAmount, &sale.TotalAmount, &sale.CashReceived, &sale.ChangeAmount,
		&sale.PaymentMethod, &sale.Status, &sale.Notes, &sale.CreatedAt, &sale.UpdatedAt,
		&userName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting sale by ID %d: %v", ErrDatabaseError, id, err)
	}
	if userName.Valid {
		sale.User = &models.User{ID: sale.UserID, FullName: userName.String}
	}
	return sale, nil
}

func (r *saleRepository) GetSaleItemsBySaleID(saleID int64) ([]models.SaleItem, error) {
	items := []models.SaleItem{}
	query := `SELECT si.id, si.sale_id, si.product_id, si.quantity, si.unit_price,
	                 si.total_price, si.created_at,
	                 p.name AS product_name, p.sku AS product_sku
	          FROM sale_items si
	          JOIN products p ON si.product_id = p.id
	          WHERE si.sale_id = $1
	          ORDER BY si.id`

	rows, err := r.db.Query(query, saleID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying sale items for sale ID %d: %v", ErrDatabaseError, saleID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.SaleItem
		var productName, productSKU string

		err := rows.Scan(
			&item.ID, &item.SaleID, &item.ProductID, &item.Quantity, &item.UnitPrice,
			&item.TotalPrice, &item.CreatedAt,
			&productName, &productSKU,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning sale item for sale ID %d: %v", ErrDatabaseError, saleID, err)
		}
		item.Product = &models.Product{ID: item.ProductID, Name: productName, SKU: productSKU}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sale item rows for sale ID %d: %v", ErrDatabaseError, saleID, err)
	}
	return items, nil
}

func (r *saleRepository) GetSales(filters models.SaleFilters) ([]models.Sale, int, error) {
	sales := []models.Sale{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
        SELECT
            s.id, s.invoice_number, s.user_id, s.subtotal, s.tax_amount,
            s.discount_amount, s.total_amount, s.cash_received, s.change_amount,
            s.payment_method, s.status, s.notes, s.created_at, s.updated_at,
            u.full_name AS user_name,
            COUNT(*) OVER() AS total_count
        FROM sales s
        LEFT JOIN users u ON s.user_id = u.id
    `)

	conditions, args := buildSaleConditions(filters)
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY s.created_at DESC")

	argCounter := len(args) + 1
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
		return nil, 0, fmt.Errorf("%w: querying sales: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Sale
		var userName sql.NullString

		err := rows.Scan(
			&s.ID, &s.InvoiceNumber, &s.UserID, &s.Subtotal, &s.TaxAmount,
			&s.DiscountAmount, &s.TotalAmount, &s.CashReceived, &s.ChangeAmount,
			&s.PaymentMethod, &s.Status, &s.Notes, &s.CreatedAt, &s.UpdatedAt,
			&userName,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning sale: %v", ErrDatabaseError, err)
		}
		if userName.Valid {
			s.User = &models.User{ID: s.UserID, FullName: userName.String}
		}
		sales = append(sales, s)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating sale rows: %v", ErrDatabaseError, err)
	}
	return sales, totalCount, nil
}

func (r *saleRepository) GetSalesSummary(filters models.SaleFilters) (*models.SalesSummary, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT COALESCE(SUM(s.total_amount), 0), COUNT(*) FROM sales s`)

	conditions, args := buildSaleConditions(filters)
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	summary := &models.SalesSummary{}
	err := r.db.QueryRow(queryBuilder.String(), args...).Scan(&summary.TotalSales, &summary.TotalTransactions)
	if err != nil {
		return nil, fmt.Errorf("%w: querying sales summary: %v", ErrDatabaseError, err)
	}
	if summary.TotalTransactions > 0 {
		summary.AverageTransaction = summary.TotalSales.
			Div(decimal.NewFromInt(int64(summary.TotalTransactions))).
			Round(2)
	} else {
		summary.AverageTransaction = decimal.Zero
	}
	return summary, nil
}

// buildSaleConditions translates SaleFilters into WHERE clauses shared by the
// history listing and its summary so both always agree.
func buildSaleConditions(filters models.SaleFilters) ([]string, []interface{}) {
	conditions := []string{"s.status = 'completed'"}
	var args []interface{}
	argCounter := 1

	if filters.DateFrom != nil && *filters.DateFrom != "" {
		if parsed, err := time.Parse("2006-01-02", *filters.DateFrom); err == nil {
			conditions = append(conditions, fmt.Sprintf("s.created_at >= $%d", argCounter))
			args = append(args, parsed)
			argCounter++
		}
	}
	if filters.DateTo != nil && *filters.DateTo != "" {
		if parsed, err := time.Parse("2006-01-02", *filters.DateTo); err == nil {
			endOfDay := parsed.AddDate(0, 0, 1)
			conditions = append(conditions, fmt.Sprintf("s.created_at < $%d", argCounter))
			args = append(args, endOfDay)
			argCounter++
		}
	}
	if filters.PaymentMethod != nil && *filters.PaymentMethod != "" {
		conditions = append(conditions, fmt.Sprintf("s.payment_method = $%d", argCounter))
		args = append(args, *filters.PaymentMethod)
	}
	return conditions, args
}
