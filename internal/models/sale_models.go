package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is a committed checkout transaction. Sales are append-only: once a
// sale is created together with its items it is never updated or deleted.
type Sale struct {
	ID             int64           `json:"id" db:"id"`
	InvoiceNumber  string          `json:"invoice_number" db:"invoice_number"`
	UserID         int64           `json:"user_id" db:"user_id"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount" db:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount" db:"total_amount"`
	CashReceived   decimal.Decimal `json:"cash_received" db:"cash_received"`
	ChangeAmount   decimal.Decimal `json:"change_amount" db:"change_amount"`
	PaymentMethod  string          `json:"payment_method" db:"payment_method"` // cash, card, transfer
	Status         string          `json:"status" db:"status"`                 // pending, completed, cancelled
	Notes          *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
	User           *User           `json:"user,omitempty"`       // Operator who processed the sale
	SaleItems      []SaleItem      `json:"sale_items,omitempty"` // Owned line items
}

// TotalItems returns the number of units across all line items.
// Derived on read, never persisted.
func (s *Sale) TotalItems() int {
	total := 0
	for _, item := range s.SaleItems {
		total += item.Quantity
	}
	return total
}

// SaleItem is one immutable line of a sale. UnitPrice freezes the price at
// transaction time so later product price changes do not alter history.
type SaleItem struct {
	ID         int64           `json:"id" db:"id"`
	SaleID     int64           `json:"sale_id" db:"sale_id"`
	ProductID  int64           `json:"product_id" db:"product_id"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	Product    *Product        `json:"product,omitempty"` // Name/SKU snapshot for receipts
}

// SaleFilters defines the available filters for querying the sales history.
type SaleFilters struct {
	DateFrom      *string `form:"date_from"` // Expected format YYYY-MM-DD
	DateTo        *string `form:"date_to"`   // Expected format YYYY-MM-DD
	PaymentMethod *string `form:"payment_method"`
	Page          int     `form:"page"`
	PageSize      int     `form:"page_size"`
}

// SalesSummary holds the aggregate figures shown alongside the sales history.
type SalesSummary struct {
	TotalSales         decimal.Decimal `json:"total_sales"`
	TotalTransactions  int             `json:"total_transactions"`
	AverageTransaction decimal.Decimal `json:"average_transaction"`
}
