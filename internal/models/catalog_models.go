package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products for the catalog and the POS screen.
type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name" binding:"required"`
	Description *string   `json:"description,omitempty" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Product is a sellable item. Price is a fixed-point decimal; Stock and
// MinStock are whole units. Stock is never allowed below zero.
type Product struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name" binding:"required"`
	SKU         string          `json:"sku" db:"sku" binding:"required"`
	Description *string         `json:"description,omitempty" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	MinStock    int             `json:"min_stock" db:"min_stock"`
	CategoryID  int64           `json:"category_id" db:"category_id" binding:"required"`
	Image       *string         `json:"image,omitempty" db:"image"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
	Category    *Category       `json:"category,omitempty"` // For joining with Category
	IsLowStock  bool            `json:"is_low_stock"`       // Derived, see ComputeLowStock
}

// ComputeLowStock evaluates the low-stock flag from the current fields.
// The flag is derived on read and never persisted.
func (p *Product) ComputeLowStock() {
	p.IsLowStock = p.Stock <= p.MinStock
}

// ProductFilters defines the available filters for querying products.
// Used by both the service and repository layers.
type ProductFilters struct {
	Search     *string `form:"search"`      // Matches name or SKU
	CategoryID *int64  `form:"category_id"`
	Status     *string `form:"status"` // active, inactive, low_stock
	InStock    bool    `form:"-"`      // Set by the POS shopping view
	ActiveOnly bool    `form:"-"`      // Set by the POS shopping view
	Page       int     `form:"page"`
	PageSize   int     `form:"page_size"`
}
