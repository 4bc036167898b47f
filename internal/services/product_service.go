package services

import (
	"database/sql"
	"errors"
	"fmt"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// CreateProductRequest is used for creating and updating products.
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	SKU         string          `json:"sku" binding:"required"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	MinStock    int             `json:"min_stock"`
	CategoryID  int64           `json:"category_id" binding:"required"`
	Image       *string         `json:"image"`
	IsActive    *bool           `json:"is_active"`
}

// ProductService exposes product administration and the POS shopping view.
type ProductService interface {
	CreateProduct(req CreateProductRequest) (*models.Product, error)
	GetProducts(filters models.ProductFilters) ([]models.Product, int, error)
	GetProductByID(id int64) (*models.Product, error)
	UpdateProduct(id int64, req CreateProductRequest) (*models.Product, error)
	DeleteProduct(id int64) error

	// GetShoppingProducts lists active, in-stock products for the cashier
	// screen, honoring the search and category filters.
	GetShoppingProducts(filters models.ProductFilters) ([]models.Product, int, error)
}

type productService struct {
	productRepo  repositories.ProductRepository
	categoryRepo repositories.CategoryRepository
	db           *sql.DB
}

// NewProductService creates a new instance of ProductService.
func NewProductService(pr repositories.ProductRepository, cr repositories.CategoryRepository, db *sql.DB) ProductService {
	return &productService{productRepo: pr, categoryRepo: cr, db: db}
}

func (s *productService) CreateProduct(req CreateProductRequest) (*models.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}
	if _, err := s.categoryRepo.GetCategoryByID(req.CategoryID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: category ID %d", ErrCategoryNotFound, req.CategoryID)
		}
		return nil, fmt.Errorf("failed to verify category %d: %w", req.CategoryID, err)
	}

	product := models.Product{
		Name:        req.Name,
		SKU:         req.SKU,
		Description: req.Description,
		Price:       req.Price.Round(2),
		Stock:       req.Stock,
		MinStock:    req.MinStock,
		CategoryID:  req.CategoryID,
		Image:       req.Image,
		IsActive:    true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	id, err := s.productRepo.CreateProduct(s.db, &product)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: '%s'", ErrDuplicateSKU, req.SKU)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return s.GetProductByID(id)
}

func (s *productService) GetProducts(filters models.ProductFilters) ([]models.Product, int, error) {
	products, totalCount, err := s.productRepo.GetProducts(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get products: %w", err)
	}
	return products, totalCount, nil
}

func (s *productService) GetProductByID(id int64) (*models.Product, error) {
	product, err := s.productRepo.GetProductByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by ID: %w", err)
	}
	return product, nil
}

func (s *productService) UpdateProduct(id int64, req CreateProductRequest) (*models.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}
	existing, err := s.GetProductByID(id)
	if err != nil {
		return nil, err
	}

	existing.Name = req.Name
	existing.SKU = req.SKU
	existing.Description = req.Description
	existing.Price = req.Price.Round(2)
	existing.Stock = req.Stock
	existing.MinStock = req.MinStock
	existing.CategoryID = req.CategoryID
	existing.Image = req.Image
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	if err := s.productRepo.UpdateProduct(s.db, existing); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: '%s'", ErrDuplicateSKU, req.SKU)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return s.GetProductByID(id)
}

func (s *productService) DeleteProduct(id int64) error {
	if err := s.productRepo.DeleteProduct(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProductNotFound
		}
		if errors.Is(err, repositories.ErrRecordInUse) {
			return fmt.Errorf("%w: product has recorded sales", ErrRecordInUse)
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func (s *productService) GetShoppingProducts(filters models.ProductFilters) ([]models.Product, int, error) {
	filters.ActiveOnly = true
	filters.InStock = true
	filters.Status = nil
	return s.GetProducts(filters)
}

func validateProductRequest(req CreateProductRequest) error {
	if req.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if req.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}
	if req.MinStock < 0 {
		return fmt.Errorf("%w: min_stock cannot be negative", ErrValidation)
	}
	return nil
}
