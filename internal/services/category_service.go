package services

import (
	"database/sql"
	"errors"
	"fmt"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"
)

// CreateCategoryRequest is used for creating and updating categories.
type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// CategoryService exposes category administration.
type CategoryService interface {
	CreateCategory(req CreateCategoryRequest) (*models.Category, error)
	GetCategories(activeOnly bool, page, pageSize int) ([]models.Category, int, error)
	GetCategoryByID(id int64) (*models.Category, error)
	UpdateCategory(id int64, req CreateCategoryRequest) (*models.Category, error)
	DeleteCategory(id int64) error
}

type categoryService struct {
	categoryRepo repositories.CategoryRepository
	db           *sql.DB
}

// NewCategoryService creates a new instance of CategoryService.
func NewCategoryService(cr repositories.CategoryRepository, db *sql.DB) CategoryService {
	return &categoryService{categoryRepo: cr, db: db}
}

func (s *categoryService) CreateCategory(req CreateCategoryRequest) (*models.Category, error) {
	category := models.Category{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if _, err := s.categoryRepo.CreateCategory(s.db, &category); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: category '%s'", ErrDuplicateName, req.Name)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &category, nil
}

func (s *categoryService) GetCategories(activeOnly bool, page, pageSize int) ([]models.Category, int, error) {
	categories, totalCount, err := s.categoryRepo.GetCategories(activeOnly, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, totalCount, nil
}

func (s *categoryService) GetCategoryByID(id int64) (*models.Category, error) {
	category, err := s.categoryRepo.GetCategoryByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category by ID: %w", err)
	}
	return category, nil
}

func (s *categoryService) UpdateCategory(id int64, req CreateCategoryRequest) (*models.Category, error) {
	existing, err := s.GetCategoryByID(id)
	if err != nil {
		return nil, err
	}

	existing.Name = req.Name
	existing.Description = req.Description
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	if err := s.categoryRepo.UpdateCategory(s.db, existing); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: category '%s'", ErrDuplicateName, req.Name)
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return s.GetCategoryByID(id)
}

func (s *categoryService) DeleteCategory(id int64) error {
	if err := s.categoryRepo.DeleteCategory(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCategoryNotFound
		}
		if errors.Is(err, repositories.ErrRecordInUse) {
			return fmt.Errorf("%w: category still has products", ErrRecordInUse)
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}
