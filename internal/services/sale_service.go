package services

import (
	"errors"
	"fmt"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"
)

// SaleService exposes the read side of the sale ledger: history with summary
// figures and single-sale receipt lookup. The ledger is append-only; writes
// go exclusively through the checkout coordinator.
type SaleService interface {
	GetSales(filters models.SaleFilters) ([]models.Sale, int, *models.SalesSummary, error)
	GetSaleByID(id int64) (*models.Sale, error)
}

type saleService struct {
	saleRepo repositories.SaleRepository
}

// NewSaleService creates a new instance of SaleService.
func NewSaleService(sr repositories.SaleRepository) SaleService {
	return &saleService{saleRepo: sr}
}

func (s *saleService) GetSales(filters models.SaleFilters) ([]models.Sale, int, *models.SalesSummary, error) {
	sales, totalCount, err := s.saleRepo.GetSales(filters)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("failed to get sales: %w", err)
	}
	summary, err := s.saleRepo.GetSalesSummary(filters)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("failed to get sales summary: %w", err)
	}
	return sales, totalCount, summary, nil
}

func (s *saleService) GetSaleByID(id int64) (*models.Sale, error) {
	sale, err := s.saleRepo.GetSaleByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to get sale by ID: %w", err)
	}
	items, err := s.saleRepo.GetSaleItemsBySaleID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale items for sale %d: %w", id, err)
	}
	sale.SaleItems = items
	return sale, nil
}
