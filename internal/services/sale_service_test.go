package services

import (
	"errors"
	"testing"
	"time"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) CreateSale(executor repositories.SQLExecutor, sale *models.Sale) (int64, error) {
	args := m.Called(executor, sale)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSaleRepository) CreateSaleItem(executor repositories.SQLExecutor, item *models.SaleItem) (int64, error) {
	args := m.Called(executor, item)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSaleRepository) NextInvoiceSequence(executor repositories.SQLExecutor, day time.Time) (int, error) {
	args := m.Called(executor, day)
	return args.Int(0), args.Error(1)
}

func (m *MockSaleRepository) GetSaleByID(id int64) (*models.Sale, error) {
	args := m.Called(id)
	var sale *models.Sale
	if args.Get(0) != nil {
		sale = args.Get(0).(*models.Sale)
	}
	return sale, args.Error(1)
}

func (m *MockSaleRepository) GetSaleItemsBySaleID(saleID int64) ([]models.SaleItem, error) {
	args := m.Called(saleID)
	var items []models.SaleItem
	if args.Get(0) != nil {
		items = args.Get(0).([]models.SaleItem)
	}
	return items, args.Error(1)
}

func (m *MockSaleRepository) GetSales(filters models.SaleFilters) ([]models.Sale, int, error) {
	args := m.Called(filters)
	var sales []models.Sale
	if args.Get(0) != nil {
		sales = args.Get(0).([]models.Sale)
	}
	return sales, args.Int(1), args.Error(2)
}

func (m *MockSaleRepository) GetSalesSummary(filters models.SaleFilters) (*models.SalesSummary, error) {
	args := m.Called(filters)
	var summary *models.SalesSummary
	if args.Get(0) != nil {
		summary = args.Get(0).(*models.SalesSummary)
	}
	return summary, args.Error(1)
}

func TestGetSales_ReturnsHistoryWithSummary(t *testing.T) {
	saleRepo := new(MockSaleRepository)
	svc := NewSaleService(saleRepo)

	filters := models.SaleFilters{Page: 1, PageSize: 20}
	saleRepo.On("GetSales", filters).
		Return([]models.Sale{{ID: 1, InvoiceNumber: "INV202412190001"}}, 1, nil).Once()
	saleRepo.On("GetSalesSummary", filters).
		Return(&models.SalesSummary{
			TotalSales:         decimal.NewFromInt(38500),
			TotalTransactions:  1,
			AverageTransaction: decimal.NewFromInt(38500),
		}, nil).Once()

	sales, total, summary, err := svc.GetSales(filters)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, sales, 1)
	require.NotNil(t, summary)
	assert.True(t, summary.TotalSales.Equal(decimal.NewFromInt(38500)))
	saleRepo.AssertExpectations(t)
}

func TestGetSaleByID_LoadsItems(t *testing.T) {
	saleRepo := new(MockSaleRepository)
	svc := NewSaleService(saleRepo)

	saleRepo.On("GetSaleByID", int64(42)).
		Return(&models.Sale{ID: 42, InvoiceNumber: "INV202412190001"}, nil).Once()
	saleRepo.On("GetSaleItemsBySaleID", int64(42)).
		Return([]models.SaleItem{{ID: 1, SaleID: 42, Quantity: 2}}, nil).Once()

	sale, err := svc.GetSaleByID(42)

	require.NoError(t, err)
	require.Len(t, sale.SaleItems, 1)
	assert.Equal(t, 2, sale.TotalItems())
	saleRepo.AssertExpectations(t)
}

func TestGetSaleByID_NotFound(t *testing.T) {
	saleRepo := new(MockSaleRepository)
	svc := NewSaleService(saleRepo)

	saleRepo.On("GetSaleByID", int64(404)).Return(nil, repositories.ErrNotFound).Once()

	_, err := svc.GetSaleByID(404)

	assert.True(t, errors.Is(err, ErrSaleNotFound))
	saleRepo.AssertExpectations(t)
}
