package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Checkout(req services.CheckoutRequest) (*models.Sale, error) {
	args := m.Called(req)
	var sale *models.Sale
	if args.Get(0) != nil {
		sale = args.Get(0).(*models.Sale)
	}
	return sale, args.Error(1)
}

func (m *MockCheckoutService) GetReceipt(saleID int64) (*models.Sale, error) {
	args := m.Called(saleID)
	var sale *models.Sale
	if args.Get(0) != nil {
		sale = args.Get(0).(*models.Sale)
	}
	return sale, args.Error(1)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) CreateProduct(req services.CreateProductRequest) (*models.Product, error) {
	args := m.Called(req)
	var p *models.Product
	if args.Get(0) != nil {
		p = args.Get(0).(*models.Product)
	}
	return p, args.Error(1)
}

func (m *MockProductService) GetProducts(filters models.ProductFilters) ([]models.Product, int, error) {
	args := m.Called(filters)
	var products []models.Product
	if args.Get(0) != nil {
		products = args.Get(0).([]models.Product)
	}
	return products, args.Int(1), args.Error(2)
}

func (m *MockProductService) GetProductByID(id int64) (*models.Product, error) {
	args := m.Called(id)
	var p *models.Product
	if args.Get(0) != nil {
		p = args.Get(0).(*models.Product)
	}
	return p, args.Error(1)
}

func (m *MockProductService) UpdateProduct(id int64, req services.CreateProductRequest) (*models.Product, error) {
	args := m.Called(id, req)
	var p *models.Product
	if args.Get(0) != nil {
		p = args.Get(0).(*models.Product)
	}
	return p, args.Error(1)
}

func (m *MockProductService) DeleteProduct(id int64) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockProductService) GetShoppingProducts(filters models.ProductFilters) ([]models.Product, int, error) {
	args := m.Called(filters)
	var products []models.Product
	if args.Get(0) != nil {
		products = args.Get(0).([]models.Product)
	}
	return products, args.Int(1), args.Error(2)
}

type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) CreateCategory(req services.CreateCategoryRequest) (*models.Category, error) {
	args := m.Called(req)
	var c *models.Category
	if args.Get(0) != nil {
		c = args.Get(0).(*models.Category)
	}
	return c, args.Error(1)
}

func (m *MockCategoryService) GetCategories(activeOnly bool, page, pageSize int) ([]models.Category, int, error) {
	args := m.Called(activeOnly, page, pageSize)
	var categories []models.Category
	if args.Get(0) != nil {
		categories = args.Get(0).([]models.Category)
	}
	return categories, args.Int(1), args.Error(2)
}

func (m *MockCategoryService) GetCategoryByID(id int64) (*models.Category, error) {
	args := m.Called(id)
	var c *models.Category
	if args.Get(0) != nil {
		c = args.Get(0).(*models.Category)
	}
	return c, args.Error(1)
}

func (m *MockCategoryService) UpdateCategory(id int64, req services.CreateCategoryRequest) (*models.Category, error) {
	args := m.Called(id, req)
	var c *models.Category
	if args.Get(0) != nil {
		c = args.Get(0).(*models.Category)
	}
	return c, args.Error(1)
}

func (m *MockCategoryService) DeleteCategory(id int64) error {
	args := m.Called(id)
	return args.Error(0)
}

// stubIdentity mimics the auth middleware by injecting a fixed operator.
func stubIdentity(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("username", "cashier")
		c.Next()
	}
}

func setupPosRouter(checkout *MockCheckoutService, products *MockProductService, categories *MockCategoryService, withIdentity bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handler := NewPosHandler(checkout, products, categories)

	group := engine.Group("/api/v1/pos")
	if withIdentity {
		group.Use(stubIdentity(7))
	}
	group.GET("/products", handler.GetShoppingProducts)
	group.POST("/checkout", handler.Checkout)
	group.GET("/receipt/:id", handler.GetReceipt)
	return engine
}

func checkoutBody(t *testing.T) *bytes.Buffer {
	body, err := json.Marshal(gin.H{
		"items": []gin.H{
			{"product_id": 1, "quantity": 2, "unit_price": "15000"},
			{"product_id": 2, "quantity": 1, "unit_price": "5000"},
		},
		"cash_received":  "40000",
		"payment_method": "cash",
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func decodeErrorEnvelope(t *testing.T, body *bytes.Buffer) map[string]string {
	var envelope struct {
		Error map[string]string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body.Bytes(), &envelope))
	return envelope.Error
}

func TestPosCheckout_Success(t *testing.T) {
	checkout := new(MockCheckoutService)
	router := setupPosRouter(checkout, new(MockProductService), new(MockCategoryService), true)

	sale := &models.Sale{
		ID:            42,
		InvoiceNumber: "INV202412190001",
		UserID:        7,
		TotalAmount:   decimal.NewFromInt(38500),
		ChangeAmount:  decimal.NewFromInt(1500),
		Status:        "completed",
	}
	checkout.On("Checkout", mock.MatchedBy(func(req services.CheckoutRequest) bool {
		return req.UserID == 7 && len(req.Items) == 2 && req.PaymentMethod == "cash"
	})).Return(sale, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pos/checkout", checkoutBody(t))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var got models.Sale
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "INV202412190001", got.InvoiceNumber)
	checkout.AssertExpectations(t)
}

func TestPosCheckout_MissingIdentity(t *testing.T) {
	checkout := new(MockCheckoutService)
	router := setupPosRouter(checkout, new(MockProductService), new(MockCategoryService), false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pos/checkout", checkoutBody(t))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	checkout.AssertNotCalled(t, "Checkout", mock.Anything)
}

func TestPosCheckout_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"stock conflict", fmt.Errorf("%w: product short", services.ErrStock), http.StatusConflict, "stock_error"},
		{"insufficient cash", fmt.Errorf("%w: total due 38500", services.ErrInsufficientCash), http.StatusUnprocessableEntity, "insufficient_cash"},
		{"concurrency", fmt.Errorf("%w: invoice collision", services.ErrConcurrency), http.StatusConflict, "concurrency_error"},
		{"validation", fmt.Errorf("%w: empty cart", services.ErrValidation), http.StatusBadRequest, "validation_error"},
		{"persistence", fmt.Errorf("%w: db down", services.ErrPersistence), http.StatusInternalServerError, "persistence_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			checkout := new(MockCheckoutService)
			router := setupPosRouter(checkout, new(MockProductService), new(MockCategoryService), true)
			checkout.On("Checkout", mock.Anything).Return(nil, tc.serviceErr).Once()

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/pos/checkout", checkoutBody(t))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			envelope := decodeErrorEnvelope(t, w.Body)
			assert.Equal(t, tc.wantCode, envelope["code"])
			checkout.AssertExpectations(t)
		})
	}
}

func TestPosGetReceipt_NotFound(t *testing.T) {
	checkout := new(MockCheckoutService)
	router := setupPosRouter(checkout, new(MockProductService), new(MockCategoryService), true)
	checkout.On("GetReceipt", int64(404)).Return(nil, services.ErrSaleNotFound).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/pos/receipt/404", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	envelope := decodeErrorEnvelope(t, w.Body)
	assert.Equal(t, "not_found", envelope["code"])
	checkout.AssertExpectations(t)
}

func TestPosGetReceipt_InvalidID(t *testing.T) {
	checkout := new(MockCheckoutService)
	router := setupPosRouter(checkout, new(MockProductService), new(MockCategoryService), true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/pos/receipt/abc", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	checkout.AssertNotCalled(t, "GetReceipt", mock.Anything)
}

func TestPosGetShoppingProducts(t *testing.T) {
	products := new(MockProductService)
	categories := new(MockCategoryService)
	router := setupPosRouter(new(MockCheckoutService), products, categories, true)

	products.On("GetShoppingProducts", mock.MatchedBy(func(f models.ProductFilters) bool {
		return f.Search != nil && *f.Search == "latte" && f.Page == 1 && f.PageSize == 20
	})).Return([]models.Product{{ID: 1, Name: "Latte", SKU: "SKU-LAT"}}, 1, nil).Once()
	categories.On("GetCategories", true, 1, 0).
		Return([]models.Category{{ID: 2, Name: "Coffee"}}, 1, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/pos/products?search=latte", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data       []models.Product  `json:"data"`
		Categories []models.Category `json:"categories"`
		Total      int               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Latte", body.Data[0].Name)
	require.Len(t, body.Categories, 1)
	assert.Equal(t, 1, body.Total)
	products.AssertExpectations(t)
	categories.AssertExpectations(t)
}
