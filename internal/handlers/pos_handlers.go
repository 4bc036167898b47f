package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"retail_pos_backend/internal/middleware"
	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/services"
	"retail_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// PosHandler serves the cashier screen: the shopping product list and the
// checkout endpoint.
type PosHandler struct {
	checkoutService services.CheckoutService
	productService  services.ProductService
	categoryService services.CategoryService
}

// NewPosHandler creates a new PosHandler.
func NewPosHandler(cs services.CheckoutService, ps services.ProductService, cats services.CategoryService) *PosHandler {
	return &PosHandler{checkoutService: cs, productService: ps, categoryService: cats}
}

// Checkout handles the submission of a cart as a sale.
func (h *PosHandler) Checkout(c *gin.Context) {
	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "Checkout: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload.", err.Error()))
		return
	}

	operatorID, ok := middleware.OperatorID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Operator identity missing.", ""))
		return
	}
	req.UserID = operatorID

	sale, err := h.checkoutService.Checkout(req)
	if err != nil {
		utils.LogError(err, "Checkout: Error from checkoutService.Checkout")
		switch {
		case errors.Is(err, services.ErrValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid cart input.", err.Error()))
		case errors.Is(err, services.ErrStock):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeStockError, "One or more products are unavailable or short-stocked.", err.Error()))
		case errors.Is(err, services.ErrInsufficientCash):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeInsufficientCash, "Cash received is less than the total due.", err.Error()))
		case errors.Is(err, services.ErrConcurrency):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConcurrency, "Checkout conflicted with another transaction. Please retry.", err.Error()))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to process sale.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// GetReceipt returns a committed sale with items and operator for printing.
func (h *PosHandler) GetReceipt(c *gin.Context) {
	saleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid sale ID format.", err.Error()))
		return
	}

	sale, err := h.checkoutService.GetReceipt(saleID)
	if err != nil {
		if errors.Is(err, services.ErrSaleNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Sale not found.", ""))
			return
		}
		utils.LogError(err, "GetReceipt: Error from checkoutService.GetReceipt")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to load receipt.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, sale)
}

// GetShoppingProducts lists active, in-stock products with the categories
// for the cashier screen filters.
func (h *PosHandler) GetShoppingProducts(c *gin.Context) {
	var filters models.ProductFilters
	if search := c.Query("search"); search != "" {
		filters.Search = &search
	}
	if categoryIDStr := c.Query("category_id"); categoryIDStr != "" {
		categoryID, err := strconv.ParseInt(categoryIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid category_id format.", err.Error()))
			return
		}
		filters.CategoryID = &categoryID
	}
	filters.Page, filters.PageSize = parsePagination(c)

	products, totalCount, err := h.productService.GetShoppingProducts(filters)
	if err != nil {
		utils.LogError(err, "GetShoppingProducts: Error from productService")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to fetch products.", "Internal error"))
		return
	}

	categories, _, err := h.categoryService.GetCategories(true, 1, 0)
	if err != nil {
		utils.LogError(err, "GetShoppingProducts: Error fetching categories")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to fetch categories.", "Internal error"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       products,
		"categories": categories,
		"total":      totalCount,
		"page":       filters.Page,
		"page_size":  filters.PageSize,
	})
}

// parsePagination reads page/page_size query parameters with the defaults
// used across list endpoints.
func parsePagination(c *gin.Context) (int, int) {
	page := 1
	pageSize := 20
	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if pageSizeStr := c.Query("page_size"); pageSizeStr != "" {
		if ps, err := strconv.Atoi(pageSizeStr); err == nil && ps > 0 {
			pageSize = ps
		}
	}
	return page, pageSize
}
