package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/services"
	"retail_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SaleHandler holds the sale service. Sales are read-only over HTTP; the
// only write path is POST /pos/checkout.
type SaleHandler struct {
	saleService services.SaleService
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(ss services.SaleService) *SaleHandler {
	return &SaleHandler{saleService: ss}
}

// GetSales handles fetching the sales history with summary figures.
func (h *SaleHandler) GetSales(c *gin.Context) {
	var filters models.SaleFilters
	if dateFrom := c.Query("date_from"); dateFrom != "" {
		filters.DateFrom = &dateFrom
	}
	if dateTo := c.Query("date_to"); dateTo != "" {
		filters.DateTo = &dateTo
	}
	if paymentMethod := c.Query("payment_method"); paymentMethod != "" {
		filters.PaymentMethod = &paymentMethod
	}
	filters.Page, filters.PageSize = parsePagination(c)

	sales, totalCount, summary, err := h.saleService.GetSales(filters)
	if err != nil {
		utils.LogError(err, "GetSales: Error from saleService.GetSales")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to fetch sales.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      sales,
		"summary":   summary,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetSaleByID handles fetching a single sale with its items.
func (h *SaleHandler) GetSaleByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid sale ID format.", err.Error()))
		return
	}

	sale, err := h.saleService.GetSaleByID(id)
	if err != nil {
		if errors.Is(err, services.ErrSaleNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Sale not found.", ""))
			return
		}
		utils.LogError(err, "GetSaleByID: Error from saleService.GetSaleByID")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to fetch sale.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, sale)
}
