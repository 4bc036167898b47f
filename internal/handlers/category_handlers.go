package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"retail_pos_backend/internal/services"
	"retail_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CategoryHandler holds the category service.
type CategoryHandler struct {
	categoryService services.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(cs services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: cs}
}

// CreateCategory handles the creation of a new category.
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req services.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload.", err.Error()))
		return
	}

	category, err := h.categoryService.CreateCategory(req)
	if err != nil {
		respondCategoryError(c, err, "CreateCategory")
		return
	}
	c.JSON(http.StatusCreated, category)
}

// GetCategories handles fetching categories.
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	page, pageSize := parsePagination(c)

	categories, totalCount, err := h.categoryService.GetCategories(activeOnly, page, pageSize)
	if err != nil {
		utils.LogError(err, "GetCategories: Error from categoryService.GetCategories")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to fetch categories.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      categories,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetCategoryByID handles fetching a single category.
func (h *CategoryHandler) GetCategoryByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid category ID format.", err.Error()))
		return
	}

	category, err := h.categoryService.GetCategoryByID(id)
	if err != nil {
		respondCategoryError(c, err, "GetCategoryByID")
		return
	}
	c.JSON(http.StatusOK, category)
}

// UpdateCategory handles updating an existing category.
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid category ID format.", err.Error()))
		return
	}

	var req services.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload.", err.Error()))
		return
	}

	category, err := h.categoryService.UpdateCategory(id, req)
	if err != nil {
		respondCategoryError(c, err, "UpdateCategory")
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory handles deleting a category with no products.
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid category ID format.", err.Error()))
		return
	}

	if err := h.categoryService.DeleteCategory(id); err != nil {
		respondCategoryError(c, err, "DeleteCategory")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

func respondCategoryError(c *gin.Context, err error, operation string) {
	utils.LogError(err, operation+": Error from categoryService")
	switch {
	case errors.Is(err, services.ErrCategoryNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Category not found.", ""))
	case errors.Is(err, services.ErrDuplicateName):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "A category with this name already exists.", err.Error()))
	case errors.Is(err, services.ErrRecordInUse):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Category still has products and cannot be deleted.", err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternal, "Category operation failed.", "Internal error"))
	}
}
