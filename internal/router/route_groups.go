package router

import (
	"retail_pos_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupPosRoutes sets up the cashier-facing POS routes.
func SetupPosRoutes(authenticatedGroup *gin.RouterGroup, posHandler *handlers.PosHandler) {
	posRoutes := authenticatedGroup.Group("/pos")
	{
		posRoutes.GET("/products", posHandler.GetShoppingProducts)
		posRoutes.POST("/checkout", posHandler.Checkout)
		posRoutes.GET("/receipt/:id", posHandler.GetReceipt)
	}
}

// SetupProductRoutes sets up the product administration routes.
func SetupProductRoutes(authenticatedGroup *gin.RouterGroup, productHandler *handlers.ProductHandler) {
	productRoutes := authenticatedGroup.Group("/products")
	{
		productRoutes.POST("", productHandler.CreateProduct)
		productRoutes.GET("", productHandler.GetProducts)
		productRoutes.GET("/:id", productHandler.GetProductByID)
		productRoutes.PUT("/:id", productHandler.UpdateProduct)
		productRoutes.DELETE("/:id", productHandler.DeleteProduct)
	}
}

// SetupCategoryRoutes sets up the category administration routes.
func SetupCategoryRoutes(authenticatedGroup *gin.RouterGroup, categoryHandler *handlers.CategoryHandler) {
	categoryRoutes := authenticatedGroup.Group("/categories")
	{
		categoryRoutes.POST("", categoryHandler.CreateCategory)
		categoryRoutes.GET("", categoryHandler.GetCategories)
		categoryRoutes.GET("/:id", categoryHandler.GetCategoryByID)
		categoryRoutes.PUT("/:id", categoryHandler.UpdateCategory)
		categoryRoutes.DELETE("/:id", categoryHandler.DeleteCategory)
	}
}

// SetupSaleRoutes sets up the read-only sales history routes.
func SetupSaleRoutes(authenticatedGroup *gin.RouterGroup, saleHandler *handlers.SaleHandler) {
	saleRoutes := authenticatedGroup.Group("/sales")
	{
		saleRoutes.GET("", saleHandler.GetSales)
		saleRoutes.GET("/:id", saleHandler.GetSaleByID)
	}
}
