package router

import (
	"database/sql"

	"retail_pos_backend/internal/config"
	"retail_pos_backend/internal/handlers"
	"retail_pos_backend/internal/middleware"
	"retail_pos_backend/internal/repositories"
	"retail_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB, cfg *config.Config) {
	// Initialize Repositories
	userRepo := repositories.NewUserRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	productRepo := repositories.NewProductRepository(db)
	saleRepo := repositories.NewSaleRepository(db)

	// Initialize Services
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	categoryService := services.NewCategoryService(categoryRepo, db)
	productService := services.NewProductService(productRepo, categoryRepo, db)
	saleService := services.NewSaleService(saleRepo)
	checkoutService := services.NewCheckoutService(productRepo, saleRepo, db, cfg.CheckoutRetries)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	productHandler := handlers.NewProductHandler(productService)
	saleHandler := handlers.NewSaleHandler(saleService)
	posHandler := handlers.NewPosHandler(checkoutService, productService, categoryService)

	apiV1 := engine.Group("/api/v1")

	// Public routes
	apiV1.POST("/auth/login", authHandler.Login)

	// Authenticated routes
	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware([]byte(cfg.JWTSecret)))
	{
		authenticated.GET("/auth/me", authHandler.GetCurrentUser)

		SetupPosRoutes(authenticated, posHandler)
		SetupProductRoutes(authenticated, productHandler)
		SetupCategoryRoutes(authenticated, categoryHandler)
		SetupSaleRoutes(authenticated, saleHandler)
	}
}
