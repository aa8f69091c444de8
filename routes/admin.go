package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	cartControllers "github.com/conquestsam/African-Snakie/controllers/cart"
	userControllers "github.com/conquestsam/African-Snakie/controllers/user"
	"github.com/conquestsam/African-Snakie/middleware"
)

// SetupAdminRoutes registers the API-key-protected back-office endpoints.
func SetupAdminRoutes(r *gin.Engine, db *gorm.DB) {
	admin := r.Group("/admin")
	admin.Use(middleware.ValidateAPIKey)
	{
		admin.GET("/customers", userControllers.GetAllCustomers(db))
		admin.GET("/carts/:user_id", cartControllers.GetAdminUserCart(db))
	}
}
