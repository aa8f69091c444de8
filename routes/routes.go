package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/conquestsam/African-Snakie/cache"
	"github.com/conquestsam/African-Snakie/gateway"
)

// SetupRoutes is the single entry-point that wires up all route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB, gw *gateway.Client, pc *cache.ProductCache) {
	// Public auth routes (no middleware)
	SetupAuthRoutes(r, db)

	// Storefront routes (JWT-protected user surface + public catalog)
	SetupUserRoutes(r, db, gw, pc)

	// Payment function endpoints + redirect confirmation routes
	SetupPaymentRoutes(r, db, gw)

	// Order queries and admin order management
	SetupOrderRoutes(r, db)

	// Admin routes (API-key-protected)
	SetupAdminRoutes(r, db)
}
