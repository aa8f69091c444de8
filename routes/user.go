package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/conquestsam/African-Snakie/cache"
	cartControllers "github.com/conquestsam/African-Snakie/controllers/cart"
	checkoutControllers "github.com/conquestsam/African-Snakie/controllers/checkout"
	productControllers "github.com/conquestsam/African-Snakie/controllers/product"
	userControllers "github.com/conquestsam/African-Snakie/controllers/user"
	"github.com/conquestsam/African-Snakie/gateway"
	"github.com/conquestsam/African-Snakie/middleware"
)

// SetupUserRoutes registers the public catalog and all JWT-protected
// "/user/*" endpoints.
func SetupUserRoutes(r *gin.Engine, db *gorm.DB, gw *gateway.Client, pc *cache.ProductCache) {
	// Catalog browsing is public.
	r.GET("/products", productControllers.GetProducts(db, pc))
	r.GET("/products/featured", productControllers.GetFeaturedProducts(db, pc))
	r.GET("/products/:id", productControllers.GetProductByID(db, pc))
	r.GET("/categories", productControllers.GetCategories(db))

	userGroup := r.Group("/user")
	userGroup.Use(middleware.ValidateToken)
	{
		// Profile
		userGroup.GET("/", userControllers.GetUser(db))
		userGroup.PUT("/", userControllers.UpdateUser(db))

		// Shopping cart
		cartGroup := userGroup.Group("/cart")
		{
			cartGroup.GET("/", cartControllers.GetUserCart(db))
			cartGroup.POST("/items", cartControllers.AddCartItem(db))
			cartGroup.PUT("/items/:itemID", cartControllers.UpdateCartItem(db))
			cartGroup.DELETE("/items/:itemID", cartControllers.DeleteCartItem(db))
			cartGroup.DELETE("/", cartControllers.ClearUserCart(db))
		}

		// Checkout
		userGroup.POST("/checkout", checkoutControllers.PlaceCheckoutHandler(db, gw))
	}
}
