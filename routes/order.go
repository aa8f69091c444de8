package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	orderControllers "github.com/conquestsam/African-Snakie/controllers/order"
	"github.com/conquestsam/African-Snakie/middleware"
)

func SetupOrderRoutes(r *gin.Engine, db *gorm.DB) {
	orders := r.Group("/orders")
	{
		// Live order feed for the admin dashboard
		orders.GET("/ws", orderControllers.OrderWebSocketHandler)

		// Orders for the signed-in user
		orders.GET("/user/:userID", middleware.ValidateToken, orderControllers.GetUserOrdersHandler(db))
		orders.GET("/:orderID", middleware.ValidateToken, orderControllers.GetOrderByIDHandler(db))

		// Admin order management
		orders.GET("/", middleware.ValidateAPIKey, orderControllers.GetAllOrdersHandler(db))
		orders.PUT("/:orderID/status", middleware.ValidateAPIKey, orderControllers.UpdateOrderStatusHandler(db))
		orders.PUT("/:orderID/payment-status", middleware.ValidateAPIKey, orderControllers.UpdatePaymentStatusHandler(db))
		orders.DELETE("/:orderID", middleware.ValidateAPIKey, orderControllers.DeleteOrderHandler(db))
	}
}
