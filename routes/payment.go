package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	orderControllers "github.com/conquestsam/African-Snakie/controllers/order"
	paymentControllers "github.com/conquestsam/African-Snakie/controllers/payment"
	"github.com/conquestsam/African-Snakie/gateway"
	"github.com/conquestsam/African-Snakie/middleware"
)

// SetupPaymentRoutes registers the gateway function endpoints and the
// redirect confirmation routes. OPTIONS preflights are wired without any
// middleware so they answer 200 before auth or body parsing runs.
func SetupPaymentRoutes(r *gin.Engine, db *gorm.DB, gw *gateway.Client) {
	payment := r.Group("/payment")
	{
		payment.OPTIONS("/checkout", paymentControllers.CORSPreflight)
		payment.OPTIONS("/intent", paymentControllers.CORSPreflight)
		payment.OPTIONS("/charge", paymentControllers.CORSPreflight)

		payment.POST("/checkout",
			middleware.ValidateToken,
			paymentControllers.CreateCheckoutSessionHandler(db, gw),
		)
		payment.POST("/intent",
			middleware.ValidateToken,
			paymentControllers.CreatePaymentIntentHandler(gw),
		)
		payment.POST("/charge",
			middleware.ValidateToken,
			paymentControllers.ProcessDirectPaymentHandler(gw),
		)

		// Redirect confirmation routes. The provider sends the customer's
		// browser back here; this is the only success/cancel signal.
		payment.GET("/success",
			middleware.ValidateToken,
			orderControllers.PaymentSuccessHandler(db),
		)
		payment.GET("/cancel", orderControllers.PaymentCancelHandler(db))
	}
}
