package checkoutControllers

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/conquestsam/African-Snakie/apperrors"
	cartControllers "github.com/conquestsam/African-Snakie/controllers/cart"
	orderControllers "github.com/conquestsam/African-Snakie/controllers/order"
	"github.com/conquestsam/African-Snakie/gateway"
	"github.com/conquestsam/African-Snakie/models"
)

// ShippingInput is the checkout form. Every field except Country and
// DeliveryMethod is required; missing ones are reported back by name.
type ShippingInput struct {
	FirstName      string `json:"first_name" validate:"required"`
	LastName       string `json:"last_name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"required"`
	Address        string `json:"address" validate:"required"`
	City           string `json:"city" validate:"required"`
	State          string `json:"state" validate:"required"`
	ZipCode        string `json:"zip_code" validate:"required"`
	Country        string `json:"country"`
	DeliveryMethod string `json:"delivery_method" validate:"omitempty,oneof=standard express"`
	Mode           string `json:"mode" validate:"omitempty,oneof=payment subscription"`
}

var validate = validator.New()

// ValidateShipping returns a *apperrors.ValidationError naming every missing
// or malformed field, or nil when the form is complete.
func ValidateShipping(input ShippingInput) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, jsonFieldName(fe.Field()))
	}
	return &apperrors.ValidationError{Missing: missing}
}

var fieldNames = map[string]string{
	"FirstName":      "first_name",
	"LastName":       "last_name",
	"Email":          "email",
	"Phone":          "phone",
	"Address":        "address",
	"City":           "city",
	"State":          "state",
	"ZipCode":        "zip_code",
	"DeliveryMethod": "delivery_method",
	"Mode":           "mode",
}

func jsonFieldName(structField string) string {
	if name, ok := fieldNames[structField]; ok {
		return name
	}
	return structField
}

// GenerateOrderRef produces a reference unique per checkout attempt,
// e.g. 20250908130500-2f1c9a7e-....
func GenerateOrderRef() string {
	return time.Now().Format("20060102150405") + "-" + uuid.NewString()
}

func redirectURLs(orderRef string) (successURL, cancelURL string) {
	base := os.Getenv("CHECKOUT_BASE_URL")
	if base == "" {
		base = "http://localhost:5173"
	}
	return base + "/payment-success?ref=" + orderRef, base + "/payment-cancel?ref=" + orderRef
}

// PlaceCheckout drives one checkout attempt from shipping collection to the
// hosted payment session: validate shipping, price the cart, persist the
// order as awaiting_payment, then delegate to the gateway. No step may run
// before the previous one resolves; a validation failure must not create an
// order row or contact the gateway.
func PlaceCheckout(db *gorm.DB, gw *gateway.Client, userID string, input ShippingInput) (*models.Order, *gateway.CheckoutSession, error) {
	if err := ValidateShipping(input); err != nil {
		return nil, nil, err
	}

	cart, err := cartControllers.GetOrCreateCart(db, userID)
	if err != nil {
		return nil, nil, err
	}
	if len(cart.Items) == 0 {
		return nil, nil, apperrors.ErrCartEmpty
	}

	method := models.DeliveryMethod(input.DeliveryMethod)
	if method == "" {
		method = models.DeliveryStandard
	}
	totals := cartControllers.ComputeTotals(cart.Items, method)

	order := models.Order{
		OrderRef:       GenerateOrderRef(),
		UserID:         userID,
		Status:         models.OrderStatusAwaitingPayment,
		PaymentStatus:  models.PaymentStatusPending,
		Subtotal:       totals.Subtotal,
		Discount:       totals.Discount,
		ShippingFee:    totals.Shipping,
		TotalAmount:    totals.Total,
		DeliveryMethod: method,
		Shipping: models.ShippingAddress{
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Email:     input.Email,
			Phone:     input.Phone,
			Address:   input.Address,
			City:      input.City,
			State:     input.State,
			ZipCode:   input.ZipCode,
			Country:   input.Country,
		},
	}
	if err := db.Create(&order).Error; err != nil {
		return nil, nil, err
	}

	mode := input.Mode
	if mode == "" {
		mode = gateway.ModePayment
	}

	customerID, err := gw.EnsureCustomer(db, userID, input.Email)
	if err != nil {
		return failAttempt(db, &order, err)
	}

	if mode == gateway.ModeSubscription {
		if err := gateway.EnsureSubscriptionRecord(db, customerID); err != nil {
			return failAttempt(db, &order, err)
		}
	}

	successURL, cancelURL := redirectURLs(order.OrderRef)
	session, err := gw.CreateCheckoutSession(customerID, totals.Total, mode, successURL, cancelURL, map[string]string{
		"user_id":   userID,
		"order_ref": order.OrderRef,
	})
	if err != nil {
		return failAttempt(db, &order, err)
	}

	log.Info().
		Str("order_ref", order.OrderRef).
		Str("user_id", userID).
		Str("session_id", session.ID).
		Float64("total", totals.Total).
		Msg("checkout session created")

	return &order, session, nil
}

// failAttempt transitions the attempt to failed and passes the gateway error
// through. The cart is left intact so the user can retry.
func failAttempt(db *gorm.DB, order *models.Order, cause error) (*models.Order, *gateway.CheckoutSession, error) {
	if err := orderControllers.FinalizeFailure(db, order.OrderRef, models.OrderStatusFailed, cause.Error()); err != nil {
		log.Error().Err(err).Str("order_ref", order.OrderRef).Msg("failed to mark checkout attempt failed")
	}
	return nil, nil, cause
}

// POST /user/checkout
func PlaceCheckoutHandler(db *gorm.DB, gw *gateway.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		userID, ok := userIDVal.(string)
		if !exists || !ok || userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var input ShippingInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		order, session, err := PlaceCheckout(db, gw, userID, input)
		if err != nil {
			var verr *apperrors.ValidationError
			var gerr *apperrors.GatewayError
			switch {
			case errors.As(err, &verr):
				c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "missing_fields": verr.Missing})
			case errors.Is(err, apperrors.ErrCartEmpty):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty"})
			case errors.As(err, &gerr):
				c.JSON(http.StatusBadGateway, gin.H{"error": "Payment service unavailable, please try again"})
			default:
				log.Error().Err(err).Str("user_id", userID).Msg("checkout failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start checkout"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"order_ref":  order.OrderRef,
			"session_id": session.ID,
			"url":        session.URL,
			"total":      order.TotalAmount,
		})
	}
}
