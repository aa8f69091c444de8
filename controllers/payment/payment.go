// Package paymentControllers exposes the gateway adapter over HTTP. The
// three endpoints mirror the hosted functions the storefront calls: hosted
// checkout session creation, client-confirmable payment intents, and
// direct charges for tokenized sources.
package paymentControllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/conquestsam/African-Snakie/apperrors"
	"github.com/conquestsam/African-Snakie/gateway"
)

// CORSPreflight answers OPTIONS with a bare 200 and permissive headers
// before any body parsing or auth runs. Browsers require this to succeed
// even when the POST that follows would be rejected.
func CORSPreflight(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
	c.String(http.StatusOK, "ok")
}

type checkoutSessionInput struct {
	Amount     float64           `json:"amount" binding:"required,gt=0"`
	SuccessURL string            `json:"success_url" binding:"required"`
	CancelURL  string            `json:"cancel_url" binding:"required"`
	Mode       string            `json:"mode"`
	Metadata   map[string]string `json:"metadata"`
}

// POST /payment/checkout
// Bearer-authenticated; the middleware has already rejected missing or
// invalid tokens, so no gateway call can happen unauthenticated.
func CreateCheckoutSessionHandler(db *gorm.DB, gw *gateway.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		userID, ok := userIDVal.(string)
		if !exists || !ok || userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		email, _ := c.Get("email")
		emailStr, _ := email.(string)

		var input checkoutSessionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		mode := input.Mode
		if mode == "" {
			mode = gateway.ModePayment
		}
		if mode != gateway.ModePayment && mode != gateway.ModeSubscription {
			c.JSON(http.StatusBadRequest, gin.H{"error": `Mode must be either "payment" or "subscription"`})
			return
		}

		customerID, err := gw.EnsureCustomer(db, userID, emailStr)
		if err != nil {
			respondGatewayError(c, err, "Failed to create customer mapping")
			return
		}

		if mode == gateway.ModeSubscription {
			if err := gateway.EnsureSubscriptionRecord(db, customerID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create subscription record"})
				return
			}
		}

		metadata := map[string]string{"user_id": userID}
		for k, v := range input.Metadata {
			metadata[k] = v
		}

		session, err := gw.CreateCheckoutSession(customerID, input.Amount, mode, input.SuccessURL, input.CancelURL, metadata)
		if err != nil {
			respondGatewayError(c, err, "Failed to create checkout session")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"sessionId": session.ID,
			"url":       session.URL,
		})
	}
}

type paymentIntentInput struct {
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	OrderID  string  `json:"orderId" binding:"required"`
	Currency string  `json:"currency"`
}

// POST /payment/intent
func CreatePaymentIntentHandler(gw *gateway.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input paymentIntentInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Amount and orderId are required"})
			return
		}

		intent, err := gw.CreatePaymentIntent(input.Amount, input.OrderID, input.Currency)
		if err != nil {
			respondGatewayError(c, err, "Failed to create payment intent")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"clientSecret":    intent.ClientSecret,
			"paymentIntentId": intent.ID,
			"amount":          intent.Amount,
			"currency":        intent.Currency,
		})
	}
}

type directChargeInput struct {
	SourceID string  `json:"source_id" binding:"required"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	OrderRef string  `json:"order_ref" binding:"required"`
	Currency string  `json:"currency"`
}

// POST /payment/charge
// Accepts a tokenized payment-method reference, never a raw card number.
// The idempotency key ties retried submissions of the same attempt to one
// charge.
func ProcessDirectPaymentHandler(gw *gateway.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input directChargeInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "source_id, amount and order_ref are required"})
			return
		}

		idempotencyKey := input.OrderRef + "-" + strconv.FormatInt(time.Now().Unix(), 10)
		result, err := gw.ProcessDirectPayment(input.SourceID, gateway.ToMinorUnits(input.Amount), input.Currency, idempotencyKey)
		if err != nil {
			if errors.Is(err, apperrors.ErrPaymentDeclined) {
				c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
				return
			}
			respondGatewayError(c, err, "Payment processing failed")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"paymentId":  result.ID,
			"status":     result.Status,
			"amount":     result.Amount,
			"currency":   result.Currency,
			"receiptRef": result.ReceiptRef,
		})
	}
}

func respondGatewayError(c *gin.Context, err error, fallback string) {
	var gerr *apperrors.GatewayError
	if errors.As(err, &gerr) {
		log.Warn().Int("status", gerr.StatusCode).Str("message", gerr.Message).Msg("gateway rejected request")
		c.JSON(http.StatusBadGateway, gin.H{"error": gerr.Message})
		return
	}
	log.Error().Err(err).Msg(fallback)
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}
