package orderControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/conquestsam/African-Snakie/apperrors"
	cartControllers "github.com/conquestsam/African-Snakie/controllers/cart"
	"github.com/conquestsam/African-Snakie/models"
)

// FinalizeResult reports what the reconciler actually did. CartCleared is
// best-effort: an order can be valid while its cart cleanup failed.
type FinalizeResult struct {
	Order       *models.Order
	CartCleared bool
}

// FinalizeSuccess transitions an order to paid and snapshots the cart into
// order items, then clears the cart. Idempotent on the order ref: a second
// confirmation for an already-paid order is a no-op and never duplicates
// the snapshot. The status update and the item inserts commit as one
// transaction; only the cart clear runs after, because order correctness
// takes priority over cart cleanup.
func FinalizeSuccess(db *gorm.DB, orderRef, paymentReceipt string) (*FinalizeResult, error) {
	var order models.Order
	if err := db.Preload("Items").Where("order_ref = ?", orderRef).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}

	if order.Status == models.OrderStatusPaid {
		// Replayed confirmation. Report the cart as it actually is; the
		// first attempt's clear may have failed.
		result := &FinalizeResult{Order: &order}
		if cart, err := cartControllers.GetOrCreateCart(db, order.UserID); err == nil {
			result.CartCleared = len(cart.Items) == 0
		}
		return result, nil
	}
	if order.Status.Terminal() {
		return nil, apperrors.ErrOrderTerminal
	}

	cart, err := cartControllers.GetOrCreateCart(db, order.UserID)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":          models.OrderStatusPaid,
			"payment_status":  models.PaymentStatusCompleted,
			"payment_receipt": paymentReceipt,
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return err
		}

		for _, item := range cart.Items {
			snapshot := models.OrderItem{
				OrderID:     order.ID,
				ProductID:   item.ProductID,
				ProductName: item.Product.Name,
				UnitPrice:   item.Product.EffectivePrice(),
				Quantity:    item.Quantity,
			}
			if err := tx.Create(&snapshot).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &FinalizeResult{CartCleared: true}
	if err := cartControllers.ClearCart(db, cart.ID); err != nil {
		// The order is already committed; report the cleanup failure but do
		// not undo anything.
		log.Error().Err(err).Str("order_ref", orderRef).Msg("cart clear failed after order finalization")
		result.CartCleared = false
	}

	if err := db.Preload("Items").Where("order_ref = ?", orderRef).First(&order).Error; err != nil {
		return nil, err
	}
	result.Order = &order

	log.Info().
		Str("order_ref", orderRef).
		Str("user_id", order.UserID).
		Int("items", len(order.Items)).
		Bool("cart_cleared", result.CartCleared).
		Msg("order finalized")

	broadcastOrderUpdate(order)
	return result, nil
}

// FinalizeFailure marks a non-terminal order cancelled or failed. An absent
// order is fine: nothing was persisted before payment was attempted, so the
// UI just restarts checkout. The cart is never touched on failure.
func FinalizeFailure(db *gorm.DB, orderRef string, status models.OrderStatus, reason string) error {
	if status != models.OrderStatusCancelled && status != models.OrderStatusFailed {
		return errors.New("finalize failure requires a cancelled or failed status")
	}

	var order models.Order
	if err := db.Where("order_ref = ?", orderRef).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if order.Status.Terminal() {
		return nil
	}

	updates := map[string]interface{}{
		"status":         status,
		"payment_status": models.PaymentStatusFailed,
	}
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
		return err
	}

	log.Info().
		Str("order_ref", orderRef).
		Str("status", string(status)).
		Str("reason", reason).
		Msg("checkout attempt closed without payment")
	return nil
}

// GET /payment/success?ref=...
// The provider redirects the customer's browser here after a successful
// hosted payment. In this design the redirect is the only success signal:
// there is no webhook consumption.
func PaymentSuccessHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderRef := c.Query("ref")
		if orderRef == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ref is required"})
			return
		}

		result, err := FinalizeSuccess(db, orderRef, c.Query("receipt"))
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrOrderNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			case errors.Is(err, apperrors.ErrOrderTerminal):
				c.JSON(http.StatusConflict, gin.H{"error": "order can no longer be paid"})
			default:
				log.Error().Err(err).Str("order_ref", orderRef).Msg("finalize success failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to finalize order"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"order":        result.Order,
			"cart_cleared": result.CartCleared,
		})
	}
}

// GET /payment/cancel?ref=...
// Reached when the user backs out of the hosted payment page before
// confirming. No charge happened; the cart survives so they can retry.
func PaymentCancelHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderRef := c.Query("ref")
		if orderRef == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ref is required"})
			return
		}

		if err := FinalizeFailure(db, orderRef, models.OrderStatusCancelled, "user cancelled at gateway"); err != nil {
			log.Error().Err(err).Str("order_ref", orderRef).Msg("finalize cancel failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel order"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Payment cancelled, your cart is untouched"})
	}
}
