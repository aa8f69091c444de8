package cartControllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/conquestsam/African-Snakie/apperrors"
	"github.com/conquestsam/African-Snakie/models"
)

// Flat delivery fees. Express must stay above standard.
const (
	ShippingStandard = 10.0
	ShippingExpress  = 20.0
)

type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// ComputeTotals prices a set of cart lines. Products must be preloaded.
// Shipping is charged only when the cart is non-empty.
func ComputeTotals(items []models.CartItem, method models.DeliveryMethod) Totals {
	var t Totals
	for _, item := range items {
		t.Subtotal += item.Product.Price * float64(item.Quantity)
		t.Discount += item.Product.Price * (item.Product.DiscountPercentage / 100) * float64(item.Quantity)
	}
	if t.Subtotal > 0 {
		if method == models.DeliveryExpress {
			t.Shipping = ShippingExpress
		} else {
			t.Shipping = ShippingStandard
		}
	}
	t.Total = t.Subtotal - t.Discount + t.Shipping
	return t
}

// GetOrCreateCart fetches the user's cart with items and products joined,
// creating an empty cart on first use.
func GetOrCreateCart(db *gorm.DB, userID string) (*models.Cart, error) {
	if userID == "" {
		return nil, apperrors.ErrNotAuthenticated
	}

	var cart models.Cart
	err := db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("cart_items.id ASC")
	}).Preload("Items.Product").Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart = models.Cart{UserID: userID}
	if err := db.Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem merges quantity into an existing (cart, product) line or inserts a
// new one. The resulting quantity is re-validated against inventory here even
// though the UI checks before submitting.
func AddItem(db *gorm.DB, cartID, productID uint, quantity int) error {
	if quantity < 1 {
		return &apperrors.ValidationError{Missing: []string{"quantity"}}
	}

	var product models.Product
	if err := db.First(&product, "id = ?", productID).Error; err != nil {
		return err
	}

	var item models.CartItem
	err := db.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if quantity > product.InventoryCount {
			return apperrors.ErrInsufficientInventory
		}
		item = models.CartItem{
			CartID:    cartID,
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   time.Now(),
		}
		return db.Create(&item).Error
	}
	if err != nil {
		return err
	}

	if item.Quantity+quantity > product.InventoryCount {
		return apperrors.ErrInsufficientInventory
	}
	item.Quantity += quantity
	return db.Save(&item).Error
}

// UpdateItem sets an absolute quantity. Anything below 1 removes the line.
func UpdateItem(db *gorm.DB, itemID uint, quantity int) error {
	if quantity < 1 {
		return RemoveItem(db, itemID)
	}

	var item models.CartItem
	if err := db.First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	var product models.Product
	if err := db.First(&product, "id = ?", item.ProductID).Error; err != nil {
		return err
	}
	if quantity > product.InventoryCount {
		return apperrors.ErrInsufficientInventory
	}

	item.Quantity = quantity
	return db.Save(&item).Error
}

// RemoveItem deletes a cart line. Removing a line that no longer exists is
// not an error.
func RemoveItem(db *gorm.DB, itemID uint) error {
	return db.Where("id = ?", itemID).Delete(&models.CartItem{}).Error
}

// ClearCart deletes every line in the cart. Idempotent; used after a
// completed order and on logout.
func ClearCart(db *gorm.DB, cartID uint) error {
	return db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// -------- Handlers --------

type addItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type updateItemInput struct {
	Quantity int `json:"quantity"`
}

func userIDFrom(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func parseUintParam(c *gin.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 32)
	return uint(n), err
}

// respondWithCart re-fetches the whole aggregate after a mutation so the
// client view always matches storage.
func respondWithCart(c *gin.Context, db *gorm.DB, userID string) {
	cart, err := GetOrCreateCart(db, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// GET /user/cart
func GetUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		respondWithCart(c, db, userID)
	}
}

// POST /user/cart/items
func AddCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var input addItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		cart, err := GetOrCreateCart(db, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}

		if err := AddItem(db, cart.ID, input.ProductID, input.Quantity); err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInsufficientInventory):
				c.JSON(http.StatusConflict, gin.H{"error": "Not enough items in stock"})
			case errors.Is(err, gorm.ErrRecordNotFound):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Product does not exist"})
			default:
				log.Error().Err(err).Str("user_id", userID).Msg("add cart item failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to cart"})
			}
			return
		}

		respondWithCart(c, db, userID)
	}
}

// PUT /user/cart/items/:itemID
func UpdateCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		itemID, err := parseUintParam(c, "itemID")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item id"})
			return
		}

		var input updateItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		if err := UpdateItem(db, itemID, input.Quantity); err != nil {
			if errors.Is(err, apperrors.ErrInsufficientInventory) {
				c.JSON(http.StatusConflict, gin.H{"error": "Not enough items in stock"})
				return
			}
			log.Error().Err(err).Str("user_id", userID).Msg("update cart item failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart item"})
			return
		}

		respondWithCart(c, db, userID)
	}
}

// DELETE /user/cart/items/:itemID
func DeleteCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		itemID, err := parseUintParam(c, "itemID")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item id"})
			return
		}

		if err := RemoveItem(db, itemID); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("remove cart item failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
			return
		}

		respondWithCart(c, db, userID)
	}
}

// DELETE /user/cart
func ClearUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		cart, err := GetOrCreateCart(db, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user cart"})
			return
		}

		if err := ClearCart(db, cart.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
	}
}

// GET /admin/carts/:user_id
func GetAdminUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		var cart models.Cart
		if err := db.Preload("Items").Preload("Items.Product").
			Where("user_id = ?", userID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}
		c.JSON(http.StatusOK, cart.Items)
	}
}
