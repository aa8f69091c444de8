package cartControllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/conquestsam/African-Snakie/apperrors"
	"github.com/conquestsam/African-Snakie/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
	))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, price float64, discount float64, inventory int) models.Product {
	t.Helper()
	product := models.Product{
		Name:               "Puff Puff",
		Price:              price,
		DiscountPercentage: discount,
		InventoryCount:     inventory,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func TestGetOrCreateCart(t *testing.T) {
	db := openTestDB(t)

	cart, err := GetOrCreateCart(db, "user-1")
	require.NoError(t, err)
	assert.NotZero(t, cart.ID)
	assert.Empty(t, cart.Items)

	again, err := GetOrCreateCart(db, "user-1")
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)

	var count int64
	require.NoError(t, db.Model(&models.Cart{}).Where("user_id = ?", "user-1").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGetOrCreateCartRequiresUser(t *testing.T) {
	db := openTestDB(t)

	_, err := GetOrCreateCart(db, "")
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

func TestAddItemMergesQuantity(t *testing.T) {
	db := openTestDB(t)
	product := seedProduct(t, db, 4.00, 0, 100)
	cart, err := GetOrCreateCart(db, "user-1")
	require.NoError(t, err)

	require.NoError(t, AddItem(db, cart.ID, product.ID, 2))
	require.NoError(t, AddItem(db, cart.ID, product.ID, 3))

	var items []models.CartItem
	require.NoError(t, db.Where("cart_id = ?", cart.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestAddItemRejectsInsufficientInventory(t *testing.T) {
	db := openTestDB(t)
	product := seedProduct(t, db, 4.00, 0, 3)
	cart, err := GetOrCreateCart(db, "user-1")
	require.NoError(t, err)

	require.NoError(t, AddItem(db, cart.ID, product.ID, 2))

	err = AddItem(db, cart.ID, product.ID, 2)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientInventory)

	// The cart must be left exactly as it was.
	var item models.CartItem
	require.NoError(t, db.Where("cart_id = ?", cart.ID).First(&item).Error)
	assert.Equal(t, 2, item.Quantity)
}

func TestUpdateItemZeroBehavesAsRemove(t *testing.T) {
	db := openTestDB(t)
	product := seedProduct(t, db, 4.00, 0, 100)
	cart, err := GetOrCreateCart(db, "user-1")
	require.NoError(t, err)
	require.NoError(t, AddItem(db, cart.ID, product.ID, 2))

	var item models.CartItem
	require.NoError(t, db.Where("cart_id = ?", cart.ID).First(&item).Error)

	require.NoError(t, UpdateItem(db, item.ID, 0))

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestRemoveItemIdempotent(t *testing.T) {
	db := openTestDB(t)

	// Removing an item that never existed is not an error.
	assert.NoError(t, RemoveItem(db, 9999))
}

func TestClearCartIdempotent(t *testing.T) {
	db := openTestDB(t)
	product := seedProduct(t, db, 4.00, 0, 100)
	cart, err := GetOrCreateCart(db, "user-1")
	require.NoError(t, err)
	require.NoError(t, AddItem(db, cart.ID, product.ID, 2))

	require.NoError(t, ClearCart(db, cart.ID))
	require.NoError(t, ClearCart(db, cart.ID))

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestComputeTotals(t *testing.T) {
	items := []models.CartItem{
		{Quantity: 2, Product: models.Product{Price: 10, DiscountPercentage: 0}},
		{Quantity: 1, Product: models.Product{Price: 5, DiscountPercentage: 20}},
	}

	totals := ComputeTotals(items, models.DeliveryStandard)
	assert.InDelta(t, 25.0, totals.Subtotal, 1e-9)
	assert.InDelta(t, 1.0, totals.Discount, 1e-9)
	assert.InDelta(t, 10.0, totals.Shipping, 1e-9)
	assert.InDelta(t, 34.0, totals.Total, 1e-9)
}

func TestComputeTotalsExpressAndEmpty(t *testing.T) {
	items := []models.CartItem{
		{Quantity: 1, Product: models.Product{Price: 10}},
	}

	express := ComputeTotals(items, models.DeliveryExpress)
	assert.InDelta(t, ShippingExpress, express.Shipping, 1e-9)

	empty := ComputeTotals(nil, models.DeliveryStandard)
	assert.Zero(t, empty.Shipping)
	assert.Zero(t, empty.Total)
}
