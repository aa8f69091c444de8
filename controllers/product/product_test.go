package productControllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/conquestsam/African-Snakie/models"
)

func setupCatalog(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Category{}, &models.Product{}))

	snacks := models.Category{Name: "Snacks"}
	drinks := models.Category{Name: "Drinks"}
	require.NoError(t, db.Create(&snacks).Error)
	require.NoError(t, db.Create(&drinks).Error)

	products := []models.Product{
		{Name: "Chin Chin", Price: 10, CategoryID: snacks.ID, IsFeatured: true, InventoryCount: 50},
		{Name: "Plantain Chips", Price: 5, DiscountPercentage: 20, CategoryID: snacks.ID, InventoryCount: 50},
		{Name: "Zobo", Price: 3, CategoryID: drinks.ID, InventoryCount: 20},
	}
	for i := range products {
		require.NoError(t, db.Create(&products[i]).Error)
	}

	// Catalog reads run without Redis in tests; a nil cache disables the
	// cache-aside path.
	r := gin.New()
	r.GET("/products", GetProducts(db, nil))
	r.GET("/products/featured", GetFeaturedProducts(db, nil))
	r.GET("/products/:id", GetProductByID(db, nil))
	r.GET("/categories", GetCategories(db))
	return r, db
}

func getJSON(t *testing.T, r *gin.Engine, path string, out interface{}) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w.Code
}

func TestGetProducts(t *testing.T) {
	r, _ := setupCatalog(t)

	var products []models.Product
	code := getJSON(t, r, "/products", &products)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, products, 3)
}

func TestGetProductsSearch(t *testing.T) {
	r, _ := setupCatalog(t)

	var products []models.Product
	code := getJSON(t, r, "/products?search=Chin", &products)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, products, 1)
	assert.Equal(t, "Chin Chin", products[0].Name)
}

func TestGetProductsByCategory(t *testing.T) {
	r, db := setupCatalog(t)

	var snacks models.Category
	require.NoError(t, db.Where("name = ?", "Snacks").First(&snacks).Error)

	var products []models.Product
	code := getJSON(t, r, "/products?category="+itoa(snacks.ID), &products)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, products, 2)
}

func TestGetFeaturedProducts(t *testing.T) {
	r, _ := setupCatalog(t)

	var products []models.Product
	code := getJSON(t, r, "/products/featured", &products)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, products, 1)
	assert.Equal(t, "Chin Chin", products[0].Name)
}

func TestGetProductByID(t *testing.T) {
	r, db := setupCatalog(t)

	var want models.Product
	require.NoError(t, db.Where("name = ?", "Zobo").First(&want).Error)

	var got models.Product
	code := getJSON(t, r, "/products/"+itoa(want.ID), &got)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, want.Name, got.Name)

	assert.Equal(t, http.StatusNotFound, getJSON(t, r, "/products/99999", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, r, "/products/not-a-number", nil))
}

func TestGetCategoriesSorted(t *testing.T) {
	r, _ := setupCatalog(t)

	var categories []models.Category
	code := getJSON(t, r, "/categories", &categories)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, categories, 2)
	assert.Equal(t, "Drinks", categories[0].Name)
	assert.Equal(t, "Snacks", categories[1].Name)
}

func TestEffectivePrice(t *testing.T) {
	p := models.Product{Price: 5, DiscountPercentage: 20}
	assert.InDelta(t, 4.0, p.EffectivePrice(), 1e-9)

	full := models.Product{Price: 10}
	assert.InDelta(t, 10.0, full.EffectivePrice(), 1e-9)
}

func itoa(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}
