package productControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/conquestsam/African-Snakie/cache"
	"github.com/conquestsam/African-Snakie/models"
)

// GetProducts lists the catalog, newest first. Supports ?search= and
// ?category= filters; unfiltered results go through the cache.
func GetProducts(db *gorm.DB, pc *cache.ProductCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		search := c.Query("search")
		category := c.Query("category")

		cacheable := pc != nil && search == "" && category == ""
		if cacheable {
			if products, err := pc.GetList(c.Request.Context(), "all"); err == nil {
				c.JSON(http.StatusOK, products)
				return
			}
		}

		query := db.Preload("Category").Order("created_at DESC")
		if search != "" {
			query = query.Where("name LIKE ?", "%"+search+"%")
		}
		if category != "" {
			query = query.Where("category_id = ?", category)
		}

		var products []models.Product
		if err := query.Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}

		if cacheable {
			if err := pc.SetList(c.Request.Context(), "all", products); err != nil {
				log.Warn().Err(err).Msg("product list cache write failed")
			}
		}
		c.JSON(http.StatusOK, products)
	}
}

// GetFeaturedProducts lists products flagged for the home page.
func GetFeaturedProducts(db *gorm.DB, pc *cache.ProductCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if pc != nil {
			if products, err := pc.GetList(c.Request.Context(), "featured"); err == nil {
				c.JSON(http.StatusOK, products)
				return
			}
		}

		var products []models.Product
		if err := db.Preload("Category").
			Where("is_featured = ?", true).
			Order("created_at DESC").
			Limit(8).
			Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch featured products"})
			return
		}

		if pc != nil {
			if err := pc.SetList(c.Request.Context(), "featured", products); err != nil {
				log.Warn().Err(err).Msg("featured list cache write failed")
			}
		}
		c.JSON(http.StatusOK, products)
	}
}

// GetCategories lists all categories, alphabetically.
func GetCategories(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var categories []models.Category
		if err := db.Order("name ASC").Find(&categories).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}
