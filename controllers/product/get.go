package productControllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/conquestsam/African-Snakie/cache"
	"github.com/conquestsam/African-Snakie/models"
)

// GetProductByID returns a single product with its category.
// URL param: /products/:id
func GetProductByID(db *gorm.DB, pc *cache.ProductCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		idParam := c.Param("id")
		id, err := strconv.Atoi(idParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
			return
		}

		if pc != nil {
			if product, err := pc.GetProduct(c.Request.Context(), uint(id)); err == nil {
				c.JSON(http.StatusOK, product)
				return
			}
		}

		var product models.Product
		if err := db.Preload("Category").First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve product"})
			}
			return
		}

		if pc != nil {
			if err := pc.SetProduct(c.Request.Context(), &product); err != nil {
				log.Warn().Err(err).Uint("product_id", product.ID).Msg("product cache write failed")
			}
		}
		c.JSON(http.StatusOK, product)
	}
}
