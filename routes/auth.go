package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/conquestsam/African-Snakie/auth"
	"github.com/conquestsam/African-Snakie/middleware"
)

// SetupAuthRoutes registers all "/auth/*" endpoints.
func SetupAuthRoutes(r *gin.Engine, db *gorm.DB) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", auth.Register(db))
		authGroup.POST("/login", auth.Login(db))
		authGroup.GET("/session", middleware.ValidateToken, auth.Session(db))
	}
}
