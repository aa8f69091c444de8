package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/conquestsam/African-Snakie/cache"
	"github.com/conquestsam/African-Snakie/gateway"
	"github.com/conquestsam/African-Snakie/metrics"
	"github.com/conquestsam/African-Snakie/models"
	"github.com/conquestsam/African-Snakie/routes"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Info().Msg("starting African Snakie API")

	_ = godotenv.Load()

	db := initDatabase()

	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.GatewayCustomer{},
		&models.GatewaySubscription{},
	); err != nil {
		log.Fatal().Err(err).Msg("auto-migrate failed")
	}

	gw, err := gateway.NewClientFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("payment gateway configuration invalid")
	}

	pc := initProductCache()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	m := metrics.NewServerMetrics("api")
	r.Use(m.Middleware())
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	routes.SetupRoutes(r, db, gw, pc)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Info().Str("port", port).Msg("server listening")
	if err := r.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

// initDatabase sets up the GORM DB connection.
func initDatabase() *gorm.DB {
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
		if err != nil {
			log.Fatal().Err(err).Msg("db connection failed")
		}
		return db
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host, user, password, dbname, port,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("db connection failed")
	}
	return db
}

// initProductCache returns nil when REDIS_ADDR is unset; catalog reads then
// go straight to the database.
func initProductCache() *cache.ProductCache {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Info().Msg("REDIS_ADDR not set, product cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	return cache.NewProductCache(client)
}
