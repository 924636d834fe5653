/**
 * @description
 * API Route definitions.
 * Sets up the router groups and assigns handlers.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/api/middleware
 * - backend/internal/services
 * - backend/internal/steam/store
 */

package api

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/steamwatch-project/backend/internal/api/handlers"
	"github.com/steamwatch-project/backend/internal/api/middleware"
	"github.com/steamwatch-project/backend/internal/config"
	"github.com/steamwatch-project/backend/internal/notify"
	"github.com/steamwatch-project/backend/internal/services"
	"github.com/steamwatch-project/backend/internal/steam/store"
	"gorm.io/gorm"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	// 1. Initialize Middleware
	if err := middleware.InitAuthMiddleware(cfg); err != nil {
		log.Printf("Failed to init auth middleware: %v", err)
		// We don't panic here to allow app to start in dev modes without valid keys,
		// but protected routes will fail.
	}

	// 2. Initialize Services
	steamClient := store.NewClient(cfg)
	priceService := services.NewPriceService(rdb, steamClient)
	historyService := services.NewHistoryService(db)
	trackingService := services.NewTrackingService(db)
	freebieService := services.NewFreebieService(db, notify.LogSink{})
	messageService := services.NewMessageService(db)

	// 3. Initialize Handlers
	trackingHandler := handlers.NewTrackingHandler(trackingService, steamClient, cfg)
	priceHandler := handlers.NewPriceHandler(priceService, historyService, cfg)
	freebieHandler := handlers.NewFreebieHandler(freebieService)
	messageHandler := handlers.NewMessageHandler(messageService)

	// 4. Define Routes
	apiGroup := app.Group("/api")
	v1 := apiGroup.Group("/v1")

	// Public Routes
	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Price Routes (Public read path)
	prices := v1.Group("/prices")
	prices.Get("/:app_id", priceHandler.GetCurrent)
	prices.Get("/:app_id/players", priceHandler.GetPlayers)
	prices.Get("/:app_id/history", priceHandler.GetHistory)
	prices.Get("/:app_id/stats", priceHandler.GetStats)

	// Freebie Routes (read public, submit protected)
	freebies := v1.Group("/freebies")
	freebies.Get("/", freebieHandler.List)
	freebies.Post("/", middleware.Protected(), freebieHandler.Submit)

	// Tracking Routes (Protected: only the bot gateway mutates on behalf of users)
	tracking := v1.Group("/tracking", middleware.Protected())
	tracking.Post("/", trackingHandler.Track)
	tracking.Get("/", trackingHandler.List)
	tracking.Delete("/:app_id", trackingHandler.Untrack)

	// Message Routes (Protected)
	messages := v1.Group("/messages", middleware.Protected())
	messages.Post("/", messageHandler.Register)
	messages.Get("/expired", messageHandler.ListExpired)
}
