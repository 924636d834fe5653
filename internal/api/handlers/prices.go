/**
 * @description
 * Price API Handlers.
 * Read path for current prices, player counts, history, and summary stats.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/steamwatch-project/backend/internal/config"
	"github.com/steamwatch-project/backend/internal/logger"
	"github.com/steamwatch-project/backend/internal/services"
	"github.com/steamwatch-project/backend/internal/steam/store"
	"gorm.io/gorm"
)

// PriceHandler handles price-related requests
type PriceHandler struct {
	priceService   *services.PriceService
	historyService *services.HistoryService
	cfg            *config.Config
}

// NewPriceHandler creates a new PriceHandler
func NewPriceHandler(priceService *services.PriceService, historyService *services.HistoryService, cfg *config.Config) *PriceHandler {
	return &PriceHandler{
		priceService:   priceService,
		historyService: historyService,
		cfg:            cfg,
	}
}

// GetCurrent returns the current price for an app
// GET /api/v1/prices/:app_id
func (h *PriceHandler) GetCurrent(c *fiber.Ctx) error {
	appID, err := strconv.ParseInt(c.Params("app_id"), 10, 64)
	if err != nil || appID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid app_id"})
	}

	region := c.Query("region", h.cfg.Steam.DefaultRegion)

	info, err := h.priceService.CurrentPrice(c.Context(), appID, region)
	if err != nil {
		if errors.Is(err, store.ErrAppNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "App not found"})
		}
		logger.Error("PriceHandler: failed to get price for app %d: %v", appID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to fetch price"})
	}

	return c.JSON(info)
}

// GetPlayers returns the current player count for an app
// GET /api/v1/prices/:app_id/players
func (h *PriceHandler) GetPlayers(c *fiber.Ctx) error {
	appID, err := strconv.ParseInt(c.Params("app_id"), 10, 64)
	if err != nil || appID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid app_id"})
	}

	count, err := h.priceService.PlayerCount(c.Context(), appID)
	if err != nil {
		logger.Error("PriceHandler: failed to get players for app %d: %v", appID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to fetch player count"})
	}

	return c.JSON(fiber.Map{
		"app_id":       appID,
		"player_count": count,
	})
}

// GetHistory returns recent price snapshots for an app
// GET /api/v1/prices/:app_id/history
func (h *PriceHandler) GetHistory(c *fiber.Ctx) error {
	appID, err := strconv.ParseInt(c.Params("app_id"), 10, 64)
	if err != nil || appID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid app_id"})
	}

	days := c.QueryInt("days", 30)
	if days < 1 || days > 3650 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "days must be within [1,3650]"})
	}
	region := c.Query("region", h.cfg.Steam.DefaultRegion)

	history, err := h.historyService.GetHistory(c.Context(), appID, region, days)
	if err != nil {
		logger.Error("PriceHandler: failed to get history for app %d: %v", appID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch history"})
	}

	return c.JSON(fiber.Map{
		"app_id":  appID,
		"days":    days,
		"history": history,
		"count":   len(history),
	})
}

// GetStats returns the discount summary for an app
// GET /api/v1/prices/:app_id/stats
func (h *PriceHandler) GetStats(c *fiber.Ctx) error {
	appID, err := strconv.ParseInt(c.Params("app_id"), 10, 64)
	if err != nil || appID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid app_id"})
	}

	stats, err := h.historyService.GetStats(c.Context(), appID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No price data for app"})
		}
		logger.Error("PriceHandler: failed to get stats for app %d: %v", appID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch stats"})
	}

	return c.JSON(stats)
}
