/**
 * @description
 * Freebie API Handlers.
 * Read path for active giveaways plus manual submission by moderators.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/steamwatch-project/backend/internal/api/middleware"
	"github.com/steamwatch-project/backend/internal/logger"
	"github.com/steamwatch-project/backend/internal/models"
	"github.com/steamwatch-project/backend/internal/notify"
	"github.com/steamwatch-project/backend/internal/services"
)

// FreebieHandler handles freebie-related requests
type FreebieHandler struct {
	freebieService *services.FreebieService
}

// NewFreebieHandler creates a new FreebieHandler
func NewFreebieHandler(freebieService *services.FreebieService) *FreebieHandler {
	return &FreebieHandler{freebieService: freebieService}
}

// List returns active freebies
// GET /api/v1/freebies
func (h *FreebieHandler) List(c *fiber.Ctx) error {
	freebies, err := h.freebieService.ListActive(c.Context())
	if err != nil {
		logger.Error("FreebieHandler: failed to list: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch freebies",
		})
	}

	return c.JSON(fiber.Map{
		"freebies": freebies,
		"count":    len(freebies),
	})
}

// SubmitRequest represents a manual freebie submission
type SubmitRequest struct {
	AppID    int64      `json:"app_id"`
	Title    string     `json:"title"`
	ItemType string     `json:"item_type"`
	URL      string     `json:"url"`
	StartsAt time.Time  `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

// Submit records a freebie spotted by a moderator
// POST /api/v1/freebies
func (h *FreebieHandler) Submit(c *fiber.Ctx) error {
	caller, err := middleware.GetCaller(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.AppID <= 0 || req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "app_id and title are required",
		})
	}

	itemType := models.FreebieType(req.ItemType)
	if itemType != models.FreebieTypeGame && itemType != models.FreebieTypeDLC {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "item_type must be game or dlc",
		})
	}

	startsAt := req.StartsAt
	if startsAt.IsZero() {
		startsAt = time.Now().UTC().Truncate(24 * time.Hour)
	}
	url := req.URL
	if url == "" {
		url = notify.StoreAppURL(req.AppID)
	}

	freebie := &models.Freebie{
		AppID:    req.AppID,
		Title:    req.Title,
		ItemType: itemType,
		URL:      url,
		StartsAt: startsAt,
		EndsAt:   req.EndsAt,
	}
	if err := h.freebieService.Record(c.Context(), freebie); err != nil {
		logger.Error("FreebieHandler: failed to record: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record freebie",
		})
	}
	logger.Info("FreebieHandler: %s submitted freebie for app %d", caller, req.AppID)

	return c.JSON(fiber.Map{
		"success": true,
		"app_id":  req.AppID,
	})
}
