/**
 * @description
 * Tracking API Handlers.
 * Handles track/untrack/list operations issued by the bot on behalf of users.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 * - backend/internal/steam/store
 */

package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/steamwatch-project/backend/internal/api/middleware"
	"github.com/steamwatch-project/backend/internal/config"
	"github.com/steamwatch-project/backend/internal/logger"
	"github.com/steamwatch-project/backend/internal/models"
	"github.com/steamwatch-project/backend/internal/services"
	"github.com/steamwatch-project/backend/internal/steam/store"
)

// TrackingHandler handles tracking-related requests
type TrackingHandler struct {
	trackingService *services.TrackingService
	steam           *store.Client
	cfg             *config.Config
}

// NewTrackingHandler creates a new TrackingHandler
func NewTrackingHandler(trackingService *services.TrackingService, steam *store.Client, cfg *config.Config) *TrackingHandler {
	return &TrackingHandler{
		trackingService: trackingService,
		steam:           steam,
		cfg:             cfg,
	}
}

// TrackRequest represents a track request body
type TrackRequest struct {
	UserID        int64  `json:"user_id"`
	GuildID       int64  `json:"guild_id"`
	AppID         int64  `json:"app_id"`
	Query         string `json:"query"`
	NotifyPercent *int   `json:"notify_percent"`
}

// Track adds a game to a user's watch list
// POST /api/v1/tracking
func (h *TrackingHandler) Track(c *fiber.Ctx) error {
	caller, err := middleware.GetCaller(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req TrackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.UserID == 0 || req.GuildID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id and guild_id are required",
		})
	}

	gameName := ""
	appID := req.AppID
	if appID == 0 {
		// No app id given: resolve the free-text query against the Store search
		if req.Query == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "app_id or query is required",
			})
		}
		item, err := h.steam.SearchApp(c.Context(), req.Query)
		if err != nil {
			logger.Error("TrackingHandler: search failed for %q: %v", req.Query, err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Store search failed",
			})
		}
		if item == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No matching game found",
			})
		}
		appID = item.ID
		gameName = item.Name
	}

	threshold := h.cfg.Notify.DefaultThreshold
	if req.NotifyPercent != nil {
		threshold = *req.NotifyPercent
	}
	if threshold < 0 || threshold > 100 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "notify_percent must be within [0,100]",
		})
	}

	game := &models.TrackedGame{
		UserID:        req.UserID,
		GuildID:       req.GuildID,
		AppID:         appID,
		GameName:      gameName,
		NotifyPercent: threshold,
		IsActive:      true,
	}
	if err := h.trackingService.Track(c.Context(), game); err != nil {
		logger.Error("TrackingHandler: failed to track: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to track game",
		})
	}
	logger.Info("TrackingHandler: %s tracked app %d for user %d in guild %d", caller, appID, req.UserID, req.GuildID)

	return c.JSON(fiber.Map{
		"success":        true,
		"app_id":         appID,
		"game_name":      gameName,
		"notify_percent": threshold,
	})
}

// Untrack removes a game from a user's watch list
// DELETE /api/v1/tracking/:app_id
func (h *TrackingHandler) Untrack(c *fiber.Ctx) error {
	caller, cerr := middleware.GetCaller(c)
	if cerr != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	appID, err := strconv.ParseInt(c.Params("app_id"), 10, 64)
	if err != nil || appID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid app_id",
		})
	}

	userID, err1 := strconv.ParseInt(c.Query("user_id"), 10, 64)
	guildID, err2 := strconv.ParseInt(c.Query("guild_id"), 10, 64)
	if err1 != nil || err2 != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id and guild_id query params are required",
		})
	}

	if err := h.trackingService.Untrack(c.Context(), userID, guildID, appID); err != nil {
		logger.Error("TrackingHandler: failed to untrack: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to untrack game",
		})
	}
	logger.Info("TrackingHandler: %s untracked app %d for user %d in guild %d", caller, appID, userID, guildID)

	return c.JSON(fiber.Map{
		"success": true,
		"app_id":  appID,
	})
}

// List returns a user's tracked games in a guild
// GET /api/v1/tracking
func (h *TrackingHandler) List(c *fiber.Ctx) error {
	userID, err1 := strconv.ParseInt(c.Query("user_id"), 10, 64)
	guildID, err2 := strconv.ParseInt(c.Query("guild_id"), 10, 64)
	if err1 != nil || err2 != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id and guild_id query params are required",
		})
	}

	games, err := h.trackingService.List(c.Context(), userID, guildID)
	if err != nil {
		logger.Error("TrackingHandler: failed to list: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch tracked games",
		})
	}

	return c.JSON(fiber.Map{
		"tracked": games,
		"count":   len(games),
	})
}
