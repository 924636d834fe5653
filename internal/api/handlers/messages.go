/**
 * @description
 * Ephemeral message API Handlers.
 * The bot registers rendered messages here and polls for expired ones to
 * delete on the Discord side.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/steamwatch-project/backend/internal/logger"
	"github.com/steamwatch-project/backend/internal/models"
	"github.com/steamwatch-project/backend/internal/services"
)

// MessageHandler handles ephemeral message registration requests
type MessageHandler struct {
	messageService *services.MessageService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// RegisterRequest represents a message registration body
type RegisterRequest struct {
	ChannelID  int64  `json:"channel_id"`
	MessageID  int64  `json:"message_id"`
	GuildID    int64  `json:"guild_id"`
	Kind       string `json:"kind"`
	LifetimeMS int64  `json:"lifetime_ms"`
}

// Register records a bot-rendered message for later cleanup
// POST /api/v1/messages
func (h *MessageHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.ChannelID == 0 || req.MessageID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "channel_id and message_id are required",
		})
	}

	msg := &models.UIMessage{
		ChannelID: req.ChannelID,
		MessageID: req.MessageID,
		GuildID:   req.GuildID,
		Kind:      req.Kind,
	}
	if req.LifetimeMS > 0 {
		msg.ExpiresAt = time.Now().UTC().Add(time.Duration(req.LifetimeMS) * time.Millisecond)
	}

	if err := h.messageService.Register(c.Context(), msg); err != nil {
		logger.Error("MessageHandler: failed to register: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to register message",
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"id":         msg.ID,
		"expires_at": msg.ExpiresAt,
	})
}

// ListExpired returns messages past their lifetime
// GET /api/v1/messages/expired
func (h *MessageHandler) ListExpired(c *fiber.Ctx) error {
	msgs, err := h.messageService.ListExpired(c.Context(), time.Now().UTC())
	if err != nil {
		logger.Error("MessageHandler: failed to list expired: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch expired messages",
		})
	}

	return c.JSON(fiber.Map{
		"messages": msgs,
		"count":    len(msgs),
	})
}
