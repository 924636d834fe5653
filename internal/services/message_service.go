/**
 * @description
 * Ephemeral UI message registry.
 * The bot front end registers rendered messages here; the sweeper removes the
 * records once expired so the bot can garbage-collect its UI.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/models
 */

package services

import (
	"context"
	"time"

	"github.com/steamwatch-project/backend/internal/models"
	"gorm.io/gorm"
)

const defaultMessageLifetime = 15 * time.Minute

// MessageService handles ephemeral message registration
type MessageService struct {
	db *gorm.DB
}

// NewMessageService creates a new MessageService
func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// Register records a bot-rendered message for later cleanup.
func (s *MessageService) Register(ctx context.Context, msg *models.UIMessage) error {
	if msg.ExpiresAt.IsZero() {
		msg.ExpiresAt = time.Now().UTC().Add(defaultMessageLifetime)
	}
	return s.db.WithContext(ctx).Create(msg).Error
}

// ListExpired returns messages whose lifetime has passed, for the bot to delete
// on the Discord side before the sweeper purges the records.
func (s *MessageService) ListExpired(ctx context.Context, now time.Time) ([]models.UIMessage, error) {
	var msgs []models.UIMessage
	err := s.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Order("expires_at ASC").
		Limit(200).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
