/**
 * @description
 * Tracking service for per-user, per-guild game watch entries.
 * Manages the steam_tracked_games table.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/models
 */

package services

import (
	"context"

	"github.com/steamwatch-project/backend/internal/logger"
	"github.com/steamwatch-project/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrackingService handles track/untrack operations
type TrackingService struct {
	db *gorm.DB
}

// NewTrackingService creates a new TrackingService
func NewTrackingService(db *gorm.DB) *TrackingService {
	return &TrackingService{db: db}
}

// Track adds a game to the user's watch list, or reactivates an existing row
// with the new threshold. Re-tracking clears a permanent-failure flag.
func (s *TrackingService) Track(ctx context.Context, game *models.TrackedGame) error {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "guild_id"}, {Name: "app_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"notify_percent": game.NotifyPercent,
			"game_name":      game.GameName,
			"is_active":      true,
			"flagged":        false,
		}),
	}).Create(game)

	if result.Error != nil {
		logger.Error("TrackingService: failed to track app %d: %v", game.AppID, result.Error)
		return result.Error
	}
	return nil
}

// Untrack deactivates a tracked game. Soft delete so the row and its threshold
// survive a later re-track.
func (s *TrackingService) Untrack(ctx context.Context, userID, guildID, appID int64) error {
	result := s.db.WithContext(ctx).
		Model(&models.TrackedGame{}).
		Where("user_id = ? AND guild_id = ? AND app_id = ?", userID, guildID, appID).
		Update("is_active", false)

	if result.Error != nil {
		logger.Error("TrackingService: failed to untrack app %d: %v", appID, result.Error)
		return result.Error
	}
	return nil
}

// List returns the user's active tracked games in a guild, newest first.
func (s *TrackingService) List(ctx context.Context, userID, guildID int64) ([]models.TrackedGame, error) {
	var games []models.TrackedGame
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND guild_id = ? AND is_active = ?", userID, guildID, true).
		Order("created_at DESC").
		Find(&games).Error
	if err != nil {
		return nil, err
	}
	return games, nil
}

// FlagTrackers marks every tracker of an app for manual review after a
// permanent fetch failure. Rows stay active so a recovered app resumes polling.
func (s *TrackingService) FlagTrackers(ctx context.Context, appID int64) error {
	result := s.db.WithContext(ctx).
		Model(&models.TrackedGame{}).
		Where("app_id = ? AND is_active = ?", appID, true).
		Update("flagged", true)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		logger.Info("TrackingService: flagged %d trackers of app %d", result.RowsAffected, appID)
	}
	return nil
}
