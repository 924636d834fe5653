/**
 * @description
 * Tracked game database model.
 * Maps to the 'steam_tracked_games' table in PostgreSQL.
 *
 * @dependencies
 * - gorm.io/gorm
 */

package models

import (
	"time"
)

// TrackedGame represents a (user, guild, app) triple the user wants discount alerts for.
// Untracking deactivates the row instead of deleting it so the threshold survives a re-track.
type TrackedGame struct {
	ID            uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64      `gorm:"column:user_id;not null;uniqueIndex:idx_tracked_user_guild_app" json:"user_id"`
	GuildID       int64      `gorm:"column:guild_id;not null;uniqueIndex:idx_tracked_user_guild_app" json:"guild_id"`
	AppID         int64      `gorm:"column:app_id;not null;uniqueIndex:idx_tracked_user_guild_app;index" json:"app_id"`
	GameName      string     `gorm:"column:game_name" json:"game_name"`
	NotifyPercent int        `gorm:"column:notify_percent;default:50" json:"notify_percent"`
	IsActive      bool       `gorm:"column:is_active;default:true;index" json:"is_active"`
	Flagged       bool       `gorm:"column:flagged;default:false" json:"flagged"`
	LastChecked   *time.Time `gorm:"column:last_checked" json:"last_checked"`
	LastNotified  *time.Time `gorm:"column:last_notified" json:"last_notified"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName overrides the table name used by TrackedGame to `steam_tracked_games`
func (TrackedGame) TableName() string {
	return "steam_tracked_games"
}
