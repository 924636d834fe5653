/**
 * @description
 * Ephemeral UI message database model.
 * Maps to the 'ui_messages' table in PostgreSQL.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/google/uuid
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UIMessage records a bot-rendered message that needs later cleanup.
// Rows are deleted by the sweeper once expires_at passes.
type UIMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ChannelID int64     `gorm:"column:channel_id;not null" json:"channel_id"`
	MessageID int64     `gorm:"column:message_id;not null" json:"message_id"`
	GuildID   int64     `gorm:"column:guild_id" json:"guild_id"`
	Kind      string    `gorm:"column:kind;size:32" json:"kind"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName overrides the table name used by UIMessage to `ui_messages`
func (UIMessage) TableName() string {
	return "ui_messages"
}

// BeforeCreate ensures UUID is generated if not present
func (m *UIMessage) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
