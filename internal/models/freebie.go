/**
 * @description
 * Freebie database model.
 * Maps to the 'freebies' table in PostgreSQL.
 *
 * @dependencies
 * - gorm.io/gorm
 */

package models

import (
	"time"
)

// FreebieType distinguishes the kind of promotional item
type FreebieType string

const (
	FreebieTypeGame FreebieType = "game"
	FreebieTypeDLC  FreebieType = "dlc"
)

// Freebie represents a fully discounted or promotional item worth announcing
// independent of user tracking. Uniqueness on (app_id, item_type, starts_at)
// makes duplicate postings a no-op. The active→expired transition is monotonic.
type Freebie struct {
	ID        uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	AppID     int64       `gorm:"column:app_id;not null;uniqueIndex:idx_freebie_app_type_start" json:"app_id"`
	Title     string      `gorm:"column:title" json:"title"`
	ItemType  FreebieType `gorm:"column:item_type;size:16;not null;uniqueIndex:idx_freebie_app_type_start" json:"item_type"`
	URL       string      `gorm:"column:url" json:"url"`
	StartsAt  time.Time   `gorm:"column:starts_at;not null;uniqueIndex:idx_freebie_app_type_start" json:"starts_at"`
	EndsAt    *time.Time  `gorm:"column:ends_at;index" json:"ends_at"`
	IsExpired bool        `gorm:"column:is_expired;default:false;index" json:"is_expired"`
	Announced bool        `gorm:"column:announced;default:false" json:"announced"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName overrides the table name used by Freebie to `freebies`
func (Freebie) TableName() string {
	return "freebies"
}
