/**
 * @description
 * Cross-instance coordination models: leader lease and rate-limit windows.
 * All multi-instance coordination goes through these rows, never in-process locks,
 * since instances may run on separate hosts.
 *
 * @dependencies
 * - gorm.io/gorm
 */

package models

import (
	"time"
)

// LeaderLease is a time-bounded exclusive claim on a named role.
// Exactly one instance_id may hold a non-expired lease per lock_name.
type LeaderLease struct {
	LockName      string    `gorm:"primaryKey;column:lock_name;size:64" json:"lock_name"`
	InstanceID    string    `gorm:"column:instance_id;size:64;not null" json:"instance_id"`
	AcquiredAt    time.Time `gorm:"column:acquired_at;not null" json:"acquired_at"`
	ExpiresAt     time.Time `gorm:"column:expires_at;not null;index" json:"expires_at"`
	LastHeartbeat time.Time `gorm:"column:last_heartbeat;not null" json:"last_heartbeat"`
}

// TableName overrides the table name used by LeaderLease to `bot_leader_election`
func (LeaderLease) TableName() string {
	return "bot_leader_election"
}

// RateLimitWindow is a fixed-window counter keyed by an arbitrary string,
// e.g. "steam_api" or "notify:<user_id>". Reset when expired.
type RateLimitWindow struct {
	Key         string    `gorm:"primaryKey;column:key;size:128" json:"key"`
	Count       int       `gorm:"column:count;not null;default:0" json:"count"`
	WindowStart time.Time `gorm:"column:window_start;not null" json:"window_start"`
	ExpiresAt   time.Time `gorm:"column:expires_at;not null;index" json:"expires_at"`
}

// TableName overrides the table name used by RateLimitWindow to `rate_limits`
func (RateLimitWindow) TableName() string {
	return "rate_limits"
}
