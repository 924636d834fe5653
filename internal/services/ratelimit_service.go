/**
 * @description
 * Fixed-window rate limiter backed by the rate_limits table.
 * Bounds outbound Steam API calls and per-user notification delivery.
 *
 * @dependencies
 * - gorm.io/gorm
 *
 * @notes
 * - The check is a single conditional upsert (reset-or-increment with RETURNING),
 *   never read-then-write, so it stays correct under concurrent callers across hosts.
 * - Denial is non-fatal: callers defer the action to the next cycle.
 */

package services

import (
	"context"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// Well-known rate limit keys
const (
	RateLimitKeySteamAPI = "steam_api"
)

// RateLimitService counts events in discrete, non-overlapping time buckets.
type RateLimitService struct {
	DB *gorm.DB
}

// NewRateLimitService creates a new RateLimitService
func NewRateLimitService(db *gorm.DB) *RateLimitService {
	return &RateLimitService{DB: db}
}

// Allow consumes one slot from the window identified by key. When the window
// has expired the counter resets to 1 and the window is extended; otherwise the
// counter increments and is compared against limit.
func (s *RateLimitService) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now().UTC()
	expires := now.Add(window)

	var count int
	err := s.DB.WithContext(ctx).Raw(`
		INSERT INTO rate_limits ("key", count, window_start, expires_at)
		VALUES (?, 1, ?, ?)
		ON CONFLICT ("key") DO UPDATE SET
			count        = CASE WHEN rate_limits.expires_at <= ? THEN 1 ELSE rate_limits.count + 1 END,
			window_start = CASE WHEN rate_limits.expires_at <= ? THEN ? ELSE rate_limits.window_start END,
			expires_at   = CASE WHEN rate_limits.expires_at <= ? THEN ? ELSE rate_limits.expires_at END
		RETURNING count
	`, key, now, expires, now, now, now, now, expires).Scan(&count).Error
	if err != nil {
		return false, err
	}

	return count <= limit, nil
}

// NotifyKey builds the per-user notification limiter key
func NotifyKey(userID int64) string {
	return "notify:" + strconv.FormatInt(userID, 10)
}
