/**
 * @description
 * Housekeeping sweeper.
 * Expires freebies past their end date, purges expired UI message records,
 * dead rate limit windows, and stale leader leases. Every step is a set-based
 * statement keyed on the current time, so re-running a sweep is a no-op.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/models
 */

package services

import (
	"context"
	"time"

	"github.com/steamwatch-project/backend/internal/logger"
	"github.com/steamwatch-project/backend/internal/models"
	"gorm.io/gorm"
)

// SweepStats counts the rows each sweep step touched.
type SweepStats struct {
	FreebiesExpired  int64
	MessagesDeleted  int64
	RateLimitsPurged int64
	LeasesPurged     int64
}

// SweeperService performs periodic database housekeeping.
type SweeperService struct {
	db *gorm.DB
}

// NewSweeperService creates a new SweeperService
func NewSweeperService(db *gorm.DB) *SweeperService {
	return &SweeperService{db: db}
}

// Sweep runs all housekeeping steps. Individual step failures are logged and
// do not abort the remaining steps.
func (s *SweeperService) Sweep(ctx context.Context, now time.Time) SweepStats {
	var stats SweepStats

	// Freebies whose end date has passed flip to expired; the transition is
	// one-way, so rows already expired are excluded from the match
	res := s.db.WithContext(ctx).
		Model(&models.Freebie{}).
		Where("is_expired = ? AND ends_at IS NOT NULL AND ends_at < ?", false, now).
		Update("is_expired", true)
	if res.Error != nil {
		logger.Error("Sweeper: failed to expire freebies: %v", res.Error)
	} else {
		stats.FreebiesExpired = res.RowsAffected
	}

	res = s.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.UIMessage{})
	if res.Error != nil {
		logger.Error("Sweeper: failed to purge expired messages: %v", res.Error)
	} else {
		stats.MessagesDeleted = res.RowsAffected
	}

	// Rate limit windows are only useful while current; anything expired is
	// dead weight the upsert would overwrite anyway
	res = s.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.RateLimitWindow{})
	if res.Error != nil {
		logger.Error("Sweeper: failed to purge rate limit windows: %v", res.Error)
	} else {
		stats.RateLimitsPurged = res.RowsAffected
	}

	// A live leader keeps its lease renewed, so only crashed instances match
	res = s.db.WithContext(ctx).
		Where("expires_at < ?", now.Add(-time.Minute)).
		Delete(&models.LeaderLease{})
	if res.Error != nil {
		logger.Error("Sweeper: failed to purge stale leases: %v", res.Error)
	} else {
		stats.LeasesPurged = res.RowsAffected
	}

	if stats.FreebiesExpired+stats.MessagesDeleted+stats.RateLimitsPurged+stats.LeasesPurged > 0 {
		logger.Info("Sweeper: expired %d freebies, deleted %d messages, purged %d rate windows, %d leases",
			stats.FreebiesExpired, stats.MessagesDeleted, stats.RateLimitsPurged, stats.LeasesPurged)
	}
	return stats
}
