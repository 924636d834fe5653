/**
 * @description
 * Leader election service backed by the bot_leader_election table.
 * Ensures only one running instance performs polling, notification, and sweeping
 * in a multi-instance deployment.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/google/uuid
 *
 * @notes
 * - Acquire is a single atomic insert-or-claim-if-expired statement, so two
 *   instances observing the same expired lease cannot both win.
 * - Losing the lease flips the leadership flag immediately; loops must check
 *   IsLeader before starting a new cycle (fail-fast, current batch may finish).
 */

package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/steamwatch-project/backend/internal/logger"
	"github.com/steamwatch-project/backend/internal/models"
	"gorm.io/gorm"
)

// WorkerLockName is the lease every background worker competes for.
const WorkerLockName = "steam_worker"

// LeaderService manages a named lease on behalf of one process instance.
type LeaderService struct {
	DB         *gorm.DB
	InstanceID string

	leading atomic.Bool
}

// NewLeaderService creates a LeaderService with a fresh instance identity.
func NewLeaderService(db *gorm.DB) *LeaderService {
	return &LeaderService{
		DB:         db,
		InstanceID: uuid.NewString()[:8],
	}
}

// IsLeader reports whether this instance currently holds the lease.
// Leader-gated loops consult this before every cycle.
func (s *LeaderService) IsLeader() bool {
	return s.leading.Load()
}

// TryAcquire attempts to claim the lease. It succeeds when no row exists for
// lockName, the existing lease has expired, or this instance already owns it.
func (s *LeaderService) TryAcquire(ctx context.Context, lockName string, leaseDuration time.Duration) (bool, error) {
	now := time.Now().UTC()

	result := s.DB.WithContext(ctx).Exec(`
		INSERT INTO bot_leader_election (lock_name, instance_id, acquired_at, expires_at, last_heartbeat)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (lock_name) DO UPDATE SET
			instance_id    = EXCLUDED.instance_id,
			acquired_at    = EXCLUDED.acquired_at,
			expires_at     = EXCLUDED.expires_at,
			last_heartbeat = EXCLUDED.last_heartbeat
		WHERE bot_leader_election.expires_at <= EXCLUDED.acquired_at
		   OR bot_leader_election.instance_id = EXCLUDED.instance_id
	`, lockName, s.InstanceID, now, now.Add(leaseDuration), now)

	if result.Error != nil {
		return false, result.Error
	}

	acquired := result.RowsAffected > 0
	s.leading.Store(acquired)
	return acquired, nil
}

// Renew extends the lease, succeeding only while this instance still owns a
// live row. A failed renewal drops leadership immediately.
func (s *LeaderService) Renew(ctx context.Context, lockName string, leaseDuration time.Duration) (bool, error) {
	now := time.Now().UTC()

	result := s.DB.WithContext(ctx).Exec(`
		UPDATE bot_leader_election
		SET expires_at = ?, last_heartbeat = ?
		WHERE lock_name = ? AND instance_id = ? AND expires_at > ?
	`, now.Add(leaseDuration), now, lockName, s.InstanceID, now)

	if result.Error != nil {
		s.leading.Store(false)
		return false, result.Error
	}

	renewed := result.RowsAffected > 0
	s.leading.Store(renewed)
	return renewed, nil
}

// Release relinquishes the lease if this instance owns it.
func (s *LeaderService) Release(ctx context.Context, lockName string) {
	s.leading.Store(false)

	err := s.DB.WithContext(ctx).
		Where("lock_name = ? AND instance_id = ?", lockName, s.InstanceID).
		Delete(&models.LeaderLease{}).Error
	if err != nil {
		logger.Error("LeaderService: failed to release lease %s: %v", lockName, err)
		return
	}
	logger.Info("LeaderService: released lease %s (instance %s)", lockName, s.InstanceID)
}

// Run maintains the lease until the context is cancelled, renewing while
// leading and attempting acquisition otherwise.
func (s *LeaderService) Run(ctx context.Context, lockName string, leaseDuration, heartbeat time.Duration) {
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	s.heartbeatOnce(ctx, lockName, leaseDuration)

	for {
		select {
		case <-ctx.Done():
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			s.Release(releaseCtx, lockName)
			cancel()
			return
		case <-ticker.C:
			s.heartbeatOnce(ctx, lockName, leaseDuration)
		}
	}
}

func (s *LeaderService) heartbeatOnce(ctx context.Context, lockName string, leaseDuration time.Duration) {
	wasLeading := s.leading.Load()

	if wasLeading {
		renewed, err := s.Renew(ctx, lockName, leaseDuration)
		if err != nil {
			logger.Error("LeaderService: renew failed for %s: %v", lockName, err)
			return
		}
		if !renewed {
			logger.Error("LeaderService: lost lease %s (instance %s)", lockName, s.InstanceID)
		}
		return
	}

	acquired, err := s.TryAcquire(ctx, lockName, leaseDuration)
	if err != nil {
		logger.Error("LeaderService: acquire failed for %s: %v", lockName, err)
		return
	}
	if acquired {
		logger.Info("LeaderService: acquired lease %s (instance %s)", lockName, s.InstanceID)
	}
}
