/**
 * @description
 * Discount notification engine.
 * Pairs each active tracker with the latest price snapshot of its app, applies
 * the threshold/cooldown rules, and hands qualifying alerts to the sink.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/notify
 * - backend/internal/services (rate limiter)
 *
 * @notes
 * - Delivery is at-least-once: last_notified is stamped only after the sink
 *   confirms delivery, so a crash between send and stamp re-sends next cycle.
 * - last_notified is set to the snapshot's checked_at, not wall clock, so the
 *   cooldown is anchored to the price observation that triggered the alert.
 */

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/steamwatch-project/backend/internal/config"
	"github.com/steamwatch-project/backend/internal/logger"
	"github.com/steamwatch-project/backend/internal/models"
	"github.com/steamwatch-project/backend/internal/notify"
	"gorm.io/gorm"
)

// Decision is the outcome of evaluating one tracker against one snapshot.
type Decision int

const (
	DecisionSkip Decision = iota
	DecisionNotify
)

// SkipReason explains why a tracker was not notified.
type SkipReason string

const (
	SkipInactive       SkipReason = "inactive"
	SkipBelowThreshold SkipReason = "below_threshold"
	SkipCooldown       SkipReason = "cooldown"
	SkipRateLimited    SkipReason = "rate_limited"
	SkipNone           SkipReason = ""
)

// Evaluate applies the notification rules to one tracker and snapshot.
// It is pure: all state comes in through the arguments.
func Evaluate(game models.TrackedGame, snap models.PriceSnapshot, now time.Time, cooldown time.Duration) (Decision, SkipReason) {
	if !game.IsActive {
		return DecisionSkip, SkipInactive
	}
	if snap.DiscountPercent < game.NotifyPercent {
		return DecisionSkip, SkipBelowThreshold
	}
	if game.LastNotified != nil && now.Sub(*game.LastNotified) < cooldown {
		return DecisionSkip, SkipCooldown
	}
	return DecisionNotify, SkipNone
}

// NotifierService evaluates trackers and delivers discount alerts.
type NotifierService struct {
	db      *gorm.DB
	sink    notify.Sink
	limiter *RateLimitService
	cfg     *config.Config
}

// NewNotifierService creates a new NotifierService
func NewNotifierService(db *gorm.DB, sink notify.Sink, limiter *RateLimitService, cfg *config.Config) *NotifierService {
	return &NotifierService{db: db, sink: sink, limiter: limiter, cfg: cfg}
}

// candidate joins one tracker with its app's most recent snapshot.
type candidate struct {
	models.TrackedGame
	SnapID        uint64    `gorm:"column:snap_id"`
	SnapDiscount  int       `gorm:"column:snap_discount"`
	SnapPriceCur  int64     `gorm:"column:snap_price_current"`
	SnapPriceOrig int64     `gorm:"column:snap_price_original"`
	SnapCurrency  string    `gorm:"column:snap_currency"`
	SnapCheckedAt time.Time `gorm:"column:snap_checked_at"`
}

// NotifyStats summarizes one notification cycle.
type NotifyStats struct {
	Evaluated   int
	Delivered   int
	RateLimited int
	Failed      int
}

// RunCycle evaluates every active tracker against the latest snapshot of its
// app and delivers alerts for those that qualify.
func (s *NotifierService) RunCycle(ctx context.Context, now time.Time) (NotifyStats, error) {
	var stats NotifyStats

	// Latest snapshot per tracker via LATERAL; trackers of apps without any
	// history simply produce no row.
	var cands []candidate
	err := s.db.WithContext(ctx).Raw(`
		SELECT g.*,
		       p.id AS snap_id,
		       p.discount_percent AS snap_discount,
		       p.price_current AS snap_price_current,
		       p.price_original AS snap_price_original,
		       p.currency AS snap_currency,
		       p.checked_at AS snap_checked_at
		FROM steam_tracked_games g
		JOIN LATERAL (
			SELECT id, discount_percent, price_current, price_original, currency, checked_at
			FROM price_history
			WHERE app_id = g.app_id
			ORDER BY checked_at DESC
			LIMIT 1
		) p ON true
		WHERE g.is_active = true
	`).Scan(&cands).Error
	if err != nil {
		return stats, fmt.Errorf("failed to load notification candidates: %w", err)
	}

	for _, c := range cands {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		stats.Evaluated++
		snap := models.PriceSnapshot{
			ID:              c.SnapID,
			AppID:           c.AppID,
			DiscountPercent: c.SnapDiscount,
			PriceCurrent:    c.SnapPriceCur,
			PriceOriginal:   c.SnapPriceOrig,
			Currency:        c.SnapCurrency,
			CheckedAt:       c.SnapCheckedAt,
		}

		decision, _ := Evaluate(c.TrackedGame, snap, now, s.cfg.Notify.Cooldown)
		if decision != DecisionNotify {
			continue
		}

		allowed, lerr := s.limiter.Allow(ctx, NotifyKey(c.UserID), s.cfg.Limits.NotifyPerUser, s.cfg.Limits.NotifyWindow)
		if lerr != nil {
			logger.Error("Notifier: rate limit check failed for user %d: %v", c.UserID, lerr)
			allowed = true
		}
		if !allowed {
			stats.RateLimited++
			continue
		}

		if err := s.deliver(ctx, c, snap); err != nil {
			// Leave last_notified untouched so the alert is retried next cycle
			logger.Error("Notifier: delivery failed for user %d app %d: %v", c.UserID, c.AppID, err)
			stats.Failed++
			continue
		}
		stats.Delivered++

		err = s.db.WithContext(ctx).
			Model(&models.TrackedGame{}).
			Where("id = ?", c.TrackedGame.ID).
			Update("last_notified", snap.CheckedAt).Error
		if err != nil {
			logger.Error("Notifier: failed to stamp last_notified for tracker %d: %v", c.TrackedGame.ID, err)
		}
	}

	return stats, nil
}

func (s *NotifierService) deliver(ctx context.Context, c candidate, snap models.PriceSnapshot) error {
	return s.sink.Deliver(ctx, notify.Notification{
		Kind:            notify.KindDiscount,
		UserID:          c.UserID,
		GuildID:         c.GuildID,
		AppID:           c.AppID,
		GameName:        c.GameName,
		DiscountPercent: snap.DiscountPercent,
		PriceCurrent:    snap.PriceCurrent,
		PriceOriginal:   snap.PriceOriginal,
		Currency:        snap.Currency,
		Message: fmt.Sprintf("%s is %d%% off (%.2f %s)",
			c.GameName, snap.DiscountPercent, float64(snap.PriceCurrent)/100, snap.Currency),
		URL: notify.StoreAppURL(c.AppID),
	})
}
