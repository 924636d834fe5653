/**
 * @description
 * Price poller.
 * Selects tracked games whose price data has gone stale, fetches each distinct
 * app once from the Steam Store, and fans the result out to every tracker.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/steam/store
 * - backend/internal/services (history, freebies, rate limiter)
 *
 * @notes
 * - One app's failure never aborts the batch: transient errors leave
 *   last_checked untouched so the app is retried next cycle; permanent errors
 *   (delisted app) flag the trackers and stamp last_checked to avoid a retry storm.
 */

package services

import (
	"context"
	"errors"
	"time"

	"github.com/steamwatch-project/backend/internal/config"
	"github.com/steamwatch-project/backend/internal/logger"
	"github.com/steamwatch-project/backend/internal/models"
	"github.com/steamwatch-project/backend/internal/notify"
	"github.com/steamwatch-project/backend/internal/steam/store"
	"gorm.io/gorm"
)

// PriceFetcher is the poller's view of the Steam Store client.
type PriceFetcher interface {
	GetPriceInfo(ctx context.Context, appID int64, region string) (*store.PriceInfo, error)
}

// PollResult is the outcome of polling one distinct app.
type PollResult struct {
	AppID    int64
	Trackers int
	Skipped  bool
	Err      error
}

// PollerService drives the periodic price update.
type PollerService struct {
	db       *gorm.DB
	fetcher  PriceFetcher
	history  *HistoryService
	tracking *TrackingService
	freebies *FreebieService
	limiter  *RateLimitService
	cfg      *config.Config
}

// NewPollerService creates a new PollerService
func NewPollerService(
	db *gorm.DB,
	fetcher PriceFetcher,
	history *HistoryService,
	tracking *TrackingService,
	freebies *FreebieService,
	limiter *RateLimitService,
	cfg *config.Config,
) *PollerService {
	return &PollerService{
		db:       db,
		fetcher:  fetcher,
		history:  history,
		tracking: tracking,
		freebies: freebies,
		limiter:  limiter,
		cfg:      cfg,
	}
}

// appGroup is one distinct app together with its trackers.
type appGroup struct {
	AppID    int64
	GameName string
	Trackers []models.TrackedGame
}

// groupByApp deduplicates tracked games by app_id, preserving first-seen order.
// The first non-empty game name wins.
func groupByApp(games []models.TrackedGame) []appGroup {
	index := make(map[int64]int, len(games))
	groups := make([]appGroup, 0, len(games))

	for _, g := range games {
		i, ok := index[g.AppID]
		if !ok {
			index[g.AppID] = len(groups)
			groups = append(groups, appGroup{AppID: g.AppID, GameName: g.GameName})
			i = len(groups) - 1
		}
		if groups[i].GameName == "" {
			groups[i].GameName = g.GameName
		}
		groups[i].Trackers = append(groups[i].Trackers, g)
	}
	return groups
}

// PollDueGames polls every active tracker whose last check is older than
// staleness (or never checked), one Steam fetch per distinct app.
func (s *PollerService) PollDueGames(ctx context.Context, now time.Time, staleness time.Duration) ([]PollResult, error) {
	var due []models.TrackedGame
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND (last_checked IS NULL OR last_checked < ?)", true, now.Add(-staleness)).
		Order("app_id").
		Find(&due).Error
	if err != nil {
		return nil, err
	}

	groups := groupByApp(due)
	if len(groups) == 0 {
		return nil, nil
	}

	logger.Info("Poller: %d tracked games due across %d apps", len(due), len(groups))

	results := make([]PollResult, 0, len(groups))
	for _, group := range groups {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}
		results = append(results, s.pollApp(ctx, group, now))
	}
	return results, nil
}

// pollApp fetches one app and applies the result to all of its trackers.
func (s *PollerService) pollApp(ctx context.Context, group appGroup, now time.Time) PollResult {
	result := PollResult{AppID: group.AppID, Trackers: len(group.Trackers)}

	allowed, err := s.limiter.Allow(ctx, RateLimitKeySteamAPI, s.cfg.Limits.SteamRequests, s.cfg.Limits.SteamWindow)
	if err != nil {
		// Fail open: a broken limiter must not stall price updates
		logger.Error("Poller: rate limit check failed: %v", err)
		allowed = true
	}
	if !allowed {
		result.Skipped = true
		return result
	}

	region := s.cfg.Steam.DefaultRegion
	info, err := s.fetcher.GetPriceInfo(ctx, group.AppID, region)
	switch {
	case errors.Is(err, store.ErrAppNotFound):
		// Permanent: flag for manual review, stamp last_checked so the app
		// is not refetched every cycle
		if ferr := s.tracking.FlagTrackers(ctx, group.AppID); ferr != nil {
			logger.Error("Poller: failed to flag trackers of app %d: %v", group.AppID, ferr)
		}
		s.stampChecked(ctx, group.AppID, now)
		result.Err = err
		return result
	case errors.Is(err, store.ErrNoPriceData):
		s.stampChecked(ctx, group.AppID, now)
		result.Err = err
		return result
	case err != nil:
		// Transient: leave last_checked untouched so the app is retried next cycle
		logger.Error("Poller: failed to fetch price for app %d: %v", group.AppID, err)
		result.Err = err
		return result
	}

	if !info.IsFree {
		snap := &models.PriceSnapshot{
			AppID:           group.AppID,
			Region:          region,
			PriceCurrent:    info.PriceCurrent,
			PriceOriginal:   info.PriceOriginal,
			DiscountPercent: info.DiscountPercent,
			Currency:        info.Currency,
			CheckedAt:       now,
		}
		if err := s.history.SaveSnapshot(ctx, snap); err != nil {
			logger.Error("Poller: failed to save snapshot for app %d: %v", group.AppID, err)
			result.Err = err
			return result
		}

		if info.DiscountPercent == 100 {
			name := info.Name
			if name == "" {
				name = group.GameName
			}
			freebie := &models.Freebie{
				AppID:    group.AppID,
				Title:    name,
				ItemType: models.FreebieTypeGame,
				URL:      notify.StoreAppURL(group.AppID),
				StartsAt: now.Truncate(24 * time.Hour),
			}
			if err := s.freebies.Record(ctx, freebie); err != nil {
				logger.Error("Poller: failed to record freebie for app %d: %v", group.AppID, err)
			}
		}
	}

	s.stampChecked(ctx, group.AppID, now)
	return result
}

// stampChecked updates last_checked on every active tracker of the app.
func (s *PollerService) stampChecked(ctx context.Context, appID int64, now time.Time) {
	err := s.db.WithContext(ctx).
		Model(&models.TrackedGame{}).
		Where("app_id = ? AND is_active = ?", appID, true).
		Update("last_checked", now).Error
	if err != nil {
		logger.Error("Poller: failed to stamp last_checked for app %d: %v", appID, err)
	}
}
