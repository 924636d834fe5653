/**
 * @description
 * Service layer for current price and player-count reads.
 * Orchestrates fetching from the Steam APIs and caching in Redis, so the API
 * read path never hammers Steam. The poller bypasses this cache on purpose.
 *
 * @dependencies
 * - backend/internal/steam/store
 * - github.com/redis/go-redis/v9
 */

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/steamwatch-project/backend/internal/logger"
	"github.com/steamwatch-project/backend/internal/steam/store"
)

const (
	PriceCacheTTL   = time.Hour
	PlayersCacheTTL = 5 * time.Minute
)

// PriceReader is the subset of the Steam client the price service needs.
type PriceReader interface {
	GetPriceInfo(ctx context.Context, appID int64, region string) (*store.PriceInfo, error)
	GetCurrentPlayers(ctx context.Context, appID int64) (int64, error)
}

type PriceService struct {
	Redis *redis.Client
	Steam PriceReader
}

func NewPriceService(rdb *redis.Client, steam PriceReader) *PriceService {
	return &PriceService{
		Redis: rdb,
		Steam: steam,
	}
}

// CurrentPrice returns the price for an app/region, preferring Cache -> Steam.
func (s *PriceService) CurrentPrice(ctx context.Context, appID int64, region string) (*store.PriceInfo, error) {
	key := priceCacheKey(appID, region)

	val, err := s.Redis.Get(ctx, key).Result()
	if err == nil {
		var info store.PriceInfo
		if err := json.Unmarshal([]byte(val), &info); err == nil {
			return &info, nil
		}
		// If unmarshal fails, fall through to Steam
	}

	info, err := s.Steam.GetPriceInfo(ctx, appID, region)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(info)
	if err != nil {
		logger.Error("PriceService: failed to marshal price for cache: %v", err)
	} else {
		if err := s.Redis.Set(ctx, key, data, PriceCacheTTL).Err(); err != nil {
			logger.Error("PriceService: failed to set price cache: %v", err)
		}
	}

	return info, nil
}

// PlayerCount returns the current player count, cached for a few minutes.
func (s *PriceService) PlayerCount(ctx context.Context, appID int64) (int64, error) {
	key := playersCacheKey(appID)

	val, err := s.Redis.Get(ctx, key).Int64()
	if err == nil {
		return val, nil
	}

	count, err := s.Steam.GetCurrentPlayers(ctx, appID)
	if err != nil {
		return 0, err
	}

	if err := s.Redis.Set(ctx, key, count, PlayersCacheTTL).Err(); err != nil {
		logger.Error("PriceService: failed to set players cache: %v", err)
	}
	return count, nil
}

// InvalidatePrice drops the cached price for an app/region. Used after the
// poller records a fresh snapshot so reads see the new value immediately.
func (s *PriceService) InvalidatePrice(ctx context.Context, appID int64, region string) {
	if err := s.Redis.Del(ctx, priceCacheKey(appID, region)).Err(); err != nil {
		logger.Error("PriceService: failed to invalidate price cache: %v", err)
	}
}

func priceCacheKey(appID int64, region string) string {
	return fmt.Sprintf("price:%d:%s", appID, region)
}

func playersCacheKey(appID int64) string {
	return fmt.Sprintf("players:%d", appID)
}
