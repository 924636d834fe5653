/**
 * @description
 * Price history service.
 * Records append-only price snapshots and keeps the per-app summary in sync
 * inside the same transaction, so the aggregate can never silently drift.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/jackc/pgconn: Postgres error codes for deadlock retry
 * - backend/internal/models
 */

package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgconn"
	"github.com/steamwatch-project/backend/internal/logger"
	"github.com/steamwatch-project/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidSnapshot is returned when a snapshot violates the price invariants.
var ErrInvalidSnapshot = errors.New("history: snapshot violates price invariants")

// HistoryService persists snapshots and serves history/stats reads.
type HistoryService struct {
	DB *gorm.DB
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{DB: db}
}

// SaveSnapshot inserts a snapshot and updates the summary transactionally.
// The summary row is locked for the duration of the transaction so concurrent
// writers cannot lose updates.
func (s *HistoryService) SaveSnapshot(ctx context.Context, snap *models.PriceSnapshot) error {
	if snap.DiscountPercent < 0 || snap.DiscountPercent > 100 ||
		snap.PriceCurrent < 0 || snap.PriceOriginal < 0 {
		return ErrInvalidSnapshot
	}
	if snap.CheckedAt.IsZero() {
		snap.CheckedAt = time.Now().UTC()
	}

	const maxRetries = 5
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(snap).Error; err != nil {
				return err
			}

			var summary models.PriceSummary
			res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("app_id = ?", snap.AppID).
				First(&summary)

			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				seeded := seedSummary(snap)
				return tx.Create(seeded).Error
			}
			if res.Error != nil {
				return res.Error
			}

			mergeSummary(&summary, snap)
			return tx.Save(&summary).Error
		})
		if err == nil {
			return nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == "40P01" || pgErr.Code == "40001") {
			backoff := time.Duration(attempt*100+rand.Intn(100)) * time.Millisecond
			time.Sleep(backoff)
			continue
		}
		break
	}
	return fmt.Errorf("failed to save price snapshot: %w", err)
}

// seedSummary builds the first summary row for an app. The first observation
// seeds both extrema, whatever its discount.
func seedSummary(snap *models.PriceSnapshot) *models.PriceSummary {
	discount := snap.DiscountPercent
	summary := &models.PriceSummary{
		AppID:           snap.AppID,
		FirstSeen:       snap.CheckedAt,
		LastSeen:        snap.CheckedAt,
		MinDiscount:     &discount,
		MinDiscountDate: &snap.CheckedAt,
		MaxDiscount:     &discount,
		MaxDiscountDate: &snap.CheckedAt,
		TotalChecks:     1,
	}
	if discount > 0 {
		summary.TimesOnSale = 1
		summary.LastDiscount = &discount
		summary.LastDiscountDate = &snap.CheckedAt
	}
	return summary
}

// mergeSummary folds one snapshot into an existing summary. Extrema use strict
// comparison, so ties keep the earlier date.
func mergeSummary(summary *models.PriceSummary, snap *models.PriceSnapshot) {
	discount := snap.DiscountPercent
	checkedAt := snap.CheckedAt

	summary.LastSeen = checkedAt
	summary.TotalChecks++

	if summary.MinDiscount == nil || discount < *summary.MinDiscount {
		summary.MinDiscount = &discount
		summary.MinDiscountDate = &checkedAt
	}
	if summary.MaxDiscount == nil || discount > *summary.MaxDiscount {
		summary.MaxDiscount = &discount
		summary.MaxDiscountDate = &checkedAt
	}

	if discount > 0 {
		summary.TimesOnSale++
		summary.LastDiscount = &discount
		summary.LastDiscountDate = &checkedAt
	}
}

// GetHistory returns snapshots for an app within the trailing day window,
// newest first.
func (s *HistoryService) GetHistory(ctx context.Context, appID int64, region string, days int) ([]models.PriceSnapshot, error) {
	if days <= 0 {
		days = 365
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	var snapshots []models.PriceSnapshot
	err := s.DB.WithContext(ctx).
		Where("app_id = ? AND region = ? AND checked_at >= ?", appID, region, cutoff).
		Order("checked_at DESC").
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

// GetStats returns the summary for an app, computing it from the raw history
// when no summary row exists yet.
func (s *HistoryService) GetStats(ctx context.Context, appID int64) (*models.PriceSummary, error) {
	var summary models.PriceSummary
	err := s.DB.WithContext(ctx).Where("app_id = ?", appID).First(&summary).Error
	if err == nil {
		return &summary, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return s.computeStatsFromHistory(ctx, appID)
}

// computeStatsFromHistory derives summary figures directly from price_history.
// Fallback path only; the summary row normally exists after the first snapshot.
func (s *HistoryService) computeStatsFromHistory(ctx context.Context, appID int64) (*models.PriceSummary, error) {
	var snapshots []models.PriceSnapshot
	err := s.DB.WithContext(ctx).
		Where("app_id = ?", appID).
		Order("checked_at ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	summary := seedSummary(&snapshots[0])
	for i := 1; i < len(snapshots); i++ {
		mergeSummary(summary, &snapshots[i])
	}
	return summary, nil
}

// CleanupOldHistory deletes zero-discount snapshots older than the retention
// window, keeping sale observations indefinitely.
func (s *HistoryService) CleanupOldHistory(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = 730
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	result := s.DB.WithContext(ctx).
		Where("checked_at < ? AND discount_percent = 0", cutoff).
		Delete(&models.PriceSnapshot{})
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		logger.Info("HistoryService: cleaned up %d old price history records", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
