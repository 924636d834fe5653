/**
 * @description
 * Freebie service for promotional giveaways worth announcing server-wide.
 * Manages the freebies table.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/models
 * - backend/internal/notify
 */

package services

import (
	"context"
	"fmt"

	"github.com/steamwatch-project/backend/internal/logger"
	"github.com/steamwatch-project/backend/internal/models"
	"github.com/steamwatch-project/backend/internal/notify"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FreebieService handles freebie recording and announcements
type FreebieService struct {
	db   *gorm.DB
	sink notify.Sink
}

// NewFreebieService creates a new FreebieService
func NewFreebieService(db *gorm.DB, sink notify.Sink) *FreebieService {
	return &FreebieService{db: db, sink: sink}
}

// Record inserts a freebie; a duplicate (app_id, item_type, starts_at) is a
// benign no-op so repeated polls never double-post.
func (s *FreebieService) Record(ctx context.Context, freebie *models.Freebie) error {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "app_id"}, {Name: "item_type"}, {Name: "starts_at"}},
		DoNothing: true,
	}).Create(freebie)

	if result.Error != nil {
		logger.Error("FreebieService: failed to record freebie for app %d: %v", freebie.AppID, result.Error)
		return result.Error
	}
	return nil
}

// ListActive returns freebies that have started and not yet expired.
func (s *FreebieService) ListActive(ctx context.Context) ([]models.Freebie, error) {
	var freebies []models.Freebie
	err := s.db.WithContext(ctx).
		Where("is_expired = ?", false).
		Order("starts_at DESC").
		Find(&freebies).Error
	if err != nil {
		return nil, err
	}
	return freebies, nil
}

// AnnouncePending delivers every unannounced active freebie through the sink
// and marks it announced. A delivery failure leaves the row pending for the
// next cycle; one failure does not abort the batch.
func (s *FreebieService) AnnouncePending(ctx context.Context) (int, error) {
	var pending []models.Freebie
	err := s.db.WithContext(ctx).
		Where("announced = ? AND is_expired = ?", false, false).
		Order("starts_at ASC").
		Find(&pending).Error
	if err != nil {
		return 0, err
	}

	announced := 0
	for _, f := range pending {
		n := notify.Notification{
			Kind:     notify.KindFreebie,
			AppID:    f.AppID,
			GameName: f.Title,
			Message:  fmt.Sprintf("🎁 Free to keep: %s (%s)", f.Title, f.ItemType),
			URL:      f.URL,
		}
		if err := s.sink.Deliver(ctx, n); err != nil {
			logger.Error("FreebieService: failed to announce freebie %d: %v", f.ID, err)
			continue
		}

		if err := s.db.WithContext(ctx).
			Model(&models.Freebie{}).
			Where("id = ?", f.ID).
			Update("announced", true).Error; err != nil {
			logger.Error("FreebieService: failed to mark freebie %d announced: %v", f.ID, err)
			continue
		}
		announced++
	}

	if announced > 0 {
		logger.Info("FreebieService: announced %d freebies", announced)
	}
	return announced, nil
}
