package services

import (
	"context"
	"testing"
	"time"

	"github.com/steamwatch-project/backend/internal/models"
)

func snapAt(discount int, at time.Time) *models.PriceSnapshot {
	return &models.PriceSnapshot{
		AppID:           730,
		Region:          "us",
		PriceCurrent:    int64(1499 * (100 - discount) / 100),
		PriceOriginal:   1499,
		DiscountPercent: discount,
		Currency:        "USD",
		CheckedAt:       at,
	}
}

func TestSeedSummaryFirstObservationSeedsBothExtrema(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	summary := seedSummary(snapAt(30, at))

	if summary.MinDiscount == nil || *summary.MinDiscount != 30 {
		t.Fatalf("min_discount not seeded: %v", summary.MinDiscount)
	}
	if summary.MaxDiscount == nil || *summary.MaxDiscount != 30 {
		t.Fatalf("max_discount not seeded: %v", summary.MaxDiscount)
	}
	if summary.TotalChecks != 1 || summary.TimesOnSale != 1 {
		t.Errorf("unexpected counters: checks=%d sales=%d", summary.TotalChecks, summary.TimesOnSale)
	}
}

func TestSeedSummaryZeroDiscountIsNotASale(t *testing.T) {
	summary := seedSummary(snapAt(0, time.Now().UTC()))

	if summary.TimesOnSale != 0 {
		t.Errorf("zero discount counted as sale")
	}
	if summary.LastDiscount != nil {
		t.Errorf("last_discount set for zero discount")
	}
	if summary.MinDiscount == nil || *summary.MinDiscount != 0 {
		t.Errorf("extrema should still be seeded by the first observation")
	}
}

func TestMergeSummaryTracksTrueExtrema(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	discounts := []int{10, 75, 0, 40, 90, 25}

	summary := seedSummary(snapAt(discounts[0], base))
	for i := 1; i < len(discounts); i++ {
		mergeSummary(summary, snapAt(discounts[i], base.Add(time.Duration(i)*time.Hour)))
	}

	if *summary.MinDiscount != 0 {
		t.Errorf("expected min 0, got %d", *summary.MinDiscount)
	}
	if *summary.MaxDiscount != 90 {
		t.Errorf("expected max 90, got %d", *summary.MaxDiscount)
	}
	if summary.TotalChecks != int64(len(discounts)) {
		t.Errorf("expected %d checks, got %d", len(discounts), summary.TotalChecks)
	}
	if summary.TimesOnSale != 5 {
		t.Errorf("expected 5 sale observations, got %d", summary.TimesOnSale)
	}
	if *summary.LastDiscount != 25 {
		t.Errorf("expected last discount 25, got %d", *summary.LastDiscount)
	}
	if !summary.MaxDiscountDate.Equal(base.Add(4 * time.Hour)) {
		t.Errorf("max discount date should match the 90%% snapshot")
	}
}

func TestMergeSummaryStrictComparisonKeepsEarlierDate(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	summary := seedSummary(snapAt(50, base))
	mergeSummary(summary, snapAt(50, base.Add(time.Hour)))

	if !summary.MaxDiscountDate.Equal(base) {
		t.Errorf("tie should keep the earlier extremum date")
	}
	if !summary.LastDiscountDate.Equal(base.Add(time.Hour)) {
		t.Errorf("last discount date should advance")
	}
}

func TestSaveSnapshotRejectsInvalidBounds(t *testing.T) {
	s := &HistoryService{}

	cases := []*models.PriceSnapshot{
		{AppID: 730, DiscountPercent: -1},
		{AppID: 730, DiscountPercent: 101},
		{AppID: 730, PriceCurrent: -5},
		{AppID: 730, PriceOriginal: -5},
	}
	for _, snap := range cases {
		if err := s.SaveSnapshot(context.Background(), snap); err != ErrInvalidSnapshot {
			t.Errorf("expected ErrInvalidSnapshot for %+v, got %v", snap, err)
		}
	}
}
