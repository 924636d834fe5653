package services

import (
	"testing"
	"time"

	"github.com/steamwatch-project/backend/internal/models"
)

func TestEvaluateThreshold(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	game := models.TrackedGame{IsActive: true, NotifyPercent: 50}

	decision, reason := Evaluate(game, models.PriceSnapshot{DiscountPercent: 30}, now, 24*time.Hour)
	if decision != DecisionSkip || reason != SkipBelowThreshold {
		t.Errorf("discount 30 vs threshold 50: got (%v, %s), want skip below_threshold", decision, reason)
	}

	decision, _ = Evaluate(game, models.PriceSnapshot{DiscountPercent: 60}, now, 24*time.Hour)
	if decision != DecisionNotify {
		t.Errorf("discount 60 vs threshold 50: expected notify, got skip")
	}

	// Exactly at threshold qualifies
	decision, _ = Evaluate(game, models.PriceSnapshot{DiscountPercent: 50}, now, 24*time.Hour)
	if decision != DecisionNotify {
		t.Errorf("discount equal to threshold: expected notify, got skip")
	}
}

func TestEvaluateCooldown(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := models.PriceSnapshot{DiscountPercent: 75}

	within := now.Add(-23 * time.Hour)
	game := models.TrackedGame{IsActive: true, NotifyPercent: 50, LastNotified: &within}
	decision, reason := Evaluate(game, snap, now, 24*time.Hour)
	if decision != DecisionSkip || reason != SkipCooldown {
		t.Errorf("notified 23h ago: got (%v, %s), want skip cooldown", decision, reason)
	}

	elapsed := now.Add(-25 * time.Hour)
	game.LastNotified = &elapsed
	decision, _ = Evaluate(game, snap, now, 24*time.Hour)
	if decision != DecisionNotify {
		t.Errorf("notified 25h ago: expected notify, got skip")
	}

	game.LastNotified = nil
	decision, _ = Evaluate(game, snap, now, 24*time.Hour)
	if decision != DecisionNotify {
		t.Errorf("never notified: expected notify, got skip")
	}
}

func TestEvaluateInactive(t *testing.T) {
	now := time.Now().UTC()
	game := models.TrackedGame{IsActive: false, NotifyPercent: 10}
	decision, reason := Evaluate(game, models.PriceSnapshot{DiscountPercent: 90}, now, 24*time.Hour)
	if decision != DecisionSkip || reason != SkipInactive {
		t.Errorf("inactive tracker: got (%v, %s), want skip inactive", decision, reason)
	}
}

func TestGroupByApp(t *testing.T) {
	games := []models.TrackedGame{
		{ID: 1, UserID: 10, AppID: 730, GameName: ""},
		{ID: 2, UserID: 11, AppID: 440, GameName: "Team Fortress 2"},
		{ID: 3, UserID: 12, AppID: 730, GameName: "Counter-Strike 2"},
		{ID: 4, UserID: 13, AppID: 440, GameName: "TF2"},
	}

	groups := groupByApp(games)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].AppID != 730 || len(groups[0].Trackers) != 2 {
		t.Errorf("group 0: got app %d with %d trackers", groups[0].AppID, len(groups[0].Trackers))
	}
	// First non-empty name wins
	if groups[0].GameName != "Counter-Strike 2" {
		t.Errorf("expected backfilled name, got %q", groups[0].GameName)
	}
	if groups[1].GameName != "Team Fortress 2" {
		t.Errorf("expected first name kept, got %q", groups[1].GameName)
	}
}
