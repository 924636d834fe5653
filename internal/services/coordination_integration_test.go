package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/steamwatch-project/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// newTestDB connects to the Postgres instance named by TEST_DATABASE_URL and
// migrates the coordination tables. Tests that need real SQL semantics (upsert
// races, RETURNING) skip when it is unset.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres-backed test")
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to test postgres: %v", err)
	}

	err = db.AutoMigrate(
		&models.LeaderLease{},
		&models.RateLimitWindow{},
		&models.Freebie{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}
	return db
}

func TestTryAcquireSingleLeader(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	lockName := fmt.Sprintf("test_lock_%d", time.Now().UnixNano())

	const instances = 8
	leaders := make([]*LeaderService, instances)
	for i := range leaders {
		leaders[i] = NewLeaderService(db)
	}

	var wg sync.WaitGroup
	wins := make([]bool, instances)
	start := make(chan struct{})
	for i := range leaders {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			acquired, err := leaders[i].TryAcquire(ctx, lockName, 30*time.Second)
			if err != nil {
				t.Errorf("instance %d: TryAcquire failed: %v", i, err)
				return
			}
			wins[i] = acquired
		}(i)
	}
	close(start)
	wg.Wait()

	winner := -1
	for i, won := range wins {
		if !won {
			continue
		}
		if winner != -1 {
			t.Fatalf("instances %d and %d both acquired %s", winner, i, lockName)
		}
		winner = i
	}
	if winner == -1 {
		t.Fatal("no instance acquired the lease")
	}

	// A live lease is exclusive: losers cannot take it, the owner can renew
	// and re-acquire it.
	loser := (winner + 1) % instances
	if acquired, err := leaders[loser].TryAcquire(ctx, lockName, 30*time.Second); err != nil || acquired {
		t.Errorf("loser acquired a live lease (acquired=%v err=%v)", acquired, err)
	}
	if renewed, err := leaders[winner].Renew(ctx, lockName, 30*time.Second); err != nil || !renewed {
		t.Errorf("owner failed to renew its live lease (renewed=%v err=%v)", renewed, err)
	}

	leaders[winner].Release(ctx, lockName)
	if acquired, err := leaders[loser].TryAcquire(ctx, lockName, 30*time.Second); err != nil || !acquired {
		t.Errorf("released lease was not acquirable (acquired=%v err=%v)", acquired, err)
	}
	leaders[loser].Release(ctx, lockName)
}

func TestAllowDeniesBeyondLimit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	limiter := NewRateLimitService(db)
	key := fmt.Sprintf("test_limit_%d", time.Now().UnixNano())

	const limit = 3
	for i := 1; i <= limit; i++ {
		allowed, err := limiter.Allow(ctx, key, limit, time.Minute)
		if err != nil {
			t.Fatalf("Allow %d failed: %v", i, err)
		}
		if !allowed {
			t.Fatalf("request %d of %d denied within the limit", i, limit)
		}
	}

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, key, limit, time.Minute)
		if err != nil {
			t.Fatalf("Allow over limit failed: %v", err)
		}
		if allowed {
			t.Fatal("request beyond the limit was allowed within the window")
		}
	}
}

func TestAllowResetsAfterWindowExpiry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	limiter := NewRateLimitService(db)
	key := fmt.Sprintf("test_window_%d", time.Now().UnixNano())

	window := 100 * time.Millisecond
	if allowed, err := limiter.Allow(ctx, key, 1, window); err != nil || !allowed {
		t.Fatalf("first request denied (allowed=%v err=%v)", allowed, err)
	}
	if allowed, err := limiter.Allow(ctx, key, 1, window); err != nil || allowed {
		t.Fatalf("second request in window not denied (allowed=%v err=%v)", allowed, err)
	}

	time.Sleep(150 * time.Millisecond)

	if allowed, err := limiter.Allow(ctx, key, 1, window); err != nil || !allowed {
		t.Fatalf("request after window expiry denied (allowed=%v err=%v)", allowed, err)
	}
}

func TestSweepFreebieExpiryIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	sweeper := NewSweeperService(db)

	now := time.Now().UTC()
	ended := now.Add(-time.Hour)
	freebie := &models.Freebie{
		AppID:    int64(now.UnixNano() % 1_000_000_000),
		Title:    "Expired Giveaway",
		ItemType: models.FreebieTypeGame,
		StartsAt: now.Add(-48 * time.Hour),
		EndsAt:   &ended,
	}
	if err := db.Create(freebie).Error; err != nil {
		t.Fatalf("failed to seed freebie: %v", err)
	}
	t.Cleanup(func() {
		db.Where("id = ?", freebie.ID).Delete(&models.Freebie{})
	})

	first := sweeper.Sweep(ctx, now)
	if first.FreebiesExpired < 1 {
		t.Fatalf("first sweep expired %d freebies, want at least 1", first.FreebiesExpired)
	}

	second := sweeper.Sweep(ctx, now)
	if second.FreebiesExpired != 0 {
		t.Errorf("second sweep expired %d freebies, want 0 (not idempotent)", second.FreebiesExpired)
	}

	var got models.Freebie
	if err := db.First(&got, freebie.ID).Error; err != nil {
		t.Fatalf("failed to reload freebie: %v", err)
	}
	if !got.IsExpired {
		t.Error("freebie not marked expired after sweep")
	}
}
