package main

import (
	"context"
	"log"
	"time"

	"github.com/steamwatch-project/backend/internal/config"
	"github.com/steamwatch-project/backend/internal/db"
	"github.com/steamwatch-project/backend/internal/models"
	"github.com/steamwatch-project/backend/internal/notify"
	"github.com/steamwatch-project/backend/internal/services"
	"github.com/steamwatch-project/backend/internal/steam/store"
)

// One-shot forced poll of every active tracked game, bypassing the staleness
// window and the leader election. Useful after deployments and schema changes.
func main() {
	log.Println("🚀 Starting manual price poll...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	if err := db.Migrate(pgDB); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	steamClient := store.NewClient(cfg)
	limiter := services.NewRateLimitService(pgDB)
	historyService := services.NewHistoryService(pgDB)
	trackingService := services.NewTrackingService(pgDB)
	freebieService := services.NewFreebieService(pgDB, notify.LogSink{})
	poller := services.NewPollerService(pgDB, steamClient, historyService, trackingService, freebieService, limiter, cfg)

	ctx := context.Background()

	// Staleness 0 forces every active tracker to be due
	results, err := poller.PollDueGames(ctx, time.Now().UTC(), 0)
	if err != nil {
		log.Fatalf("poll failed: %v", err)
	}

	polled, skipped, failed := 0, 0, 0
	for _, r := range results {
		switch {
		case r.Skipped:
			skipped++
		case r.Err != nil:
			failed++
		default:
			polled++
		}
	}
	log.Printf("✅ Polled %d apps (%d skipped by rate limit, %d failed)", polled, skipped, failed)

	var snapCount int64
	if err := pgDB.Model(&models.PriceSnapshot{}).Count(&snapCount).Error; err == nil {
		log.Printf("✅ Price snapshots stored in Postgres: %d", snapCount)
	} else {
		log.Printf("⚠️ Failed to count snapshots: %v", err)
	}

	log.Println("✅ Manual price poll completed successfully.")
}
