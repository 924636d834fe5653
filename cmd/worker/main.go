/**
 * @description
 * Worker Service Entry Point.
 * Responsible for background tasks:
 * 1. Polling Steam for price changes on tracked games.
 * 2. Evaluating and delivering discount notifications.
 * 3. Housekeeping: expiry sweeping and price history cleanup.
 *
 * All task loops are leader-gated: any number of worker instances may run, but
 * only the lease holder executes the cycles.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/services
 * - github.com/robfig/cron/v3
 *
 * @notes
 * - Shutdown is two-phase: the signal stops loops from starting new cycles,
 *   while in-flight cycles keep a live context until the grace period elapses.
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/steamwatch-project/backend/internal/config"
	"github.com/steamwatch-project/backend/internal/db"
	"github.com/steamwatch-project/backend/internal/logger"
	"github.com/steamwatch-project/backend/internal/notify"
	"github.com/steamwatch-project/backend/internal/services"
	"github.com/steamwatch-project/backend/internal/steam/store"
)

func main() {
	logger.Info("🔥 Starting SteamWatch Worker...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	// 2. Connect DBs
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Postgres connection failed: %v", err)
	}
	if err := db.Migrate(pgDB); err != nil {
		logger.Fatal("Schema migration failed: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Redis connection failed: %v", err)
	}

	// 3. Initialize Services
	var sink notify.Sink = notify.LogSink{}
	if cfg.Notify.WebhookURL != "" {
		sink = notify.NewWebhookSink(cfg.Notify.WebhookURL)
	}

	steamClient := store.NewClient(cfg)
	limiter := services.NewRateLimitService(pgDB)
	historyService := services.NewHistoryService(pgDB)
	trackingService := services.NewTrackingService(pgDB)
	freebieService := services.NewFreebieService(pgDB, sink)
	priceService := services.NewPriceService(redisClient, steamClient)
	leader := services.NewLeaderService(pgDB)
	poller := services.NewPollerService(pgDB, steamClient, historyService, trackingService, freebieService, limiter, cfg)
	notifier := services.NewNotifierService(pgDB, sink, limiter, cfg)
	sweeper := services.NewSweeperService(pgDB)

	// 4. Two-phase shutdown contexts: loopCtx stops loops from starting new
	// cycles; cycleCtx keeps in-flight work alive until the grace period ends.
	cycleCtx, cancelCycles := context.WithCancel(context.Background())
	defer cancelCycles()
	loopCtx, stopLoops := context.WithCancel(cycleCtx)
	defer stopLoops()

	var cycles sync.WaitGroup

	// 5. Leader Election Heartbeat
	// Runs on cycleCtx so the lease stays held while cycles drain.
	go leader.Run(cycleCtx, services.WorkerLockName, cfg.Worker.LeaseDuration, cfg.Worker.HeartbeatInterval)

	// 6. Poll Loop
	go runLeaderGated(loopCtx, cycleCtx, &cycles, leader.IsLeader, cfg.Worker.PollInterval, "poll", func(ctx context.Context) {
		now := time.Now().UTC()
		results, err := poller.PollDueGames(ctx, now, cfg.Worker.PollStaleness)
		if err != nil {
			logger.Error("Poll cycle failed: %v", err)
			return
		}
		for _, r := range results {
			if r.Err == nil && !r.Skipped {
				priceService.InvalidatePrice(ctx, r.AppID, cfg.Steam.DefaultRegion)
			}
		}
		if _, err := freebieService.AnnouncePending(ctx); err != nil {
			logger.Error("Freebie announcement failed: %v", err)
		}
	})

	// 7. Notify Loop
	go runLeaderGated(loopCtx, cycleCtx, &cycles, leader.IsLeader, cfg.Worker.NotifyInterval, "notify", func(ctx context.Context) {
		stats, err := notifier.RunCycle(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("Notify cycle failed: %v", err)
			return
		}
		if stats.Delivered > 0 || stats.Failed > 0 {
			logger.Info("Notify cycle: evaluated=%d delivered=%d rate_limited=%d failed=%d",
				stats.Evaluated, stats.Delivered, stats.RateLimited, stats.Failed)
		}
	})

	// 8. Sweep Loop
	go runLeaderGated(loopCtx, cycleCtx, &cycles, leader.IsLeader, cfg.Worker.SweepInterval, "sweep", func(ctx context.Context) {
		sweeper.Sweep(ctx, time.Now().UTC())
	})

	// 9. Daily History Cleanup
	c := cron.New()
	_, err = c.AddFunc(cfg.Worker.CleanupSpec, func() {
		if !leader.IsLeader() {
			return
		}
		deleted, err := historyService.CleanupOldHistory(cycleCtx, cfg.Worker.HistoryRetention)
		if err != nil {
			logger.Error("History cleanup failed: %v", err)
			return
		}
		logger.Info("History cleanup removed %d rows", deleted)
	})
	if err != nil {
		logger.Fatal("Invalid cleanup cron spec %q: %v", cfg.Worker.CleanupSpec, err)
	}
	c.Start()

	// 10. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	stopLoops()
	<-c.Stop().Done()

	// Let the current batch complete or time out before the hard cancel
	if !waitWithTimeout(&cycles, cfg.Worker.ShutdownGrace) {
		logger.Error("Shutdown grace of %s elapsed with cycles still in flight", cfg.Worker.ShutdownGrace)
	}
	cancelCycles()

	time.Sleep(1 * time.Second) // Give the lease release time to land
	logger.Info("Worker exited.")
}

// runLeaderGated runs fn on a ticker while this instance holds the lease.
// The first cycle fires one heartbeat after startup rather than immediately,
// giving the election a chance to settle. Cycles receive cycleCtx, which
// outlives loopCtx so a shutdown signal never aborts a batch mid-call.
func runLeaderGated(loopCtx, cycleCtx context.Context, cycles *sync.WaitGroup, isLeader func() bool, interval time.Duration, name string, fn func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-loopCtx.Done():
			return
		case <-ticker.C:
			if !isLeader() {
				continue
			}
			logger.Info("Running %s cycle...", name)
			cycles.Add(1)
			fn(cycleCtx)
			cycles.Done()
		}
	}
}

// waitWithTimeout waits for the group, giving up after d. Reports whether the
// group drained in time.
func waitWithTimeout(wg *sync.WaitGroup, d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(d):
		return false
	}
}
