package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/steamwatch-project/backend/internal/config"
	"github.com/steamwatch-project/backend/internal/notify"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Println("=== Notification Webhook Check ===")
	fmt.Printf("Webhook URL: %s\n", statusString(cfg.Notify.WebhookURL != ""))
	fmt.Println()

	if cfg.Notify.WebhookURL == "" {
		log.Fatalf("❌ NOTIFY_WEBHOOK_URL is not set. The worker would fall back to log-only delivery.")
	}

	sink := notify.NewWebhookSink(cfg.Notify.WebhookURL)

	fmt.Println("Test: Posting a test notification...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	n := notify.Notification{
		Kind:     notify.KindDiscount,
		AppID:    620,
		GameName: "Portal 2",
		Message:  "Webhook connectivity test, please ignore",
		URL:      notify.StoreAppURL(620),
	}
	if err := sink.Deliver(ctx, n); err != nil {
		fmt.Printf("❌ Delivery failed: %v\n", err)
		fmt.Println("\nThis indicates:")
		fmt.Println("  - The gateway is down or unreachable")
		fmt.Println("  - NOTIFY_WEBHOOK_URL points at the wrong endpoint")
		fmt.Println("  - The gateway rejected the payload")
		log.Fatalf("Webhook check failed")
	}

	fmt.Println("✅ Delivery succeeded!")
	fmt.Println()
	fmt.Println("=== Summary ===")
	fmt.Println("✅ The bot gateway accepted the test notification")
	fmt.Println("   A test message may now be visible in the gateway's debug channel.")
}

func statusString(set bool) string {
	if set {
		return "[SET]"
	}
	return "[NOT SET]"
}
