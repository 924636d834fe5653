package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/steamwatch-project/backend/internal/config"
	"github.com/steamwatch-project/backend/internal/steam/store"
)

// Portal 2. Rarely delisted, frequently discounted, good canary.
const testAppID = 620

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Println("=== Steam Store Check ===")
	fmt.Printf("Store URL: %s\n", cfg.Steam.StoreURL)
	fmt.Printf("Player API URL: %s\n", cfg.Steam.PlayerAPIURL)
	fmt.Printf("API Key: %s\n", statusString(cfg.Steam.APIKey != ""))
	fmt.Printf("Region: %s\n", cfg.Steam.DefaultRegion)
	fmt.Println()

	client := store.NewClient(cfg)

	// Test 1: price fetch
	fmt.Printf("Test 1: Fetching price for app %d...\n", testAppID)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	info, err := client.GetPriceInfo(ctx, testAppID, cfg.Steam.DefaultRegion)
	if err != nil {
		log.Fatalf("❌ Price fetch failed: %v", err)
	}
	if info.IsFree {
		fmt.Printf("✅ Price fetch succeeded: %s is free to play\n", info.Name)
	} else {
		fmt.Printf("✅ Price fetch succeeded: %s at %d %s (%d%% off)\n",
			info.Name, info.PriceCurrent, info.Currency, info.DiscountPercent)
	}
	fmt.Println()

	// Test 2: store search
	fmt.Println("Test 2: Searching the store for \"portal\"...")
	ctx2, cancel2 := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel2()

	item, err := client.SearchApp(ctx2, "portal")
	if err != nil {
		log.Fatalf("❌ Search failed: %v", err)
	}
	if item == nil {
		log.Fatalf("❌ Search returned no results for a term that should match")
	}
	fmt.Printf("✅ Search succeeded: top hit is %q (app %d)\n", item.Name, item.ID)
	fmt.Println()

	// Test 3: player count (needs the Web API, not the storefront)
	fmt.Printf("Test 3: Fetching player count for app %d...\n", testAppID)
	ctx3, cancel3 := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel3()

	count, err := client.GetCurrentPlayers(ctx3, testAppID)
	if err != nil {
		fmt.Printf("⚠️  Player count failed: %v\n", err)
		fmt.Println("   The storefront endpoints still work; check STEAM_PLAYER_API_URL if this persists.")
	} else {
		fmt.Printf("✅ Player count succeeded: %d players online\n", count)
	}

	fmt.Println()
	fmt.Println("=== Summary ===")
	fmt.Println("✅ Steam Store endpoints are reachable and parsing correctly")
}

func statusString(set bool) string {
	if set {
		return "[SET]"
	}
	return "[NOT SET]"
}
