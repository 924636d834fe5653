package services

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/steamwatch-project/backend/internal/steam/store"
)

// fakeSteam counts calls so tests can assert cache hits vs misses.
type fakeSteam struct {
	priceCalls  int
	playerCalls int
	info        *store.PriceInfo
	players     int64
	err         error
}

func (f *fakeSteam) GetPriceInfo(_ context.Context, appID int64, region string) (*store.PriceInfo, error) {
	f.priceCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.info, nil
}

func (f *fakeSteam) GetCurrentPlayers(_ context.Context, appID int64) (int64, error) {
	f.playerCalls++
	if f.err != nil {
		return 0, f.err
	}
	return f.players, nil
}

func newTestPriceService(t *testing.T, steam *fakeSteam) (*PriceService, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewPriceService(rdb, steam), mr
}

func TestCurrentPriceCachesResult(t *testing.T) {
	steam := &fakeSteam{info: &store.PriceInfo{
		AppID:           730,
		Name:            "Counter-Strike 2",
		PriceCurrent:    599,
		PriceOriginal:   1499,
		DiscountPercent: 60,
		Currency:        "USD",
		Region:          "us",
	}}
	svc, _ := newTestPriceService(t, steam)
	ctx := context.Background()

	first, err := svc.CurrentPrice(ctx, 730, "us")
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if first.DiscountPercent != 60 {
		t.Errorf("unexpected discount: %d", first.DiscountPercent)
	}

	second, err := svc.CurrentPrice(ctx, 730, "us")
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if second.PriceCurrent != 599 {
		t.Errorf("unexpected cached price: %d", second.PriceCurrent)
	}
	if steam.priceCalls != 1 {
		t.Errorf("expected 1 upstream call, got %d", steam.priceCalls)
	}
}

func TestCurrentPriceRegionsCacheSeparately(t *testing.T) {
	steam := &fakeSteam{info: &store.PriceInfo{AppID: 730, PriceCurrent: 599}}
	svc, _ := newTestPriceService(t, steam)
	ctx := context.Background()

	if _, err := svc.CurrentPrice(ctx, 730, "us"); err != nil {
		t.Fatalf("us fetch failed: %v", err)
	}
	if _, err := svc.CurrentPrice(ctx, 730, "de"); err != nil {
		t.Fatalf("de fetch failed: %v", err)
	}
	if steam.priceCalls != 2 {
		t.Errorf("expected one upstream call per region, got %d", steam.priceCalls)
	}
}

func TestInvalidatePriceForcesRefetch(t *testing.T) {
	steam := &fakeSteam{info: &store.PriceInfo{AppID: 730, PriceCurrent: 599}}
	svc, _ := newTestPriceService(t, steam)
	ctx := context.Background()

	if _, err := svc.CurrentPrice(ctx, 730, "us"); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	svc.InvalidatePrice(ctx, 730, "us")

	steam.info = &store.PriceInfo{AppID: 730, PriceCurrent: 299, DiscountPercent: 80}
	info, err := svc.CurrentPrice(ctx, 730, "us")
	if err != nil {
		t.Fatalf("refetch failed: %v", err)
	}
	if info.PriceCurrent != 299 {
		t.Errorf("expected fresh price after invalidation, got %d", info.PriceCurrent)
	}
	if steam.priceCalls != 2 {
		t.Errorf("expected 2 upstream calls, got %d", steam.priceCalls)
	}
}

func TestCurrentPriceUpstreamError(t *testing.T) {
	steam := &fakeSteam{err: errors.New("steam is down")}
	svc, _ := newTestPriceService(t, steam)

	if _, err := svc.CurrentPrice(context.Background(), 730, "us"); err == nil {
		t.Fatal("expected error when upstream fails and cache is cold")
	}
}

func TestPlayerCountCached(t *testing.T) {
	steam := &fakeSteam{players: 1_234_567}
	svc, _ := newTestPriceService(t, steam)
	ctx := context.Background()

	count, err := svc.PlayerCount(ctx, 730)
	if err != nil {
		t.Fatalf("player count failed: %v", err)
	}
	if count != 1_234_567 {
		t.Errorf("unexpected count: %d", count)
	}

	if _, err := svc.PlayerCount(ctx, 730); err != nil {
		t.Fatalf("cached player count failed: %v", err)
	}
	if steam.playerCalls != 1 {
		t.Errorf("expected 1 upstream call, got %d", steam.playerCalls)
	}
}
