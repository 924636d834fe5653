package store

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(storeURL, playerURL string) *Client {
	return &Client{
		StoreURL:     storeURL,
		PlayerAPIURL: playerURL,
		HTTPClient:   &http.Client{Timeout: 5 * time.Second},
	}
}

func TestGetPriceInfoDiscounted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/appdetails" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("appids"); got != "730" {
			t.Errorf("unexpected appids param: %s", got)
		}
		if got := r.URL.Query().Get("cc"); got != "us" {
			t.Errorf("unexpected cc param: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"730":{"success":true,"data":{"name":"Counter-Strike 2","is_free":false,` +
			`"price_overview":{"currency":"USD","initial":1499,"final":749,"discount_percent":50}}}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	info, err := c.GetPriceInfo(context.Background(), 730, "us")
	if err != nil {
		t.Fatalf("GetPriceInfo failed: %v", err)
	}

	if info.Name != "Counter-Strike 2" {
		t.Errorf("unexpected name: %s", info.Name)
	}
	if info.PriceCurrent != 749 || info.PriceOriginal != 1499 {
		t.Errorf("unexpected prices: %d / %d", info.PriceCurrent, info.PriceOriginal)
	}
	if info.DiscountPercent != 50 {
		t.Errorf("unexpected discount: %d", info.DiscountPercent)
	}
	if info.IsFree {
		t.Error("expected paid game")
	}
}

func TestGetPriceInfoFreeGame(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"570":{"success":true,"data":{"name":"Dota 2","is_free":true}}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	info, err := c.GetPriceInfo(context.Background(), 570, "us")
	if err != nil {
		t.Fatalf("GetPriceInfo failed: %v", err)
	}
	if !info.IsFree {
		t.Error("expected free game")
	}
	if info.PriceCurrent != 0 || info.DiscountPercent != 0 {
		t.Errorf("free game should have zero price fields, got %d / %d", info.PriceCurrent, info.DiscountPercent)
	}
}

func TestGetPriceInfoAppNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"999999":{"success":false}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	_, err := c.GetPriceInfo(context.Background(), 999999, "us")
	if !errors.Is(err, ErrAppNotFound) {
		t.Fatalf("expected ErrAppNotFound, got %v", err)
	}
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"730":{"success":true,"data":{"name":"CS2","is_free":true}}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	info, err := c.GetPriceInfo(context.Background(), 730, "us")
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if info.Name != "CS2" {
		t.Errorf("unexpected name: %s", info.Name)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestSearchApp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("term"); got != "portal" {
			t.Errorf("unexpected term: %s", got)
		}
		w.Write([]byte(`{"total":2,"items":[{"id":400,"name":"Portal"},{"id":620,"name":"Portal 2"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	item, err := c.SearchApp(context.Background(), "portal")
	if err != nil {
		t.Fatalf("SearchApp failed: %v", err)
	}
	if item == nil || item.ID != 400 {
		t.Fatalf("expected first result Portal (400), got %+v", item)
	}
}

func TestGetCurrentPlayers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":{"player_count":812345,"result":1}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	count, err := c.GetCurrentPlayers(context.Background(), 730)
	if err != nil {
		t.Fatalf("GetCurrentPlayers failed: %v", err)
	}
	if count != 812345 {
		t.Errorf("unexpected count: %d", count)
	}
}
