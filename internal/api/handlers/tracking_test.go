package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/steamwatch-project/backend/internal/config"
)

// newTrackingApp mounts the Track handler, optionally behind a stub that
// injects the authenticated bot subject the way the auth middleware does.
func newTrackingApp(withCaller bool) *fiber.App {
	handler := NewTrackingHandler(nil, nil, &config.Config{})

	app := fiber.New()
	if withCaller {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals("bot_subject", "shard-1")
			return c.Next()
		})
	}
	app.Post("/api/v1/tracking", handler.Track)
	return app
}

func TestTrackRejectsMissingCaller(t *testing.T) {
	app := newTrackingApp(false)

	req := httptest.NewRequest("POST", "/api/v1/tracking", strings.NewReader(`{"user_id":1,"guild_id":2,"app_id":730}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("expected 401 without a caller identity, got %d", resp.StatusCode)
	}
}

func TestTrackValidatesPastAuth(t *testing.T) {
	app := newTrackingApp(true)

	// Caller present, body missing user_id/guild_id: must get past the auth
	// check and fail validation instead.
	req := httptest.NewRequest("POST", "/api/v1/tracking", strings.NewReader(`{"app_id":730}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400 for missing identifiers, got %d", resp.StatusCode)
	}
}
