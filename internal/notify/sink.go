/**
 * @description
 * Notification sink boundary.
 * The Discord-side rendering and delivery live behind this interface; the core
 * only decides WHAT to send. WebhookSink posts to the bot gateway, LogSink is
 * the fallback when no webhook is configured.
 *
 * @dependencies
 * - net/http
 * - encoding/json
 */

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies outgoing notifications
type Kind string

const (
	KindDiscount Kind = "discount_alert"
	KindFreebie  Kind = "freebie"
)

// Notification is one message to deliver to a user or channel.
type Notification struct {
	Kind            Kind   `json:"kind"`
	UserID          int64  `json:"user_id,omitempty"`
	GuildID         int64  `json:"guild_id,omitempty"`
	AppID           int64  `json:"app_id"`
	GameName        string `json:"game_name"`
	DiscountPercent int    `json:"discount_percent,omitempty"`
	PriceCurrent    int64  `json:"price_current,omitempty"`
	PriceOriginal   int64  `json:"price_original,omitempty"`
	Currency        string `json:"currency,omitempty"`
	Message         string `json:"message"`
	URL             string `json:"url,omitempty"`
}

// StoreAppURL returns the Steam store page for an app.
func StoreAppURL(appID int64) string {
	return fmt.Sprintf("https://store.steampowered.com/app/%d", appID)
}

// Sink delivers notifications to the outside world.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// WebhookSink posts notifications as JSON to the bot gateway webhook.
type WebhookSink struct {
	URL        string
	HTTPClient *http.Client
}

// NewWebhookSink creates a WebhookSink for the given URL.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		URL: url,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Deliver posts the notification; any non-2xx response is an error so the
// caller can retry on a later cycle.
func (s *WebhookSink) Deliver(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook delivery failed: status %d", resp.StatusCode)
	}
	return nil
}
