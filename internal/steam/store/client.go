/**
 * @description
 * HTTP client for the Steam Store and Steam Web APIs.
 * Fetches price overviews, searches apps by name, and reads current player counts.
 *
 * @dependencies
 * - net/http
 * - encoding/json
 * - github.com/jpillora/backoff: retry delays on transient failures
 * - backend/internal/config
 *
 * @notes
 * - A missing or delisted app is a permanent condition (ErrAppNotFound), not retried.
 * - Server errors and timeouts are retried with exponential backoff, then surfaced
 *   as transient so the caller can try again next cycle.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jpillora/backoff"
	"github.com/steamwatch-project/backend/internal/config"
)

const (
	DefaultTimeout = 15 * time.Second

	maxAttempts = 3
)

// ErrAppNotFound indicates the Store has no data for the app (delisted or invalid id).
var ErrAppNotFound = errors.New("steam: app not found")

// ErrNoPriceData indicates the app exists but exposes no price overview (e.g. unreleased).
var ErrNoPriceData = errors.New("steam: no price data available")

type Client struct {
	StoreURL     string
	PlayerAPIURL string
	APIKey       string
	HTTPClient   *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		StoreURL:     cfg.Steam.StoreURL,
		PlayerAPIURL: cfg.Steam.PlayerAPIURL,
		APIKey:       cfg.Steam.APIKey,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// GetPriceInfo fetches the price overview for an app in the given region.
func (c *Client) GetPriceInfo(ctx context.Context, appID int64, region string) (*PriceInfo, error) {
	u, err := url.Parse(fmt.Sprintf("%s/api/appdetails", c.StoreURL))
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("appids", strconv.FormatInt(appID, 10))
	q.Set("cc", region)
	q.Set("filters", "price_overview")
	u.RawQuery = q.Encode()

	var details appDetailsResponse
	if err := c.getJSON(ctx, u.String(), &details); err != nil {
		return nil, err
	}

	entry, ok := details[strconv.FormatInt(appID, 10)]
	if !ok || !entry.Success {
		return nil, ErrAppNotFound
	}

	info := &PriceInfo{
		AppID:  appID,
		Name:   entry.Data.Name,
		Region: region,
	}

	if entry.Data.IsFree {
		info.IsFree = true
		return info, nil
	}

	if entry.Data.PriceOverview == nil {
		return nil, ErrNoPriceData
	}

	po := entry.Data.PriceOverview
	info.Currency = po.Currency
	info.PriceCurrent = po.Final
	info.PriceOriginal = po.Initial
	info.DiscountPercent = po.DiscountPercent

	return info, nil
}

// SearchApp resolves a game name to its best-matching Store entry.
// Returns nil when nothing matches.
func (c *Client) SearchApp(ctx context.Context, term string) (*SearchItem, error) {
	u, err := url.Parse(fmt.Sprintf("%s/api/storesearch/", c.StoreURL))
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("term", term)
	q.Set("l", "english")
	q.Set("cc", "US")
	u.RawQuery = q.Encode()

	var result searchResponse
	if err := c.getJSON(ctx, u.String(), &result); err != nil {
		return nil, err
	}

	if len(result.Items) == 0 {
		return nil, nil
	}
	return &result.Items[0], nil
}

// GetCurrentPlayers fetches the current player count for an app.
func (c *Client) GetCurrentPlayers(ctx context.Context, appID int64) (int64, error) {
	u, err := url.Parse(fmt.Sprintf("%s/ISteamUserStats/GetNumberOfCurrentPlayers/v1/", c.PlayerAPIURL))
	if err != nil {
		return 0, err
	}

	q := u.Query()
	q.Set("appid", strconv.FormatInt(appID, 10))
	if c.APIKey != "" {
		q.Set("key", c.APIKey)
	}
	u.RawQuery = q.Encode()

	var result playerCountResponse
	if err := c.getJSON(ctx, u.String(), &result); err != nil {
		return 0, err
	}

	if result.Response.Result != 1 {
		return 0, ErrAppNotFound
	}
	return result.Response.PlayerCount, nil
}

// getJSON performs a GET with retries on 5xx/429 and network failures.
// 4xx responses other than 429 are surfaced immediately.
func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	b := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    10 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(b.Duration()):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusOK {
			err = json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("steam api: decoding response: %w", err)
			}
			return nil
		}

		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("steam api error: status %d", resp.StatusCode)
			continue
		}

		return fmt.Errorf("steam api error: status %d", resp.StatusCode)
	}

	return fmt.Errorf("steam api: giving up after %d attempts: %w", maxAttempts, lastErr)
}
