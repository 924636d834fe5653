package store

// appDetailsResponse mirrors the Store appdetails payload, keyed by app id
type appDetailsResponse map[string]appDetailsEntry

type appDetailsEntry struct {
	Success bool           `json:"success"`
	Data    appDetailsData `json:"data"`
}

type appDetailsData struct {
	Name          string         `json:"name"`
	IsFree        bool           `json:"is_free"`
	PriceOverview *priceOverview `json:"price_overview"`
}

type priceOverview struct {
	Currency        string `json:"currency"`
	Initial         int64  `json:"initial"`
	Final           int64  `json:"final"`
	DiscountPercent int    `json:"discount_percent"`
}

type searchResponse struct {
	Total int          `json:"total"`
	Items []SearchItem `json:"items"`
}

// SearchItem is one result from the Store search endpoint
type SearchItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type playerCountResponse struct {
	Response struct {
		PlayerCount int64 `json:"player_count"`
		Result      int   `json:"result"`
	} `json:"response"`
}

// PriceInfo is the normalized price result for one app in one region.
// Prices are in the currency's minor unit (cents).
type PriceInfo struct {
	AppID           int64  `json:"app_id"`
	Name            string `json:"name"`
	IsFree          bool   `json:"is_free"`
	PriceCurrent    int64  `json:"price_current"`
	PriceOriginal   int64  `json:"price_original"`
	DiscountPercent int    `json:"discount_percent"`
	Currency        string `json:"currency"`
	Region          string `json:"region"`
}
