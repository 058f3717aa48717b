package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	baseURL      = "https://api.coingecko.com/api/v3"
	proBaseURL   = "https://pro-api.coingecko.com/api/v3"
	fearGreedURL = "https://api.alternative.me/fng/"

	// Free-tier CoinGecko allows roughly 30 calls/minute.
	requestsPerMinute = 25

	maxErrorExcerpt = 300
)

// Client talks to the CoinGecko API (and the alternative.me fear & greed
// index). A non-empty API key routes requests to the pro endpoint.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	currency   string
	apiKey     string

	freeURL      string
	proURL       string
	sentimentURL string
}

// NewClient creates a market data client for the given display currency.
func NewClient(currency, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter:      rate.NewLimiter(rate.Every(time.Minute/requestsPerMinute), 5),
		currency:     currency,
		apiKey:       apiKey,
		freeURL:      baseURL,
		proURL:       proBaseURL,
		sentimentURL: fearGreedURL,
	}
}

// Coin is one market row as returned by /coins/markets. Optional fields
// are pointers so a missing value is distinguishable from zero.
type Coin struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Symbol            string   `json:"symbol"`
	CurrentPrice      float64  `json:"current_price"`
	MarketCap         float64  `json:"market_cap"`
	TotalVolume       float64  `json:"total_volume"`
	Change1h          *float64 `json:"price_change_percentage_1h_in_currency"`
	Change24h         *float64 `json:"price_change_percentage_24h_in_currency"`
	Change7d          *float64 `json:"price_change_percentage_7d_in_currency"`
	MarketCapRank     *uint    `json:"market_cap_rank"`
	High24h           *float64 `json:"high_24h"`
	Low24h            *float64 `json:"low_24h"`
	CirculatingSupply *float64 `json:"circulating_supply"`
	MaxSupply         *float64 `json:"max_supply"`
}

// SearchResult is one entry from /search, capped to 10 by the caller.
type SearchResult struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank *uint  `json:"market_cap_rank"`
}

// GlobalStats carries the best-effort market overview for the top bar.
type GlobalStats struct {
	TotalMarketCap float64
	BTCDominance   float64
	FearGreedIndex *uint
	FearGreedLabel string
}

func (c *Client) base() string {
	if c.apiKey != "" {
		return c.proURL
	}
	return c.freeURL
}

func (c *Client) applyKey(u string) string {
	if c.apiKey == "" {
		return u
	}
	sep := "?"
	for _, r := range u {
		if r == '?' {
			sep = "&"
			break
		}
	}
	return u + sep + "x_cg_pro_api_key=" + url.QueryEscape(c.apiKey)
}

// getJSON performs a rate-limited GET and returns the raw body. Non-2xx
// responses become errors carrying a truncated excerpt of the payload.
func (c *Client) getJSON(ctx context.Context, u string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("provider error %d: %s", resp.StatusCode, excerpt(body))
	}
	return body, nil
}

func excerpt(body []byte) string {
	if len(body) > maxErrorExcerpt {
		return string(body[:maxErrorExcerpt]) + "..."
	}
	return string(body)
}

// FetchMarkets returns the top coins ranked by market cap descending.
func (c *Client) FetchMarkets(ctx context.Context, limit int) ([]Coin, error) {
	u := fmt.Sprintf(
		"%s/coins/markets?vs_currency=%s&order=market_cap_desc&per_page=%d&page=1&sparkline=false&price_change_percentage=1h,24h,7d",
		c.base(), c.currency, limit,
	)

	body, err := c.getJSON(ctx, c.applyKey(u))
	if err != nil {
		return nil, err
	}

	var coins []Coin
	if err := json.Unmarshal(body, &coins); err != nil {
		return nil, fmt.Errorf("failed to parse market data: %v | response: %s", err, excerpt(body))
	}
	return coins, nil
}

// FetchPriceHistory returns an ascending-time price-only series for one
// coin. A truncated or empty series is valid.
func (c *Client) FetchPriceHistory(ctx context.Context, coinID string, days int) ([]float64, error) {
	u := fmt.Sprintf(
		"%s/coins/%s/market_chart?vs_currency=%s&days=%d",
		c.base(), url.PathEscape(coinID), c.currency, days,
	)

	body, err := c.getJSON(ctx, c.applyKey(u))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Prices [][]json.Number `json:"prices"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse price history: %v | response: %s", err, excerpt(body))
	}

	prices := make([]float64, 0, len(payload.Prices))
	for _, point := range payload.Prices {
		if len(point) < 2 {
			continue
		}
		v, err := point[1].Float64()
		if err != nil {
			v = 0
		}
		prices = append(prices, v)
	}
	return prices, nil
}

// SearchCoins returns at most 10 matches for a free-text query.
func (c *Client) SearchCoins(ctx context.Context, query string) ([]SearchResult, error) {
	u := fmt.Sprintf("%s/search?query=%s", c.base(), url.QueryEscape(query))

	body, err := c.getJSON(ctx, c.applyKey(u))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Coins []SearchResult `json:"coins"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse search results: %v | response: %s", err, excerpt(body))
	}

	if len(payload.Coins) > 10 {
		payload.Coins = payload.Coins[:10]
	}
	return payload.Coins, nil
}

// FetchCoinMarket returns the market row for a single coin, or nil if the
// provider does not know it.
func (c *Client) FetchCoinMarket(ctx context.Context, coinID string) (*Coin, error) {
	u := fmt.Sprintf(
		"%s/coins/markets?vs_currency=%s&ids=%s&sparkline=false&price_change_percentage=1h,24h,7d",
		c.base(), c.currency, url.QueryEscape(coinID),
	)

	body, err := c.getJSON(ctx, c.applyKey(u))
	if err != nil {
		return nil, err
	}

	var coins []Coin
	if err := json.Unmarshal(body, &coins); err != nil {
		return nil, fmt.Errorf("failed to parse coin data: %v | response: %s", err, excerpt(body))
	}
	if len(coins) == 0 {
		return nil, nil
	}
	return &coins[0], nil
}

// FetchGlobal returns total market cap and BTC dominance. Fear & greed is
// filled in separately; both are best-effort for callers.
func (c *Client) FetchGlobal(ctx context.Context) (GlobalStats, error) {
	body, err := c.getJSON(ctx, c.applyKey(c.base()+"/global"))
	if err != nil {
		return GlobalStats{}, err
	}

	var payload struct {
		Data struct {
			TotalMarketCap      map[string]float64 `json:"total_market_cap"`
			MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return GlobalStats{}, fmt.Errorf("failed to parse global stats: %v | response: %s", err, excerpt(body))
	}

	return GlobalStats{
		TotalMarketCap: payload.Data.TotalMarketCap[c.currency],
		BTCDominance:   payload.Data.MarketCapPercentage["btc"],
	}, nil
}

// FetchFearGreed returns the alternative.me sentiment index (0-100) and
// its label.
func (c *Client) FetchFearGreed(ctx context.Context) (uint, string, error) {
	body, err := c.getJSON(ctx, c.sentimentURL)
	if err != nil {
		return 0, "", err
	}

	var payload struct {
		Data []struct {
			Value          string `json:"value"`
			Classification string `json:"value_classification"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, "", fmt.Errorf("failed to parse fear & greed index: %v | response: %s", err, excerpt(body))
	}
	if len(payload.Data) == 0 {
		return 0, "", fmt.Errorf("fear & greed index returned no data")
	}

	value, err := strconv.ParseUint(payload.Data[0].Value, 10, 32)
	if err != nil {
		value = 0
	}
	label := payload.Data[0].Classification
	if label == "" {
		label = "Unknown"
	}
	return uint(value), label, nil
}
