package price

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/go-retryablehttp"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	RequestTimeout = 10 * time.Second
)

// Client for the CoinGecko market data API
type Client struct {
	baseURL    string
	apiKey     string
	retries    int
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithAPIKey sets the optional CoinGecko demo key
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithRetries sets how many times a failed upstream call is retried.
// The default is zero.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a new market data client
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: RequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = c.retries
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.HTTPClient.Timeout = c.timeout
	rc.Logger = nil
	// Hand non-2xx responses back so they surface as APIError.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.httpClient = rc.StandardClient()

	return c
}

// APIError is returned for non-2xx upstream responses
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return "coingecko returned " + e.Status
	}
	return fmt.Sprintf("coingecko returned %s: %s", e.Status, e.Body)
}

// CoinDetail from /coins/{id}. Pointer fields distinguish absent values.
type CoinDetail struct {
	ID            string      `json:"id"`
	Symbol        *string     `json:"symbol"`
	Name          *string     `json:"name"`
	MarketCapRank *int        `json:"market_cap_rank"`
	MarketData    *MarketData `json:"market_data"`
}

// MarketData nested in CoinDetail
type MarketData struct {
	CurrentPrice             map[string]*float64 `json:"current_price"`
	MarketCap                map[string]*float64 `json:"market_cap"`
	TotalVolume              map[string]*float64 `json:"total_volume"`
	PriceChangePercentage24h *float64            `json:"price_change_percentage_24h"`
}

// MarketCoin is one entry of /coins/markets
type MarketCoin struct {
	ID                       string   `json:"id"`
	Symbol                   *string  `json:"symbol"`
	Name                     *string  `json:"name"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCapRank            *int     `json:"market_cap_rank"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
}

// SearchCoin is one coin match of /search
type SearchCoin struct {
	ID            *string `json:"id"`
	Name          *string `json:"name"`
	Symbol        *string `json:"symbol"`
	MarketCapRank *int    `json:"market_cap_rank"`
}

// Coin fetches market detail for a coin identifier
func (c *Client) Coin(ctx context.Context, id string) (*CoinDetail, error) {
	params := url.Values{}
	params.Set("localization", "false")
	params.Set("tickers", "false")
	params.Set("community_data", "false")
	params.Set("developer_data", "false")

	var detail CoinDetail
	if err := c.get(ctx, "/coins/"+url.PathEscape(id), params, &detail); err != nil {
		return nil, err
	}
	if err := detail.validate(); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Markets fetches the first page of coins ordered by market cap
func (c *Client) Markets(ctx context.Context, perPage int) ([]MarketCoin, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", "1")
	params.Set("sparkline", "false")

	var coins []MarketCoin
	if err := c.get(ctx, "/coins/markets", params, &coins); err != nil {
		return nil, err
	}
	for i := range coins {
		if err := coins[i].validate(); err != nil {
			return nil, err
		}
	}
	return coins, nil
}

// Search runs a free-text coin search. Only the first MaxSearchHits matches
// are returned.
func (c *Client) Search(ctx context.Context, query string) ([]SearchCoin, error) {
	params := url.Values{}
	params.Set("query", query)

	var result struct {
		Coins []SearchCoin `json:"coins"`
	}
	if err := c.get(ctx, "/search", params, &result); err != nil {
		return nil, err
	}
	coins := result.Coins
	if len(coins) > MaxSearchHits {
		coins = coins[:MaxSearchHits]
	}
	for i := range coins {
		if err := coins[i].validate(); err != nil {
			return nil, err
		}
	}
	return coins, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       truncate(strings.TrimSpace(string(body)), 200),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (d *CoinDetail) validate() error {
	switch {
	case d.Name == nil:
		return missingField("name")
	case d.Symbol == nil:
		return missingField("symbol")
	case d.MarketCapRank == nil:
		return missingField("market_cap_rank")
	case d.MarketData == nil:
		return missingField("market_data")
	}

	m := d.MarketData
	if v := m.CurrentPrice["usd"]; v == nil {
		return missingField("market_data.current_price.usd")
	}
	if v := m.MarketCap["usd"]; v == nil {
		return missingField("market_data.market_cap.usd")
	}
	if v := m.TotalVolume["usd"]; v == nil {
		return missingField("market_data.total_volume.usd")
	}
	if m.PriceChangePercentage24h == nil {
		return missingField("market_data.price_change_percentage_24h")
	}
	return nil
}

// Price and change may be null in a listing; they render as zero.
func (m *MarketCoin) validate() error {
	switch {
	case m.Name == nil:
		return missingField("name")
	case m.Symbol == nil:
		return missingField("symbol")
	}
	return nil
}

func (s *SearchCoin) validate() error {
	switch {
	case s.ID == nil:
		return missingField("id")
	case s.Name == nil:
		return missingField("name")
	case s.Symbol == nil:
		return missingField("symbol")
	}
	return nil
}

func missingField(name string) error {
	return fmt.Errorf("missing field %q in response", name)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}
