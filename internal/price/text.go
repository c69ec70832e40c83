package price

import (
	"context"
	"fmt"
	"strings"
)

// The text lookups below back the agent tools. They never return an error:
// failures become a single line the model can read and react to.

// GetPrice returns the market summary for a coin identifier.
func (c *Client) GetPrice(ctx context.Context, coinID string) string {
	detail, err := c.Coin(ctx, strings.ToLower(strings.TrimSpace(coinID)))
	if err != nil {
		return fmt.Sprintf("Error fetching %s: %v", coinID, err)
	}
	return FormatCoin(detail)
}

// GetTopCryptos returns the top coins by market cap, limit clamped to [1, 100].
func (c *Client) GetTopCryptos(ctx context.Context, limit int) string {
	coins, err := c.Markets(ctx, ClampLimit(limit))
	if err != nil {
		return fmt.Sprintf("Error fetching top cryptos (limit %d): %v", limit, err)
	}
	return FormatMarkets(coins)
}

// SearchCrypto returns up to five coins matching query with their identifiers.
func (c *Client) SearchCrypto(ctx context.Context, query string) string {
	coins, err := c.Search(ctx, query)
	if err != nil {
		return fmt.Sprintf("Error searching '%s': %v", query, err)
	}
	return FormatSearch(query, coins)
}
