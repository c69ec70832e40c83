package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/edibez/cryptoagent/internal/price"
)

// Market is the text-producing market data source behind the crypto tools.
// *price.Client satisfies it.
type Market interface {
	GetPrice(ctx context.Context, coinID string) string
	GetTopCryptos(ctx context.Context, limit int) string
	SearchCrypto(ctx context.Context, query string) string
}

// NewCryptoRegistry registers the three market data tools.
func NewCryptoRegistry(m Market) *Registry {
	r := NewRegistry()
	r.Register(&PriceTool{market: m})
	r.Register(&TopTool{market: m})
	r.Register(&SearchTool{market: m})
	return r
}

// PriceTool looks up the market summary of one coin.
type PriceTool struct {
	market Market
}

func (t *PriceTool) Name() string { return "get_crypto_price" }
func (t *PriceTool) Description() string {
	return "Get the current price and market data for a cryptocurrency. " +
		"Takes the CoinGecko coin ID (e.g. 'bitcoin', 'ethereum', 'solana'), not the ticker symbol. " +
		"Returns current price, market cap, 24h volume, 24h change and market cap rank."
}

func (t *PriceTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"coin_id": {
				"type": "string",
				"description": "The cryptocurrency ID (e.g., 'bitcoin', 'ethereum', 'solana')"
			}
		},
		"required": ["coin_id"]
	}`)
}

func (t *PriceTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		CoinID string `json:"coin_id"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return "", err
	}
	if strings.TrimSpace(params.CoinID) == "" {
		return "", errors.New("coin_id is required")
	}
	return t.market.GetPrice(ctx, params.CoinID), nil
}

// TopTool lists the largest coins by market cap.
type TopTool struct {
	market Market
}

func (t *TopTool) Name() string { return "get_top_cryptos" }
func (t *TopTool) Description() string {
	return "Get the top cryptocurrencies by market cap. " +
		"Returns a ranked list with price and 24h change."
}

func (t *TopTool) Parameters() json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"type": "object",
		"properties": {
			"limit": {
				"type": "integer",
				"description": "Number of cryptocurrencies to return (default %d, max %d)",
				"default": %d,
				"minimum": 1,
				"maximum": %d
			}
		}
	}`, price.DefaultTopLimit, price.MaxTopLimit, price.DefaultTopLimit, price.MaxTopLimit))
}

func (t *TopTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Limit *float64 `json:"limit"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return "", err
	}
	limit := price.DefaultTopLimit
	if params.Limit != nil {
		// Bound before converting; huge floats do not fit an int.
		switch l := *params.Limit; {
		case l > price.MaxTopLimit:
			limit = price.MaxTopLimit
		case l < 1:
			limit = 1
		default:
			limit = int(l)
		}
	}
	return t.market.GetTopCryptos(ctx, limit), nil
}

// SearchTool resolves names and symbols to coin IDs.
type SearchTool struct {
	market Market
}

func (t *SearchTool) Name() string { return "search_crypto" }
func (t *SearchTool) Description() string {
	return "Search for a cryptocurrency by name or symbol (e.g. 'btc', 'ethereum', 'doge'). " +
		"Returns up to five matches with the coin ID to pass to get_crypto_price."
}

func (t *SearchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {
				"type": "string",
				"description": "Search term (e.g., 'btc', 'ethereum', 'doge')"
			}
		},
		"required": ["query"]
	}`)
}

func (t *SearchTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Query string `json:"query"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return "", err
	}
	if strings.TrimSpace(params.Query) == "" {
		return "", errors.New("query is required")
	}
	return t.market.SearchCrypto(ctx, params.Query), nil
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
