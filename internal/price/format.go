package price

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	DefaultTopLimit = 10
	MaxTopLimit     = 100
	MaxSearchHits   = 5
)

var printer = message.NewPrinter(language.English)

// usd renders a dollar amount with thousands separators and two decimals.
func usd(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

// usdWhole renders a dollar amount with thousands separators and no decimals.
func usdWhole(v float64) string {
	return printer.Sprintf("$%.0f", v)
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// FormatCoin renders a validated CoinDetail as a text block.
func FormatCoin(d *CoinDetail) string {
	m := d.MarketData
	var b strings.Builder
	fmt.Fprintf(&b, "💰 %s (%s)\n", *d.Name, strings.ToUpper(*d.Symbol))
	fmt.Fprintf(&b, "Price: %s\n", usd(*m.CurrentPrice["usd"]))
	fmt.Fprintf(&b, "Market Cap: %s\n", usdWhole(*m.MarketCap["usd"]))
	fmt.Fprintf(&b, "24h Volume: %s\n", usdWhole(*m.TotalVolume["usd"]))
	fmt.Fprintf(&b, "24h Change: %s\n", percent(*m.PriceChangePercentage24h))
	fmt.Fprintf(&b, "Rank: #%d", *d.MarketCapRank)
	return b.String()
}

// FormatMarkets renders the top listing, one line per coin. Coins must have
// passed validation.
func FormatMarkets(coins []MarketCoin) string {
	var b strings.Builder
	b.WriteString("📊 Top Cryptocurrencies by Market Cap:\n\n")
	for _, coin := range coins {
		price := valueOr(coin.CurrentPrice)
		change := valueOr(coin.PriceChangePercentage24h)
		indicator := "🟢"
		if change < 0 {
			indicator = "🔴"
		}
		rank := "?"
		if coin.MarketCapRank != nil {
			rank = fmt.Sprint(*coin.MarketCapRank)
		}
		fmt.Fprintf(&b, "#%s %s (%s): %s %s %s\n",
			rank, *coin.Name, strings.ToUpper(*coin.Symbol), usd(price), indicator, percent(change))
	}
	return b.String()
}

// FormatSearch renders up to MaxSearchHits validated matches for query.
func FormatSearch(query string, coins []SearchCoin) string {
	if len(coins) == 0 {
		return fmt.Sprintf("No cryptocurrencies found for '%s'", query)
	}
	if len(coins) > MaxSearchHits {
		coins = coins[:MaxSearchHits]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 Search results for '%s':\n\n", query)
	for _, coin := range coins {
		fmt.Fprintf(&b, "• %s (%s) - ID: %s\n", *coin.Name, strings.ToUpper(*coin.Symbol), *coin.ID)
	}
	return b.String()
}

// ClampLimit bounds a listing size to [1, MaxTopLimit].
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxTopLimit {
		return MaxTopLimit
	}
	return limit
}

func valueOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
