package domain

import (
	"math"

	"github.com/dustin/go-humanize"
)

// FormatUSD renders v as a grouped whole-dollar amount, e.g. "$1,234".
func FormatUSD(v float64) string {
	if v < 0 {
		return "-$" + humanize.FormatFloat("#,###.", -v)
	}
	return "$" + humanize.FormatFloat("#,###.", v)
}

// FormatETH renders v grouped with exactly two decimals, e.g. "5.00".
func FormatETH(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

// DisplayMarketCap returns the formatted market cap, or false when it is
// missing or not positive.
func DisplayMarketCap(a Agent) (string, bool) {
	v, ok := positive(a.MarketCap)
	if !ok {
		return "", false
	}
	return FormatUSD(v), true
}

// DisplayVolume returns the formatted ETH volume, or false when it is
// missing or not positive.
func DisplayVolume(a Agent) (string, bool) {
	v, ok := positive(a.CumulativeETHVolume)
	if !ok {
		return "", false
	}
	return FormatETH(v), true
}

// DisplayPrice returns the price as received. Only a missing or
// unparseable price is suppressed; zero is shown.
func DisplayPrice(a Agent) (string, bool) {
	v, ok := a.Price.Float()
	if !ok || math.IsNaN(v) {
		return "", false
	}
	return a.Price.String(), true
}

func positive(n NumericString) (float64, bool) {
	v, ok := n.Float()
	if !ok || math.IsNaN(v) || v <= 0 {
		return 0, false
	}
	return v, true
}
