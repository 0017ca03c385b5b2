package risk

import (
	"math"

	"github.com/rustyeddy/tradesim/market"
)

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Exposure is the monetary risk of a planned position if its stop is hit.
type Exposure struct {
	Amount  float64 // account currency
	Percent float64 // of equity, 0-100
}

// Calculate converts a size and stop distance into risk. Amount and Percent
// are NaN when units or stopPips is not positive.
func Calculate(units, stopPips float64, asset market.Asset, equity float64) Exposure {
	if !(units > 0) || !(stopPips > 0) {
		return Exposure{Amount: math.NaN(), Percent: math.NaN()}
	}
	amount := stopPips * asset.PipSize * units
	return Exposure{Amount: amount, Percent: RiskPct(amount, equity)}
}

// RiskPct expresses amount as a percentage of equity.
func RiskPct(amount, equity float64) float64 {
	if equity <= 0 {
		return math.Inf(1)
	}
	return amount / equity * 100
}

func RR(entry, stop, takeProfit float64) float64 {
	risk := abs(entry - stop)
	reward := abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}
