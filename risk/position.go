package risk

import (
	"math"

	"github.com/rustyeddy/tradesim/market"
)

// SizeForRisk returns the largest size whose stop-out loses riskPct percent
// of equity, truncated to the asset's units precision. It returns 0 when no
// size is possible.
func SizeForRisk(equity, riskPct, stopPips float64, asset market.Asset) float64 {
	if equity <= 0 || riskPct <= 0 || stopPips <= 0 || asset.PipSize <= 0 {
		return 0
	}
	riskAmt := equity * riskPct / 100
	units := riskAmt / (stopPips * asset.PipSize)
	if math.IsInf(units, 0) || math.IsNaN(units) {
		return 0
	}
	return asset.RoundUnits(units)
}
