package sim

import "github.com/rustyeddy/tradesim/market"

// PnL is the profit of units moved from entry to exit, counted in pips and
// converted back at one pip per unit.
func PnL(side market.Side, entry, exit, units, pip float64) float64 {
	diff := exit - entry
	if side == market.Sell {
		diff = entry - exit
	}
	return diff / pip * (units * pip)
}
