package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/tradesim/market"
)

// ATR calculates the Average True Range for the given period and returns the
// smoothed value for the last bar only. It needs period true ranges, so the
// window must hold at least period+1 bars.
func ATR(bars []market.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period+1 {
		return 0, fmt.Errorf("atr(%d): need %d bars, got %d: %w", period, period+1, len(bars), ErrInsufficientData)
	}

	// seed with the mean of the first period ranges, then Wilder-smooth the rest
	var atr float64
	for i := 1; i < len(bars); i++ {
		tr := TrueRange(bars[i], bars[i-1])
		switch {
		case i < period:
			atr += tr
		case i == period:
			atr = (atr + tr) / float64(period)
		default:
			atr += (tr - atr) / float64(period)
		}
	}

	return atr, nil
}

// TrueRange is the largest of the bar's own range and its distance from the
// previous close.
func TrueRange(cur, prev market.Bar) float64 {
	return math.Max(cur.High-cur.Low, math.Max(math.Abs(cur.High-prev.Close), math.Abs(cur.Low-prev.Close)))
}
