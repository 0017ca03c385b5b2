package indicators

import (
	"fmt"

	"github.com/rustyeddy/tradesim/market"
)

// SMA calculates the Simple Moving Average of the closes of the last period
// bars.
func SMA(bars []market.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period {
		return 0, fmt.Errorf("sma(%d): need %d bars, got %d: %w", period, period, len(bars), ErrInsufficientData)
	}

	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		sum += bars[i].Close
	}
	return sum / float64(period), nil
}
