// market/instruments.go
package market

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Asset is the immutable trading profile of a symbol.
type Asset struct {
	Symbol         string
	PipSize        float64 // smallest priced increment used for pip math
	PricePrecision int32
	UnitsPrecision int32
	MinUnits       float64
	SpreadPips     float64
	Volatility     float64 // price units per 1-minute bar
	BasePrice      float64 // seed price for a fresh series
	MinStopPips    float64
	MinTargetPips  float64
}

var assets = map[string]Asset{
	"EUR_USD": {
		Symbol:         "EUR_USD",
		PipSize:        0.0001,
		PricePrecision: 5,
		UnitsPrecision: 0,
		MinUnits:       1000,
		SpreadPips:     1.0,
		Volatility:     0.0002,
		BasePrice:      1.1000,
		MinStopPips:    5,
		MinTargetPips:  5,
	},
	"GBP_USD": {
		Symbol:         "GBP_USD",
		PipSize:        0.0001,
		PricePrecision: 5,
		UnitsPrecision: 0,
		MinUnits:       1000,
		SpreadPips:     1.5,
		Volatility:     0.00025,
		BasePrice:      1.2700,
		MinStopPips:    5,
		MinTargetPips:  5,
	},
	"USD_JPY": {
		Symbol:         "USD_JPY",
		PipSize:        0.01,
		PricePrecision: 3,
		UnitsPrecision: 0,
		MinUnits:       1000,
		SpreadPips:     1.2,
		Volatility:     0.025,
		BasePrice:      150.00,
		MinStopPips:    5,
		MinTargetPips:  5,
	},
	"XAU_USD": {
		Symbol:         "XAU_USD",
		PipSize:        0.01,
		PricePrecision: 2,
		UnitsPrecision: 0,
		MinUnits:       1,
		SpreadPips:     30,
		Volatility:     0.6,
		BasePrice:      2350.00,
		MinStopPips:    50,
		MinTargetPips:  50,
	},
	"BTC_USD": {
		Symbol:         "BTC_USD",
		PipSize:        1.0,
		PricePrecision: 2,
		UnitsPrecision: 4,
		MinUnits:       0.001,
		SpreadPips:     10,
		Volatility:     35,
		BasePrice:      60000,
		MinStopPips:    20,
		MinTargetPips:  20,
	},
}

// Lookup returns the profile registered for symbol.
func Lookup(symbol string) (Asset, error) {
	a, ok := assets[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return Asset{}, fmt.Errorf("unknown asset %q", symbol)
	}
	return a, nil
}

// Symbols lists the registered symbols in sorted order.
func Symbols() []string {
	out := make([]string, 0, len(assets))
	for s := range assets {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Spread is the spread expressed as a price distance.
func (a Asset) Spread() float64 {
	return a.SpreadPips * a.PipSize
}

func (a Asset) PipsToPrice(pips float64) float64 {
	return pips * a.PipSize
}

func (a Asset) PriceToPips(dist float64) float64 {
	return dist / a.PipSize
}

// RoundPrice rounds x to the asset's price precision.
func (a Asset) RoundPrice(x float64) float64 {
	if !finite(x) {
		return x
	}
	return decimal.NewFromFloat(x).Round(a.PricePrecision).InexactFloat64()
}

// RoundUnits truncates x to the asset's units precision so a rounded size
// never exceeds what was asked for.
func (a Asset) RoundUnits(x float64) float64 {
	if !finite(x) {
		return x
	}
	return decimal.NewFromFloat(x).Truncate(a.UnitsPrecision).InexactFloat64()
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
