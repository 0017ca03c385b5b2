package sim

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/tradesim/market"
)

// Method selects how OrderRequest.Stop and Target are interpreted.
type Method int

const (
	// MethodPips takes Stop and Target as distances in pips.
	MethodPips Method = iota + 1
	// MethodATR takes Stop and Target as multiples of the current ATR.
	MethodATR
)

func (m Method) String() string {
	switch m {
	case MethodPips:
		return "pips"
	case MethodATR:
		return "atr"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pips", "pip":
		return MethodPips, nil
	case "atr":
		return MethodATR, nil
	}
	return 0, fmt.Errorf("unknown risk method %q", s)
}

type OrderRequest struct {
	Side   market.Side
	Units  float64
	Method Method
	Stop   float64
	Target float64
}

// MarketState is what the ledger needs to know about the market. A nil Last
// means no bar has been produced yet.
type MarketState struct {
	Last   *market.Bar
	ATR    float64
	HasATR bool
}
