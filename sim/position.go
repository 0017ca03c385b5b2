package sim

import (
	"github.com/rustyeddy/tradesim/market"
)

// Position is an open (possibly partially closed) trade owned by a Ledger.
type Position struct {
	ID         int64       `json:"id"`
	Asset      string      `json:"asset"`
	Side       market.Side `json:"side"`
	Units      float64     `json:"units"`
	EntryPrice float64     `json:"entry_price"`
	StopLoss   float64     `json:"stop_loss"`
	TakeProfit float64     `json:"take_profit"`
	EntryTime  int64       `json:"entry_time"`
	LivePnL    float64     `json:"live_pnl"`
	RiskAmount float64     `json:"risk_amount"`
}

// Trigger is the protective level a bar touched.
type Trigger int

const (
	TriggerNone Trigger = iota
	TriggerStopLoss
	TriggerTakeProfit
)

func (t Trigger) String() string {
	switch t {
	case TriggerStopLoss:
		return "stop-loss"
	case TriggerTakeProfit:
		return "take-profit"
	default:
		return "none"
	}
}

// CheckTrigger reports whether a bar with the given extremes hits the
// position's stop or target. The stop wins when both are touched.
func CheckTrigger(p Position, high, low float64) Trigger {
	if p.Side == market.Buy {
		if low <= p.StopLoss {
			return TriggerStopLoss
		}
		if high >= p.TakeProfit {
			return TriggerTakeProfit
		}
		return TriggerNone
	}

	if high >= p.StopLoss {
		return TriggerStopLoss
	}
	if low <= p.TakeProfit {
		return TriggerTakeProfit
	}
	return TriggerNone
}

// MarkToMarket values p at the bar close. Shorts are valued at the close plus
// spread since that is what an exit would pay.
func MarkToMarket(p Position, close float64, asset market.Asset) float64 {
	exit := close
	if p.Side == market.Sell {
		exit = close + asset.Spread()
	}
	return PnL(p.Side, p.EntryPrice, exit, p.Units, asset.PipSize)
}
