package journal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rustyeddy/tradesim/market"
)

// CloseReason records why a position (or part of one) was closed.
type CloseReason string

const (
	ReasonManual     CloseReason = "manual"
	ReasonStopLoss   CloseReason = "sl"
	ReasonTakeProfit CloseReason = "tp"
)

func ParseCloseReason(s string) (CloseReason, error) {
	switch r := CloseReason(strings.ToLower(s)); r {
	case ReasonManual, ReasonStopLoss, ReasonTakeProfit:
		return r, nil
	}
	return "", fmt.Errorf("unknown close reason %q", s)
}

// TradeRecord is an immutable snapshot taken when units of a position are
// closed. A partial close produces a record with Partial set and the
// position's ID; the final close produces another.
type TradeRecord struct {
	ID         int64       `json:"id"`
	RunID      string      `json:"run_id,omitempty"`
	Asset      string      `json:"asset"`
	Side       market.Side `json:"side"`
	Units      float64     `json:"units"`
	EntryPrice float64     `json:"entry_price"`
	ExitPrice  float64     `json:"exit_price"`
	StopLoss   float64     `json:"stop_loss"`
	TakeProfit float64     `json:"take_profit"`
	PnL        float64     `json:"pnl"`
	EntryTime  int64       `json:"entry_time"`
	ExitTime   int64       `json:"exit_time"`
	Reason     CloseReason `json:"reason"`
	Partial    bool        `json:"partial"`
}

type EquityPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquityPoint) error
	Close() error
}

// Multi fans records out to several journals. Every journal sees every
// record; errors are joined.
type Multi []Journal

func (m Multi) RecordTrade(t TradeRecord) error {
	var errs []error
	for _, j := range m {
		errs = append(errs, j.RecordTrade(t))
	}
	return errors.Join(errs...)
}

func (m Multi) RecordEquity(e EquityPoint) error {
	var errs []error
	for _, j := range m {
		errs = append(errs, j.RecordEquity(e))
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, j := range m {
		errs = append(errs, j.Close())
	}
	return errors.Join(errs...)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error  { return nil }
func (Nop) RecordEquity(EquityPoint) error { return nil }
func (Nop) Close() error                   { return nil }
