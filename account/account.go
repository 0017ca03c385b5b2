// Package account tracks capital, equity, drawdown, trade aggregates and the
// discipline score of a simulation session.
package account

import (
	"math"
	"sync"

	"github.com/rustyeddy/tradesim/journal"
)

const (
	DefaultMaxEquityPoints = 500
	DefaultDiscipline      = 10
	DefaultMaxDiscipline   = 10
)

type State struct {
	Capital            float64               `json:"capital"`
	Equity             float64               `json:"equity"`
	PeakEquity         float64               `json:"peak_equity"`
	MaxDrawdownPercent float64               `json:"max_drawdown_percent"`
	Discipline         int                   `json:"discipline"`
	TotalClosedPnL     float64               `json:"total_closed_pnl"`
	WinCount           int                   `json:"win_count"`
	LossCount          int                   `json:"loss_count"`
	TotalGain          float64               `json:"total_gain"`
	TotalLoss          float64               `json:"total_loss"`
	EquityHistory      []journal.EquityPoint `json:"equity_history"`
}

// WinRate is wins over decided trades, 0 when none are decided.
func (s State) WinRate() float64 {
	n := s.WinCount + s.LossCount
	if n == 0 {
		return 0
	}
	return float64(s.WinCount) / float64(n)
}

// ProfitFactor is gross gain over gross loss, +Inf when there are gains and
// no losses.
func (s State) ProfitFactor() float64 {
	if s.TotalLoss == 0 {
		if s.TotalGain > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return s.TotalGain / s.TotalLoss
}

// Drawdown is the current retracement from peak, 0-1.
func (s State) Drawdown() float64 {
	if s.PeakEquity <= 0 {
		return 0
	}
	return math.Max(0, (s.PeakEquity-s.Equity)/s.PeakEquity)
}

type Config struct {
	Capital         float64
	Discipline      int
	MaxDiscipline   int
	MaxEquityPoints int
}

func DefaultConfig() Config {
	return Config{
		Capital:         10000,
		Discipline:      DefaultDiscipline,
		MaxDiscipline:   DefaultMaxDiscipline,
		MaxEquityPoints: DefaultMaxEquityPoints,
	}
}

// Tracker owns the account state of one simulation.
type Tracker struct {
	mu    sync.Mutex
	cfg   Config
	state State
}

func NewTracker(cfg Config) *Tracker {
	if cfg.MaxDiscipline <= 0 {
		cfg.MaxDiscipline = DefaultMaxDiscipline
	}
	if cfg.Discipline > cfg.MaxDiscipline {
		cfg.Discipline = cfg.MaxDiscipline
	}
	if cfg.MaxEquityPoints <= 0 {
		cfg.MaxEquityPoints = DefaultMaxEquityPoints
	}
	t := &Tracker{cfg: cfg}
	t.reset()
	return t
}

func (t *Tracker) Config() Config { return t.cfg }

func (t *Tracker) reset() {
	t.state = State{
		Capital:    t.cfg.Capital,
		Equity:     t.cfg.Capital,
		PeakEquity: t.cfg.Capital,
		Discipline: t.cfg.Discipline,
	}
}

// Reset restores initial capital and discipline and clears the counters and
// equity curve.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reset()
}

// RecordEquityPoint appends (time, value) to the equity curve. A point at or
// before the last recorded time overwrites the last value instead.
func (t *Tracker) RecordEquityPoint(at int64, v float64) journal.EquityPoint {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := t.state.EquityHistory
	if n := len(h); n > 0 && at <= h[n-1].Time {
		h[n-1].Value = v
		return h[n-1]
	}
	h = append(h, journal.EquityPoint{Time: at, Value: v})
	if over := len(h) - t.cfg.MaxEquityPoints; over > 0 {
		h = append(h[:0:0], h[over:]...)
	}
	t.state.EquityHistory = h
	return h[len(h)-1]
}

// UpdateDrawdown sets equity and folds it into peak and max drawdown.
func (t *Tracker) UpdateDrawdown(equity float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.updateDrawdown(equity)
}

func (t *Tracker) updateDrawdown(equity float64) {
	s := &t.state
	s.Equity = equity
	s.PeakEquity = math.Max(s.PeakEquity, equity)
	if s.PeakEquity > 0 {
		dd := math.Max(0, (s.PeakEquity-equity)/s.PeakEquity)
		s.MaxDrawdownPercent = math.Max(s.MaxDrawdownPercent, dd*100)
	}
}

// SetEquity records equity = capital + open P&L.
func (t *Tracker) SetEquity(openPnL float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Equity = t.state.Capital + openPnL
	return t.state.Equity
}

// RecomputeAggregates resets the win/loss counters and folds them over
// trades. The equity curve and drawdown are left alone.
func (t *Tracker) RecomputeAggregates(trades []journal.TradeRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &t.state
	s.TotalClosedPnL, s.TotalGain, s.TotalLoss = 0, 0, 0
	s.WinCount, s.LossCount = 0, 0
	for _, tr := range trades {
		t.fold(tr.PnL)
	}
}

func (t *Tracker) fold(pnl float64) {
	s := &t.state
	s.TotalClosedPnL += pnl
	switch {
	case pnl > 0:
		s.WinCount++
		s.TotalGain += pnl
	case pnl < 0:
		s.LossCount++
		s.TotalLoss += -pnl
	}
}

// ApplyClose books a realized P&L and adjusts discipline: +1 on a target hit,
// -1 on a stop hit or any other non-positive close. It returns the new
// discipline.
func (t *Tracker) ApplyClose(pnl float64, reason journal.CloseReason) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Capital += pnl
	t.fold(pnl)

	d := t.state.Discipline
	switch {
	case reason == journal.ReasonTakeProfit:
		d++
	case reason == journal.ReasonStopLoss:
		d--
	case pnl <= 0:
		d--
	}
	t.state.Discipline = min(max(d, 0), t.cfg.MaxDiscipline)
	return t.state.Discipline
}

// Exhausted reports whether discipline has reached zero.
func (t *Tracker) Exhausted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Discipline <= 0
}

func (t *Tracker) Capital() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Capital
}

func (t *Tracker) Equity() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Equity
}

// Snapshot returns a copy of the state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.state
	s.EquityHistory = append([]journal.EquityPoint(nil), t.state.EquityHistory...)
	return s
}
