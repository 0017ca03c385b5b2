package sim

import (
	"math"
	"sort"

	"github.com/rustyeddy/tradesim/account"
	"github.com/rustyeddy/tradesim/journal"
	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/risk"
	"github.com/sirupsen/logrus"
)

// Ledger owns the open positions and the closed-trade log of one asset.
// It is not safe for concurrent use; the Engine serialises access.
type Ledger struct {
	asset   market.Asset
	policy  risk.Policy
	tracker *account.Tracker
	journal journal.Journal
	runID   string
	log     *logrus.Entry

	positions map[int64]*Position
	nextID    int64
	history   []journal.TradeRecord
}

func NewLedger(asset market.Asset, policy risk.Policy, tracker *account.Tracker, j journal.Journal, runID string, log *logrus.Entry) *Ledger {
	if j == nil {
		j = journal.Nop{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Ledger{
		asset:     asset,
		policy:    policy,
		tracker:   tracker,
		journal:   j,
		runID:     runID,
		log:       log,
		positions: make(map[int64]*Position),
		nextID:    1,
	}
}

// LoadHistory installs a persisted closed-trade log, folds it into the
// tracker's aggregates and moves the ID counter past every loaded ID.
func (l *Ledger) LoadHistory(recs []journal.TradeRecord) {
	l.history = append([]journal.TradeRecord(nil), recs...)
	for _, r := range recs {
		if r.ID >= l.nextID {
			l.nextID = r.ID + 1
		}
	}
	l.tracker.RecomputeAggregates(l.history)
}

// History returns a copy of the closed-trade log.
func (l *Ledger) History() []journal.TradeRecord {
	return append([]journal.TradeRecord(nil), l.history...)
}

// NextID is the ID the next opened position will get.
func (l *Ledger) NextID() int64 { return l.nextID }

func (l *Ledger) Asset() market.Asset { return l.asset }

// Open validates req against the asset limits and risk policy and stores the
// new position. Rejections are *risk.Violation and leave the ledger unchanged.
func (l *Ledger) Open(req OrderRequest, mkt MarketState, equity float64) (Position, error) {
	a := l.asset

	if mkt.Last == nil {
		return Position{}, risk.Reject(risk.CodeMarketClosed, "no market data yet")
	}
	if req.Side != market.Buy && req.Side != market.Sell {
		return Position{}, risk.Reject(risk.CodeInvalidOrder, "invalid side %d", int(req.Side))
	}

	units := a.RoundUnits(req.Units)
	if math.IsNaN(req.Units) || units < a.MinUnits || units <= 0 {
		return Position{}, risk.Reject(risk.CodeSizeTooSmall,
			"size %g below minimum %g", req.Units, a.MinUnits)
	}

	var stopDist, targetDist float64
	switch req.Method {
	case MethodPips:
		if !(req.Stop >= a.MinStopPips) {
			return Position{}, risk.Reject(risk.CodeStopTooClose,
				"stop %g pips below minimum %g", req.Stop, a.MinStopPips)
		}
		if !(req.Target >= a.MinTargetPips) {
			return Position{}, risk.Reject(risk.CodeTargetTooClose,
				"target %g pips below minimum %g", req.Target, a.MinTargetPips)
		}
		stopDist = a.PipsToPrice(req.Stop)
		targetDist = a.PipsToPrice(req.Target)

	case MethodATR:
		if !mkt.HasATR || mkt.ATR <= 0 {
			return Position{}, risk.Reject(risk.CodeATRUnavailable, "ATR not ready")
		}
		minMul := l.policy.MinATRMultiplier
		if !(req.Stop >= minMul) || !(req.Target >= minMul) {
			return Position{}, risk.Reject(risk.CodeMultiplierTooSmall,
				"ATR multipliers %g/%g below minimum %g", req.Stop, req.Target, minMul)
		}
		stopDist = math.Max(mkt.ATR*req.Stop, a.PipsToPrice(a.MinStopPips))
		targetDist = math.Max(mkt.ATR*req.Target, a.PipsToPrice(a.MinTargetPips))

	default:
		return Position{}, risk.Reject(risk.CodeInvalidOrder, "unknown risk method %s", req.Method)
	}

	if targetDist <= stopDist*(1+l.policy.MinRewardMargin) {
		return Position{}, risk.Reject(risk.CodeTargetNotBeyond,
			"target distance %g must exceed stop distance %g", targetDist, stopDist)
	}

	close := mkt.Last.Close
	var entry, stop, target float64
	if req.Side == market.Buy {
		entry = a.RoundPrice(close + a.Spread())
		stop = a.RoundPrice(entry - stopDist)
		target = a.RoundPrice(entry + targetDist)
	} else {
		entry = a.RoundPrice(close)
		stop = a.RoundPrice(entry + stopDist)
		target = a.RoundPrice(entry - targetDist)
	}
	if stop <= 0 || target <= 0 {
		return Position{}, risk.Reject(risk.CodeInvalidOrder,
			"protective levels %g/%g out of range", stop, target)
	}

	exp := risk.Calculate(units, a.PriceToPips(math.Abs(entry-stop)), a, equity)
	if d := risk.Validate(exp.Amount, exp.Percent, equity, l.policy.MaxRiskPct); !d.Allowed {
		return Position{}, d.Violation
	}

	p := &Position{
		ID:         l.nextID,
		Asset:      a.Symbol,
		Side:       req.Side,
		Units:      units,
		EntryPrice: entry,
		StopLoss:   stop,
		TakeProfit: target,
		EntryTime:  mkt.Last.Time,
		RiskAmount: exp.Amount,
	}
	l.nextID++
	l.positions[p.ID] = p

	l.log.WithFields(logrus.Fields{
		"id":     p.ID,
		"side":   p.Side,
		"units":  p.Units,
		"entry":  p.EntryPrice,
		"sl":     p.StopLoss,
		"tp":     p.TakeProfit,
		"risk":   exp.Amount,
		"risk_%": exp.Percent,
		"rr":     risk.RR(entry, stop, target),
	}).Info("position opened")

	return *p, nil
}

// Modify moves the stop and/or target of an open position. Both edits are
// validated before either is applied.
func (l *Ledger) Modify(id int64, stop, target *float64) (Position, error) {
	p, ok := l.positions[id]
	if !ok {
		return Position{}, risk.Reject(risk.CodeNotFound, "position %d not found", id)
	}
	if stop == nil && target == nil {
		return Position{}, risk.Reject(risk.CodeNoChange, "nothing to modify")
	}

	a := l.asset
	newStop, newTarget := p.StopLoss, p.TakeProfit
	if stop != nil {
		newStop = a.RoundPrice(*stop)
	}
	if target != nil {
		newTarget = a.RoundPrice(*target)
	}
	if newStop == p.StopLoss && newTarget == p.TakeProfit {
		return Position{}, risk.Reject(risk.CodeNoChange, "levels unchanged")
	}

	long := p.Side == market.Buy
	if stop != nil {
		bad := !(newStop > 0) || math.IsInf(newStop, 0) || (long && newStop >= p.EntryPrice) || (!long && newStop <= p.EntryPrice)
		if bad {
			return Position{}, risk.Reject(risk.CodeInvalidStop,
				"stop %g on wrong side of entry %g", newStop, p.EntryPrice)
		}
	}
	if target != nil {
		bad := !(newTarget > 0) || math.IsInf(newTarget, 0) || (long && newTarget <= p.EntryPrice) || (!long && newTarget >= p.EntryPrice)
		if bad {
			return Position{}, risk.Reject(risk.CodeInvalidTarget,
				"target %g on wrong side of entry %g", newTarget, p.EntryPrice)
		}
	}
	if (long && newTarget <= newStop) || (!long && newTarget >= newStop) {
		return Position{}, risk.Reject(risk.CodeInvalidTarget,
			"target %g does not clear stop %g", newTarget, newStop)
	}

	p.StopLoss = newStop
	p.TakeProfit = newTarget
	p.RiskAmount = l.riskAmount(p)

	l.log.WithFields(logrus.Fields{"id": id, "sl": newStop, "tp": newTarget}).Info("position modified")
	return *p, nil
}

func (l *Ledger) riskAmount(p *Position) float64 {
	return l.asset.PriceToPips(math.Abs(p.EntryPrice-p.StopLoss)) * l.asset.PipSize * p.Units
}

// Close closes units of position id, or all of it when units is nil or not
// less than the open size. The realized P&L is booked on the tracker and the
// record is appended to the history and sent to the journal.
func (l *Ledger) Close(id int64, reason journal.CloseReason, units *float64, mkt MarketState) (journal.TradeRecord, error) {
	p, ok := l.positions[id]
	if !ok {
		return journal.TradeRecord{}, risk.Reject(risk.CodeNotFound, "position %d not found", id)
	}

	var exit float64
	switch reason {
	case journal.ReasonStopLoss:
		exit = p.StopLoss
	case journal.ReasonTakeProfit:
		exit = p.TakeProfit
	case journal.ReasonManual:
		if mkt.Last == nil {
			return journal.TradeRecord{}, risk.Reject(risk.CodeMarketClosed, "no market data yet")
		}
		exit = mkt.Last.Close
		if p.Side == market.Sell {
			exit = l.asset.RoundPrice(exit + l.asset.Spread())
		}
	default:
		return journal.TradeRecord{}, risk.Reject(risk.CodeInvalidOrder, "unknown close reason %q", reason)
	}

	closeUnits := p.Units
	partial := false
	if units != nil {
		u := l.asset.RoundUnits(*units)
		if math.IsNaN(*units) || u <= 0 {
			return journal.TradeRecord{}, risk.Reject(risk.CodeInvalidUnits, "units to close must be > 0, got %g", *units)
		}
		if u < p.Units {
			closeUnits, partial = u, true
		}
	}

	var exitTime int64
	if mkt.Last != nil {
		exitTime = mkt.Last.Time
	}

	pnl := PnL(p.Side, p.EntryPrice, exit, closeUnits, l.asset.PipSize)
	discipline := l.tracker.ApplyClose(pnl, reason)

	rec := journal.TradeRecord{
		ID:         p.ID,
		RunID:      l.runID,
		Asset:      p.Asset,
		Side:       p.Side,
		Units:      closeUnits,
		EntryPrice: p.EntryPrice,
		ExitPrice:  exit,
		StopLoss:   p.StopLoss,
		TakeProfit: p.TakeProfit,
		PnL:        pnl,
		EntryTime:  p.EntryTime,
		ExitTime:   exitTime,
		Reason:     reason,
		Partial:    partial,
	}

	if partial {
		left := l.asset.RoundUnits(p.Units - closeUnits)
		p.LivePnL *= left / p.Units
		p.Units = left
		p.RiskAmount = l.riskAmount(p)
	} else {
		delete(l.positions, id)
	}

	l.history = append(l.history, rec)
	if err := l.journal.RecordTrade(rec); err != nil {
		l.log.WithError(err).WithField("id", id).Warn("journal trade failed")
	}

	l.log.WithFields(logrus.Fields{
		"id":         id,
		"reason":     reason,
		"units":      closeUnits,
		"exit":       exit,
		"pnl":        pnl,
		"partial":    partial,
		"discipline": discipline,
	}).Info("position closed")

	return rec, nil
}

// MarkToMarket revalues every position at close and returns the total open
// P&L.
func (l *Ledger) MarkToMarket(close float64) float64 {
	var total float64
	for _, p := range l.positions {
		p.LivePnL = MarkToMarket(*p, close, l.asset)
		total += p.LivePnL
	}
	return total
}

// OpenPnL sums the last marked P&L of every position.
func (l *Ledger) OpenPnL() float64 {
	var total float64
	for _, p := range l.positions {
		total += p.LivePnL
	}
	return total
}

// Triggered is a position whose stop or target was touched.
type Triggered struct {
	ID     int64
	Reason journal.CloseReason
}

// Triggers lists the positions the bar's extremes touched, in ID order.
func (l *Ledger) Triggers(high, low float64) []Triggered {
	var out []Triggered
	for _, p := range l.Positions() {
		switch CheckTrigger(p, high, low) {
		case TriggerStopLoss:
			out = append(out, Triggered{ID: p.ID, Reason: journal.ReasonStopLoss})
		case TriggerTakeProfit:
			out = append(out, Triggered{ID: p.ID, Reason: journal.ReasonTakeProfit})
		}
	}
	return out
}

// Positions returns a snapshot of the open positions ordered by ID.
func (l *Ledger) Positions() []Position {
	out := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (l *Ledger) Get(id int64) (Position, bool) {
	p, ok := l.positions[id]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// Clear drops every open position without booking anything. The ID counter
// keeps counting.
func (l *Ledger) Clear() {
	l.positions = make(map[int64]*Position)
}
