package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/tradesim/account"
	"github.com/rustyeddy/tradesim/indicators"
	"github.com/rustyeddy/tradesim/internal/id"
	"github.com/rustyeddy/tradesim/journal"
	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/pricing"
	"github.com/rustyeddy/tradesim/risk"
	"github.com/sirupsen/logrus"
)

var (
	ErrRunning        = errors.New("simulation is running")
	ErrAlreadyRunning = errors.New("simulation already running")
)

const (
	DefaultWarmupBars   = 100
	DefaultATRPeriod    = 14
	DefaultSMAPeriod    = 20
	DefaultWindowMargin = 5
	DefaultTickInterval = time.Second
)

// Options wires an Engine. Generator and Tracker are required; everything
// else has a default.
type Options struct {
	Generator *pricing.Generator
	Tracker   *account.Tracker
	Policy    risk.Policy
	Journal   journal.Journal
	History   []journal.TradeRecord
	Renderer  Renderer
	Feedback  Feedback
	Driver    Driver
	Log       *logrus.Entry
	RunID     string

	WarmupBars   int
	ATRPeriod    int
	SMAPeriod    int
	WindowMargin int
	TickInterval time.Duration
}

// Indicators holds the latest indicator values. A value is only meaningful
// when its Ready flag is set.
type Indicators struct {
	ATR      float64 `json:"atr"`
	ATRReady bool    `json:"atr_ready"`
	SMA      float64 `json:"sma"`
	SMAReady bool    `json:"sma_ready"`
}

// Engine is the simulation clock. Every tick and every public operation runs
// under one mutex, so ticks never overlap and trading calls see a consistent
// state.
type Engine struct {
	mu sync.Mutex

	gen      *pricing.Generator
	asset    market.Asset
	tracker  *account.Tracker
	ledger   *Ledger
	journal  journal.Journal
	renderer Renderer
	feedback Feedback
	driver   Driver
	log      *logrus.Entry
	runID    string

	warmup    int
	atrPeriod int
	smaPeriod int
	interval  time.Duration

	window  *indicators.Window
	last    *market.Bar
	ind     Indicators
	running bool
	stopped chan struct{}
	// driverDone is closed once the driver stop that game over scheduled has
	// finished.
	driverDone chan struct{}
	gameOver   bool
	listener   BarListener
}

func New(opts Options) (*Engine, error) {
	if opts.Generator == nil {
		return nil, errors.New("sim: generator is required")
	}
	if opts.Tracker == nil {
		return nil, errors.New("sim: tracker is required")
	}
	if opts.Policy == (risk.Policy{}) {
		opts.Policy = risk.DefaultPolicy()
	}
	if opts.Journal == nil {
		opts.Journal = journal.Nop{}
	}
	if opts.Renderer == nil {
		opts.Renderer = nopRenderer{}
	}
	if opts.Feedback == nil {
		opts.Feedback = nopFeedback{}
	}
	if opts.Driver == nil {
		opts.Driver = &ManualDriver{}
	}
	if opts.RunID == "" {
		opts.RunID = id.New()
	}
	if opts.WarmupBars <= 0 {
		opts.WarmupBars = DefaultWarmupBars
	}
	if opts.ATRPeriod <= 0 {
		opts.ATRPeriod = DefaultATRPeriod
	}
	if opts.SMAPeriod <= 0 {
		opts.SMAPeriod = DefaultSMAPeriod
	}
	if opts.WindowMargin <= 0 {
		opts.WindowMargin = DefaultWindowMargin
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}

	asset := opts.Generator.Asset()
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithFields(logrus.Fields{"component": "sim", "asset": asset.Symbol, "run": opts.RunID})

	ledger := NewLedger(asset, opts.Policy, opts.Tracker, opts.Journal, opts.RunID, log)
	ledger.LoadHistory(opts.History)

	return &Engine{
		gen:       opts.Generator,
		asset:     asset,
		tracker:   opts.Tracker,
		ledger:    ledger,
		journal:   opts.Journal,
		renderer:  opts.Renderer,
		feedback:  opts.Feedback,
		driver:    opts.Driver,
		log:       log,
		runID:     opts.RunID,
		warmup:    opts.WarmupBars,
		atrPeriod: opts.ATRPeriod,
		smaPeriod: opts.SMAPeriod,
		interval:  opts.TickInterval,
		window:    indicators.NewWindow(indicators.WindowSize(opts.ATRPeriod, opts.SMAPeriod, opts.WindowMargin)),
	}, nil
}

// SetBarListener installs a listener called after every tick with the lock
// released.
func (e *Engine) SetBarListener(l BarListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = l
}

// Start warms the bar window up (when empty) and starts the driver. It
// refuses when already running or when discipline is exhausted. A driver stop
// still in flight from a game over is waited for first.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	pending := e.driverDone
	e.mu.Unlock()
	if pending != nil {
		<-pending
	}

	e.mu.Lock()
	if e.driverDone == pending {
		e.driverDone = nil
	}
	if e.running {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	if e.tracker.Exhausted() {
		e.mu.Unlock()
		e.feedback.Notify("session over: reset to play again", SeverityError)
		return risk.Reject(risk.CodeSessionOver, "discipline exhausted")
	}

	if e.window.Len() == 0 {
		tf := e.gen.Timeframe()
		end := market.AlignTime(e.gen.Now(), tf)
		for _, b := range e.gen.Series(e.warmup, end) {
			e.window.Push(b)
			e.renderer.OnBar(b)
		}
		if b, ok := e.window.Last(); ok {
			e.last = &b
		}
		e.log.WithField("bars", e.window.Len()).Debug("window seeded")
	}
	e.updateIndicatorsLocked()
	e.running = true
	e.gameOver = false
	stopped := make(chan struct{})
	e.stopped = stopped
	e.mu.Unlock()

	if err := e.driver.Start(ctx, e.interval, e.Tick); err != nil {
		e.mu.Lock()
		e.haltLocked()
		e.mu.Unlock()
		return fmt.Errorf("start driver: %w", err)
	}

	go func() {
		select {
		case <-ctx.Done():
			if err := e.Stop(); err != nil {
				e.log.WithError(err).Warn("stop on cancel failed")
			}
		case <-stopped:
		}
	}()

	e.log.WithField("interval", e.interval).Info("simulation started")
	e.feedback.Notify("simulation started", SeverityInfo)
	return nil
}

// Stop halts ticking. It is a no-op when already stopped.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.haltLocked()
	e.mu.Unlock()

	e.log.Info("simulation stopped")
	e.feedback.Notify("simulation stopped", SeverityInfo)
	return e.driver.Stop()
}

// Reset restores initial capital and discipline and clears positions, the
// bar window and indicators. The closed-trade history is kept.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrRunning
	}
	e.tracker.Reset()
	e.ledger.Clear()
	e.window.Reset()
	e.last = nil
	e.ind = Indicators{}
	e.gameOver = false

	e.renderer.OnPositionsChanged(nil)
	e.log.Info("simulation reset")
	e.feedback.Notify("account reset", SeverityInfo)
	return nil
}

// Tick advances the simulation by one bar. It does nothing unless running.
func (e *Engine) Tick() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}

	bar := e.gen.Next(e.last, nil)
	e.last = &bar
	e.window.Push(bar)
	e.renderer.OnBar(bar)

	e.updateIndicatorsLocked()

	openPnL := e.ledger.MarkToMarket(bar.Close)
	queued := e.ledger.Triggers(bar.High, bar.Low)

	equity := e.tracker.SetEquity(openPnL)
	e.tracker.UpdateDrawdown(equity)
	e.recordEquityLocked(bar.Time, equity)

	mkt := e.marketLocked()
	for _, tr := range queued {
		rec, err := e.ledger.Close(tr.ID, tr.Reason, nil, mkt)
		if err != nil {
			e.log.WithError(err).WithField("id", tr.ID).Error("trigger close failed")
			continue
		}
		e.announceCloseLocked(rec)
		e.revalueLocked(bar.Time)
	}

	e.renderer.OnPositionsChanged(e.ledger.Positions())
	done := e.checkGameOverLocked()
	listener := e.listener
	e.mu.Unlock()

	if done != nil {
		// the tick may be running on the driver's own goroutine
		go e.stopDriver(done)
	}
	if listener != nil {
		listener.OnBar(e, bar)
	}
}

func (e *Engine) haltLocked() {
	e.running = false
	if e.stopped != nil {
		close(e.stopped)
		e.stopped = nil
	}
}

func (e *Engine) stopDriver(done chan struct{}) {
	defer close(done)
	if err := e.driver.Stop(); err != nil {
		e.log.WithError(err).Warn("driver stop failed")
	}
}

// Open places a market order at the last close.
func (e *Engine) Open(req OrderRequest) (Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.tradableLocked(); err != nil {
		return Position{}, err
	}
	p, err := e.ledger.Open(req, e.marketLocked(), e.tracker.Equity())
	if err != nil {
		e.reject("open", err)
		return Position{}, err
	}

	// the spread is paid on entry, so equity reflects it before the next bar
	e.ledger.MarkToMarket(e.last.Close)
	p, _ = e.ledger.Get(p.ID)
	e.revalueLocked(e.last.Time)
	e.renderer.OnPositionsChanged(e.ledger.Positions())
	e.feedback.Notify(fmt.Sprintf("opened %s #%d %g %s @ %g (sl %g tp %g)",
		p.Side, p.ID, p.Units, p.Asset, p.EntryPrice, p.StopLoss, p.TakeProfit), SeverityOK)
	return p, nil
}

// Modify changes the stop and/or target of an open position.
func (e *Engine) Modify(id int64, stop, target *float64) (Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gameOver || e.tracker.Exhausted() {
		return Position{}, e.reject("modify", risk.Reject(risk.CodeSessionOver, "discipline exhausted"))
	}
	p, err := e.ledger.Modify(id, stop, target)
	if err != nil {
		return Position{}, e.reject("modify", err)
	}

	e.renderer.OnPositionsChanged(e.ledger.Positions())
	e.feedback.Notify(fmt.Sprintf("modified #%d (sl %g tp %g)", p.ID, p.StopLoss, p.TakeProfit), SeverityOK)
	return p, nil
}

// Close closes all of a position, or units of it when units is not nil, at
// the last close.
func (e *Engine) Close(id int64, units *float64) (journal.TradeRecord, error) {
	e.mu.Lock()
	if err := e.tradableLocked(); err != nil {
		e.mu.Unlock()
		return journal.TradeRecord{}, err
	}
	rec, err := e.ledger.Close(id, journal.ReasonManual, units, e.marketLocked())
	if err != nil {
		e.reject("close", err)
		e.mu.Unlock()
		return journal.TradeRecord{}, err
	}

	e.announceCloseLocked(rec)
	e.revalueLocked(e.last.Time)
	e.renderer.OnPositionsChanged(e.ledger.Positions())
	done := e.checkGameOverLocked()
	e.mu.Unlock()

	if done != nil {
		go e.stopDriver(done)
	}
	return rec, nil
}

// CloseAll closes every open position manually.
func (e *Engine) CloseAll() ([]journal.TradeRecord, error) {
	var out []journal.TradeRecord
	for _, p := range e.Positions() {
		rec, err := e.Close(p.ID, nil)
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (e *Engine) tradableLocked() error {
	if e.gameOver || e.tracker.Exhausted() {
		err := risk.Reject(risk.CodeSessionOver, "discipline exhausted")
		e.feedback.Notify(err.Error(), SeverityError)
		return err
	}
	if e.last == nil {
		return e.reject("trade", risk.Reject(risk.CodeMarketClosed, "no market data yet"))
	}
	return nil
}

func (e *Engine) reject(op string, err error) error {
	e.log.WithError(err).WithField("op", op).Warn("request rejected")
	var v *risk.Violation
	if errors.As(err, &v) {
		e.feedback.Notify(v.Msg, SeverityWarn)
	} else {
		e.feedback.Notify(err.Error(), SeverityError)
	}
	return err
}

func (e *Engine) announceCloseLocked(rec journal.TradeRecord) {
	sev := SeverityOK
	if rec.PnL <= 0 {
		sev = SeverityWarn
	}
	kind := "closed"
	if rec.Partial {
		kind = "partially closed"
	}
	e.feedback.Notify(fmt.Sprintf("%s #%d %g @ %g (%s) pnl %.2f",
		kind, rec.ID, rec.Units, rec.ExitPrice, rec.Reason, rec.PnL), sev)
}

// revalueLocked recomputes equity from capital and open P&L after the set of
// positions changed.
func (e *Engine) revalueLocked(at int64) {
	equity := e.tracker.SetEquity(e.ledger.OpenPnL())
	e.tracker.UpdateDrawdown(equity)
	e.recordEquityLocked(at, equity)
}

func (e *Engine) recordEquityLocked(at int64, equity float64) {
	pt := e.tracker.RecordEquityPoint(at, equity)
	e.renderer.OnEquityPoint(pt)
	if err := e.journal.RecordEquity(pt); err != nil {
		e.log.WithError(err).Warn("journal equity failed")
	}
}

// checkGameOverLocked stops the clock the first time discipline runs out.
// When the clock was running it returns the channel the caller must pass to
// stopDriver once the lock is released; Start waits on it before restarting
// the driver.
func (e *Engine) checkGameOverLocked() chan struct{} {
	if e.gameOver || !e.tracker.Exhausted() {
		return nil
	}
	e.gameOver = true
	wasRunning := e.running
	e.haltLocked()
	e.log.Warn("discipline exhausted, session over")
	e.feedback.Notify("session over: discipline exhausted", SeverityError)
	if !wasRunning {
		return nil
	}
	e.driverDone = make(chan struct{})
	return e.driverDone
}

func (e *Engine) updateIndicatorsLocked() {
	bars := e.window.Bars()
	last, ok := e.window.Last()
	if !ok {
		e.ind = Indicators{}
		return
	}

	if v, err := indicators.ATR(bars, e.atrPeriod); err == nil {
		e.ind.ATR, e.ind.ATRReady = v, true
		e.renderer.OnIndicator(indicators.NameATR, indicators.Point{Time: last.Time, Value: v})
	} else {
		e.ind.ATR, e.ind.ATRReady = 0, false
	}
	if v, err := indicators.SMA(bars, e.smaPeriod); err == nil {
		e.ind.SMA, e.ind.SMAReady = v, true
		e.renderer.OnIndicator(indicators.NameSMA, indicators.Point{Time: last.Time, Value: v})
	} else {
		e.ind.SMA, e.ind.SMAReady = 0, false
	}
}

func (e *Engine) marketLocked() MarketState {
	return MarketState{Last: e.last, ATR: e.ind.ATR, HasATR: e.ind.ATRReady}
}

func (e *Engine) Account() account.State { return e.tracker.Snapshot() }

func (e *Engine) Asset() market.Asset { return e.asset }

func (e *Engine) Positions() []Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Positions()
}

func (e *Engine) Position(id int64) (Position, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Get(id)
}

func (e *Engine) History() []journal.TradeRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.History()
}

func (e *Engine) LastBar() (market.Bar, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return market.Bar{}, false
	}
	return *e.last, true
}

// Bars returns a copy of the rolling bar window, oldest first.
func (e *Engine) Bars() []market.Bar {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]market.Bar(nil), e.window.Bars()...)
}

func (e *Engine) Indicators() Indicators {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ind
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) GameOver() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gameOver
}

func (e *Engine) RunID() string { return e.runID }
