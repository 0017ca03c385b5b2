package backtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/tradesim/journal"
	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/sim"
	"github.com/rustyeddy/tradesim/strategies"
)

// RunnerOptions controls how the runner behaves.
type RunnerOptions struct {
	// Ticks is the number of bars to simulate after warmup.
	Ticks int

	// Duration switches to real-time mode: the engine's own driver ticks it
	// and the run ends after Duration of wall-clock time.
	Duration time.Duration

	// If true, close all open positions after the last tick.
	CloseEnd bool
}

// Runner drives an engine forward with a strategy installed as the bar
// listener. In tick mode it calls Tick as fast as it can and the engine
// should use a sim.ManualDriver so nothing else ticks it. In real-time mode
// the engine's driver does the ticking.
type Runner struct {
	Engine   *sim.Engine
	Strategy strategies.Strategy
	Options  RunnerOptions

	// Journal, when set, is the SQLite sink the engine writes to. Trade counts
	// are then read back from it instead of the engine history.
	Journal *journal.SQLiteJournal
}

// Run executes the loop:
//  1. engine.Start (warmup)
//  2. engine.Tick (or the driver in real-time mode), which calls the
//     strategy after each bar
//  3. stop when Ticks or Duration is reached, the session is over or ctx
//     is done
//
// A cancelled context still returns the partial result together with the
// context error.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.Engine == nil {
		return Result{}, fmt.Errorf("backtest: Engine is required")
	}
	if r.Strategy == nil {
		return Result{}, fmt.Errorf("backtest: Strategy is required")
	}
	if r.Options.Ticks <= 0 && r.Options.Duration <= 0 {
		return Result{}, fmt.Errorf("backtest: Ticks must be > 0, got %d", r.Options.Ticks)
	}

	e := r.Engine
	seen := len(e.History())
	startBalance := e.Account().Capital

	var (
		res    Result
		runErr error
		live   *barCounter
	)
	if r.Options.Duration > 0 {
		live = &barCounter{next: r.Strategy}
		e.SetBarListener(live)
	} else {
		e.SetBarListener(r.Strategy)
	}
	if err := e.Start(ctx); err != nil {
		return Result{}, fmt.Errorf("backtest: start: %w", err)
	}

	if live != nil {
		runErr = r.wait(ctx)
	}
	for live == nil && res.Ticks < r.Options.Ticks {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if e.GameOver() {
			break
		}
		e.Tick()
		res.Ticks++

		if b, ok := e.LastBar(); ok {
			t := time.Unix(b.Time, 0).UTC()
			if res.Start.IsZero() {
				res.Start = t
			}
			res.End = t
		}
	}

	if r.Options.CloseEnd && !e.GameOver() {
		if _, err := e.CloseAll(); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("backtest: close at end: %w", err))
		}
	}
	if err := e.Stop(); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if live != nil {
		res.Ticks, res.Start, res.End = live.snapshot()
	}

	acct := e.Account()
	res.RunID = e.RunID()
	res.Strategy = r.Strategy.Name()
	res.Asset = e.Asset().Symbol
	res.StartBalance = startBalance
	res.Balance = acct.Capital
	res.Equity = acct.Equity
	res.MaxDDPct = acct.MaxDrawdownPercent
	res.Discipline = acct.Discipline
	res.GameOver = e.GameOver()
	res.OpenPositions = len(e.Positions())

	trades := e.History()[seen:]
	if r.Journal != nil {
		recs, err := r.Journal.ListTrades(res.RunID)
		if err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("backtest: read journal: %w", err))
		} else {
			trades = recs
		}
	}
	res.tally(trades)

	return res, runErr
}

// pollInterval is how often real-time mode checks for the end of a session.
const pollInterval = 50 * time.Millisecond

// wait blocks until Duration elapses, the engine halts or ctx is done.
// Reaching Duration is not an error.
func (r *Runner) wait(ctx context.Context) error {
	timeout, cancel := context.WithTimeout(ctx, r.Options.Duration)
	defer cancel()

	t := time.NewTicker(pollInterval)
	defer t.Stop()

	for {
		select {
		case <-timeout.Done():
			return ctx.Err()
		case <-t.C:
			if r.Engine.GameOver() || !r.Engine.Running() {
				return nil
			}
		}
	}
}

// barCounter counts the bars the driver produced before handing them to the
// strategy.
type barCounter struct {
	mu         sync.Mutex
	next       strategies.Strategy
	ticks      int
	start, end time.Time
}

func (c *barCounter) OnBar(e *sim.Engine, bar market.Bar) {
	t := time.Unix(bar.Time, 0).UTC()
	c.mu.Lock()
	c.ticks++
	if c.start.IsZero() {
		c.start = t
	}
	c.end = t
	c.mu.Unlock()

	c.next.OnBar(e, bar)
}

func (c *barCounter) snapshot() (int, time.Time, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks, c.start, c.end
}
