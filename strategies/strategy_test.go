package strategies

import (
	"context"
	"testing"
	"time"

	"github.com/rustyeddy/tradesim/account"
	"github.com/rustyeddy/tradesim/journal"
	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/pricing"
	"github.com/rustyeddy/tradesim/sim"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// levelSource returns the same draw every time. With a drift ratio of 1 and
// no bias a level above 0.5 walks up and one below walks down.
type levelSource struct{ v float64 }

func (s *levelSource) Float64() float64 { return s.v }

func newEngine(t *testing.T, src pricing.Source, s Strategy) *sim.Engine {
	t.Helper()

	a, err := market.Lookup("EUR_USD")
	require.NoError(t, err)

	gcfg := pricing.DefaultConfig()
	gcfg.DriftRatio = 1
	gcfg.MarketBias = 0
	gen := pricing.NewGenerator(a, gcfg, src).
		WithClock(func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) })

	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)

	e, err := sim.New(sim.Options{
		Generator:  gen,
		Tracker:    account.NewTracker(account.DefaultConfig()),
		Log:        logrus.NewEntry(l),
		WarmupBars: 40,
	})
	require.NoError(t, err)
	if s != nil {
		e.SetBarListener(s)
	}
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() { _ = e.Stop() })
	return e
}

func TestStrategyByName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"noop", "noop"},
		{"", "noop"},
		{"None", "noop"},
		{"open-once", "open-once"},
		{" SMA-Cross ", "sma-cross"},
		{"sma", "sma-cross"},
	}
	for _, tt := range tests {
		s, err := StrategyByName(tt.in, DefaultConfig())
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, s.Name())
	}

	_, err := StrategyByName("ema-cross", DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sma-cross")

	assert.Equal(t, []string{"noop", "open-once", "sma-cross"}, Names())
}

func TestNoop(t *testing.T) {
	t.Parallel()

	e := newEngine(t, pricing.NewSeeded(1), Noop{})
	for i := 0; i < 10; i++ {
		e.Tick()
	}
	assert.Empty(t, e.Positions())
	assert.Empty(t, e.History())
}

func TestOpenOnceSizesForRisk(t *testing.T) {
	t.Parallel()

	s := NewOpenOnce(Config{Method: sim.MethodPips, Stop: 20, Target: 40, RiskPct: 1}, -1)
	e := newEngine(t, pricing.NewSeeded(2), s)

	e.Tick()
	require.NoError(t, s.Err())
	require.NotZero(t, s.PositionID())

	p, ok := e.Position(s.PositionID())
	require.True(t, ok)
	assert.Equal(t, market.Sell, p.Side)
	// 1% of 10k over 20 pips
	assert.InDelta(t, 50000.0, p.Units, 1)

	for i := 0; i < 5; i++ {
		e.Tick()
	}
	assert.Len(t, e.Positions(), 1)

	_, err := e.Close(p.ID, nil)
	require.NoError(t, err)
	e.Tick()
	assert.Empty(t, e.Positions(), "never reopens")
}

func TestOpenOnceFixedUnitsATR(t *testing.T) {
	t.Parallel()

	s := NewOpenOnce(Config{Method: sim.MethodATR, Stop: 2, Target: 10, Units: 3000}, 1)
	e := newEngine(t, pricing.NewSeeded(3), s)

	e.Tick()
	require.NoError(t, s.Err())
	p, ok := e.Position(s.PositionID())
	require.True(t, ok)
	assert.Equal(t, market.Buy, p.Side)
	assert.Equal(t, 3000.0, p.Units)
}

func TestOpenOnceRecordsRejection(t *testing.T) {
	t.Parallel()

	s := NewOpenOnce(Config{Method: sim.MethodPips, Stop: 1, Target: 40, Units: 5000}, 1)
	e := newEngine(t, pricing.NewSeeded(4), s)

	e.Tick()
	assert.Error(t, s.Err())
	assert.Zero(t, s.PositionID())
	assert.Empty(t, e.Positions())
}

func TestSMACrossReverses(t *testing.T) {
	t.Parallel()

	src := &levelSource{v: 0.1}
	s := NewSMACross(Config{Method: sim.MethodPips, Stop: 80, Target: 200, RiskPct: 1})
	e := newEngine(t, src, s)

	// falling: close stays under the SMA
	for i := 0; i < 5; i++ {
		e.Tick()
	}
	assert.Empty(t, e.Positions())

	src.v = 0.9
	for i := 0; i < 60 && len(e.Positions()) == 0; i++ {
		e.Tick()
	}
	require.NoError(t, s.Err())
	ps := e.Positions()
	require.Len(t, ps, 1)
	assert.Equal(t, market.Buy, ps[0].Side)
	long := ps[0].ID

	// keep rising: no new signal
	for i := 0; i < 5; i++ {
		e.Tick()
	}
	assert.Equal(t, 1, s.Signals())

	src.v = 0.1
	for i := 0; i < 80; i++ {
		e.Tick()
		if ps := e.Positions(); len(ps) == 1 && ps[0].Side == market.Sell {
			break
		}
	}
	require.NoError(t, s.Err())
	ps = e.Positions()
	require.Len(t, ps, 1)
	assert.Equal(t, market.Sell, ps[0].Side)
	assert.Greater(t, ps[0].ID, long)

	hist := e.History()
	require.Len(t, hist, 1)
	assert.Equal(t, long, hist[0].ID)
	assert.Equal(t, journal.ReasonManual, hist[0].Reason)
	assert.Equal(t, 2, s.Signals())
}
