package account

import (
	"math"
	"testing"

	"github.com/rustyeddy/tradesim/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTracker() *Tracker {
	return NewTracker(Config{Capital: 10000, Discipline: 3, MaxDiscipline: 5, MaxEquityPoints: 4})
}

func TestNewTracker(t *testing.T) {
	t.Parallel()

	s := newTracker().Snapshot()
	assert.Equal(t, 10000.0, s.Capital)
	assert.Equal(t, 10000.0, s.Equity)
	assert.Equal(t, 10000.0, s.PeakEquity)
	assert.Equal(t, 3, s.Discipline)
	assert.Empty(t, s.EquityHistory)

	clamped := NewTracker(Config{Capital: 1, Discipline: 20, MaxDiscipline: 5})
	assert.Equal(t, 5, clamped.Snapshot().Discipline)
	assert.Equal(t, DefaultMaxEquityPoints, clamped.Config().MaxEquityPoints)
}

func TestRecordEquityPoint(t *testing.T) {
	t.Parallel()

	tr := newTracker()
	tr.RecordEquityPoint(60, 1)
	tr.RecordEquityPoint(120, 2)
	// same tick coalesces
	tr.RecordEquityPoint(120, 3)
	// earlier time coalesces too
	tr.RecordEquityPoint(90, 4)

	assert.Equal(t, []journal.EquityPoint{{Time: 60, Value: 1}, {Time: 120, Value: 4}}, tr.Snapshot().EquityHistory)

	for i := int64(3); i <= 6; i++ {
		tr.RecordEquityPoint(i*60, float64(i))
	}
	h := tr.Snapshot().EquityHistory
	require.Len(t, h, 4)
	assert.Equal(t, int64(180), h[0].Time)
	assert.Equal(t, int64(360), h[3].Time)
}

func TestUpdateDrawdownMonotonic(t *testing.T) {
	t.Parallel()

	tr := newTracker()
	seq := []float64{10000, 9500, 9800, 11000, 10450, 10900, 12000, 11999}
	prev := 0.0
	for _, eq := range seq {
		tr.UpdateDrawdown(eq)
		dd := tr.Snapshot().MaxDrawdownPercent
		assert.GreaterOrEqual(t, dd, prev)
		prev = dd
	}

	s := tr.Snapshot()
	assert.Equal(t, 12000.0, s.PeakEquity)
	assert.InDelta(t, 5.0, s.MaxDrawdownPercent, 1e-9)
	assert.InDelta(t, 1.0/12000, s.Drawdown(), 1e-12)
}

func TestSetEquity(t *testing.T) {
	t.Parallel()

	tr := newTracker()
	assert.Equal(t, 10025.0, tr.SetEquity(25))
	assert.Equal(t, 10025.0, tr.Equity())
	assert.Equal(t, 10000.0, tr.Capital())
}

func TestApplyCloseDiscipline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		pnl    float64
		reason journal.CloseReason
		want   int
	}{
		{"take_profit", 20, journal.ReasonTakeProfit, 4},
		{"stop_loss", -10, journal.ReasonStopLoss, 2},
		{"manual_loss", -1, journal.ReasonManual, 2},
		{"manual_flat", 0, journal.ReasonManual, 2},
		{"manual_win", 5, journal.ReasonManual, 3},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tr := newTracker()
			assert.Equal(t, tt.want, tr.ApplyClose(tt.pnl, tt.reason))
			assert.Equal(t, 10000+tt.pnl, tr.Capital())
		})
	}
}

func TestDisciplineBounds(t *testing.T) {
	t.Parallel()

	tr := newTracker()
	for range 10 {
		d := tr.ApplyClose(1, journal.ReasonTakeProfit)
		assert.LessOrEqual(t, d, 5)
	}
	assert.Equal(t, 5, tr.Snapshot().Discipline)

	for range 10 {
		d := tr.ApplyClose(-1, journal.ReasonStopLoss)
		assert.GreaterOrEqual(t, d, 0)
	}
	assert.True(t, tr.Exhausted())
}

func TestAggregates(t *testing.T) {
	t.Parallel()

	tr := newTracker()
	tr.ApplyClose(30, journal.ReasonTakeProfit)
	tr.ApplyClose(-10, journal.ReasonStopLoss)
	tr.ApplyClose(0, journal.ReasonManual)

	s := tr.Snapshot()
	assert.Equal(t, 1, s.WinCount)
	assert.Equal(t, 1, s.LossCount)
	assert.Equal(t, 30.0, s.TotalGain)
	assert.Equal(t, 10.0, s.TotalLoss)
	assert.Equal(t, 20.0, s.TotalClosedPnL)
	assert.Equal(t, 0.5, s.WinRate())
	assert.Equal(t, 3.0, s.ProfitFactor())
}

func TestRecomputeAggregates(t *testing.T) {
	t.Parallel()

	tr := newTracker()
	tr.ApplyClose(99, journal.ReasonTakeProfit)

	tr.RecomputeAggregates([]journal.TradeRecord{
		{PnL: 5}, {PnL: -2}, {PnL: 0}, {PnL: 7},
	})

	s := tr.Snapshot()
	assert.Equal(t, 2, s.WinCount)
	assert.Equal(t, 1, s.LossCount)
	assert.Equal(t, 12.0, s.TotalGain)
	assert.Equal(t, 2.0, s.TotalLoss)
	assert.Equal(t, 10.0, s.TotalClosedPnL)
}

func TestReset(t *testing.T) {
	t.Parallel()

	tr := newTracker()
	tr.ApplyClose(-50, journal.ReasonStopLoss)
	tr.UpdateDrawdown(9000)
	tr.RecordEquityPoint(60, 9000)

	tr.Reset()
	s := tr.Snapshot()
	assert.Equal(t, 10000.0, s.Capital)
	assert.Equal(t, 10000.0, s.Equity)
	assert.Equal(t, 10000.0, s.PeakEquity)
	assert.Zero(t, s.MaxDrawdownPercent)
	assert.Equal(t, 3, s.Discipline)
	assert.Zero(t, s.LossCount)
	assert.Empty(t, s.EquityHistory)
}

func TestProfitFactorEdges(t *testing.T) {
	t.Parallel()

	assert.Zero(t, State{}.ProfitFactor())
	assert.True(t, math.IsInf(State{TotalGain: 1}.ProfitFactor(), 1))
	assert.Zero(t, State{}.WinRate())
}
