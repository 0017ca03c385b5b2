package journal

import (
	"testing"
	"time"

	"github.com/rustyeddy/tradesim/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(run string, id int64, asset string, exit time.Time) TradeRecord {
	return TradeRecord{
		ID:         id,
		RunID:      run,
		Asset:      asset,
		Side:       market.Buy,
		Units:      1000,
		EntryPrice: 1.08,
		ExitPrice:  1.081,
		StopLoss:   1.079,
		TakeProfit: 1.082,
		PnL:        1,
		EntryTime:  exit.Add(-time.Hour).Unix(),
		ExitTime:   exit.Unix(),
		Reason:     ReasonManual,
	}
}

func TestGetTrade(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	want := rec("RUN", 3, "EUR_USD", time.Date(2024, 4, 10, 15, 30, 0, 0, time.UTC))
	want.Side = market.Sell
	want.Reason = ReasonTakeProfit
	require.NoError(t, j.RecordTrade(want))

	got, err := j.GetTrade("RUN", 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGetTradeReturnsLatestRecord(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	at := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	partial := rec("RUN", 1, "EUR_USD", at)
	partial.Partial = true
	final := rec("RUN", 1, "EUR_USD", at.Add(time.Minute))
	final.Reason = ReasonStopLoss

	require.NoError(t, j.RecordTrade(partial))
	require.NoError(t, j.RecordTrade(final))

	got, err := j.GetTrade("RUN", 1)
	require.NoError(t, err)
	assert.False(t, got.Partial)
	assert.Equal(t, ReasonStopLoss, got.Reason)
}

func TestGetTradeNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetTrade("RUN", 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListTrades(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(rec("A", 1, "EUR_USD", at)))
	require.NoError(t, j.RecordTrade(rec("B", 1, "GBP_USD", at)))
	require.NoError(t, j.RecordTrade(rec("A", 2, "EUR_USD", at)))

	all, err := j.ListTrades("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	a, err := j.ListTrades("A")
	require.NoError(t, err)
	require.Len(t, a, 2)
	assert.Equal(t, int64(1), a[0].ID)
	assert.Equal(t, int64(2), a[1].ID)
}

func TestListTradesClosedBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	trades := []TradeRecord{
		rec("R", 3, "USD_JPY", base.Add(10*time.Hour)),
		rec("R", 1, "EUR_USD", base.Add(1*time.Hour)),
		rec("R", 2, "GBP_USD", base.Add(5*time.Hour)),
		rec("R", 4, "XAU_USD", base.Add(24*time.Hour)),
	}
	for _, tr := range trades {
		require.NoError(t, j.RecordTrade(tr))
	}

	tests := []struct {
		name       string
		start, end time.Time
		want       []int64
	}{
		{"window", base.Add(3 * time.Hour), base.Add(12 * time.Hour), []int64{2, 3}},
		{"ordered", base, base.Add(24 * time.Hour), []int64{1, 2, 3}},
		{"start_inclusive", base.Add(time.Hour), base.Add(2 * time.Hour), []int64{1}},
		{"end_exclusive", base, base.Add(time.Hour), nil},
		{"no_matches", base.Add(48 * time.Hour), base.Add(72 * time.Hour), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := j.ListTradesClosedBetween(tt.start, tt.end)
			require.NoError(t, err)
			var ids []int64
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
