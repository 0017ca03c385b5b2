package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/tradesim/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLiteJournal, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('trades','equity')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["trades"])
	assert.True(t, found["equity"])
}

func TestSQLiteRecordTrade(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)

	rec := TradeRecord{
		ID:         1,
		RunID:      "RUN",
		Asset:      "EUR_USD",
		Side:       market.Buy,
		Units:      10000,
		EntryPrice: 1.1001,
		ExitPrice:  1.1011,
		StopLoss:   1.0991,
		TakeProfit: 1.1021,
		PnL:        10,
		EntryTime:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Unix(),
		ExitTime:   time.Date(2024, 1, 2, 4, 5, 6, 0, time.UTC).Unix(),
		Reason:     ReasonManual,
		Partial:    true,
	}

	require.NoError(t, j.RecordTrade(rec))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		side    string
		units   float64
		pnl     float64
		reason  string
		partial bool
	)
	err = db.QueryRow(`SELECT side, units, pnl, reason, partial FROM trades LIMIT 1`).
		Scan(&side, &units, &pnl, &reason, &partial)
	require.NoError(t, err)

	assert.Equal(t, "BUY", side)
	assert.InDelta(t, rec.Units, units, 1e-6)
	assert.InDelta(t, rec.PnL, pnl, 1e-6)
	assert.Equal(t, "manual", reason)
	assert.True(t, partial)
}

func TestSQLiteRecordEquity(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()
	j.ForRun("RUN")

	require.NoError(t, j.RecordEquity(EquityPoint{Time: 200, Value: 10010}))
	require.NoError(t, j.RecordEquity(EquityPoint{Time: 100, Value: 10000}))

	pts, err := j.ListEquity("RUN")
	require.NoError(t, err)
	assert.Equal(t, []EquityPoint{{100, 10000}, {200, 10010}}, pts)

	pts, err = j.ListEquity("OTHER")
	require.NoError(t, err)
	assert.Empty(t, pts)
}
