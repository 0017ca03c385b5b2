package journal

import (
	"errors"
	"testing"

	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func TestBlobJournalPersistsHistory(t *testing.T) {
	t.Parallel()

	bs := store.NewMemory()
	j := NewBlobJournal(bs, quietLog())
	assert.Empty(t, j.Load())

	a := TradeRecord{ID: 1, Asset: "EUR_USD", Side: market.Buy, PnL: 10, Reason: ReasonTakeProfit}
	b := TradeRecord{ID: 2, Asset: "EUR_USD", Side: market.Sell, PnL: -4, Reason: ReasonStopLoss}
	require.NoError(t, j.RecordTrade(a))
	require.NoError(t, j.RecordTrade(b))
	require.NoError(t, j.RecordEquity(EquityPoint{Time: 1, Value: 1}))

	reloaded := NewBlobJournal(bs, quietLog()).Load()
	assert.Equal(t, []TradeRecord{a, b}, reloaded)

	require.NoError(t, j.Clear())
	assert.Empty(t, NewBlobJournal(bs, quietLog()).Load())
}

func TestBlobJournalDegradesOnCorruptHistory(t *testing.T) {
	t.Parallel()

	bs := store.NewMemory()
	require.NoError(t, bs.Save(store.KeyHistory, []byte("not json")))

	j := NewBlobJournal(bs, quietLog())
	assert.Empty(t, j.Load())

	// writing replaces the corrupt value
	require.NoError(t, j.RecordTrade(TradeRecord{ID: 1, Side: market.Buy, Reason: ReasonManual}))
	assert.Len(t, NewBlobJournal(bs, quietLog()).Load(), 1)
}

type brokenStore struct{}

func (brokenStore) Load(string) ([]byte, bool, error) { return nil, false, errors.New("disk gone") }
func (brokenStore) Save(string, []byte) error         { return errors.New("disk gone") }
func (brokenStore) Remove(string) error               { return errors.New("disk gone") }

func TestBlobJournalStoreFailure(t *testing.T) {
	t.Parallel()

	j := NewBlobJournal(brokenStore{}, quietLog())
	assert.Empty(t, j.Load())
	assert.Error(t, j.RecordTrade(TradeRecord{ID: 1, Side: market.Buy, Reason: ReasonManual}))
}

type countingJournal struct {
	trades, equity, closed int
	err                    error
}

func (c *countingJournal) RecordTrade(TradeRecord) error  { c.trades++; return c.err }
func (c *countingJournal) RecordEquity(EquityPoint) error { c.equity++; return c.err }
func (c *countingJournal) Close() error                   { c.closed++; return c.err }

func TestMultiFansOut(t *testing.T) {
	t.Parallel()

	ok := &countingJournal{}
	bad := &countingJournal{err: errors.New("nope")}
	m := Multi{bad, ok}

	assert.Error(t, m.RecordTrade(TradeRecord{}))
	assert.Error(t, m.RecordEquity(EquityPoint{}))
	assert.Error(t, m.Close())

	assert.Equal(t, 1, ok.trades)
	assert.Equal(t, 1, ok.equity)
	assert.Equal(t, 1, ok.closed)

	assert.NoError(t, Multi{ok}.RecordTrade(TradeRecord{}))
}

func TestParseCloseReason(t *testing.T) {
	t.Parallel()

	r, err := ParseCloseReason("TP")
	require.NoError(t, err)
	assert.Equal(t, ReasonTakeProfit, r)

	_, err = ParseCloseReason("margin")
	assert.Error(t, err)
}
