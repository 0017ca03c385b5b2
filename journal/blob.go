package journal

import (
	"sync"

	"github.com/rustyeddy/tradesim/store"
	"github.com/sirupsen/logrus"
)

// BlobJournal keeps the closed-trade log in a BlobStore under
// store.KeyHistory, rewriting the whole log on every record. Equity points
// are not persisted.
type BlobJournal struct {
	mu      sync.Mutex
	bs      store.BlobStore
	log     *logrus.Entry
	history []TradeRecord
}

func NewBlobJournal(bs store.BlobStore, log *logrus.Entry) *BlobJournal {
	return &BlobJournal{bs: bs, log: log}
}

// Load reads the persisted log. A missing or unreadable log yields an empty
// history; the failure is logged, not returned.
func (j *BlobJournal) Load() []TradeRecord {
	j.mu.Lock()
	defer j.mu.Unlock()

	var recs []TradeRecord
	ok, err := store.LoadJSON(j.bs, store.KeyHistory, &recs)
	switch {
	case err != nil:
		j.log.WithError(err).Warn("history unavailable, starting empty")
		recs = nil
	case !ok:
		j.log.Debug("no stored history")
	default:
		j.log.WithField("trades", len(recs)).Info("history loaded")
	}
	j.history = recs
	return append([]TradeRecord(nil), recs...)
}

func (j *BlobJournal) RecordTrade(t TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.history = append(j.history, t)
	return store.SaveJSON(j.bs, store.KeyHistory, j.history)
}

func (j *BlobJournal) RecordEquity(EquityPoint) error { return nil }

func (j *BlobJournal) Close() error { return nil }

// Clear removes the persisted log.
func (j *BlobJournal) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.history = nil
	return j.bs.Remove(store.KeyHistory)
}
