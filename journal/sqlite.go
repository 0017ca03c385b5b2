package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteJournal writes closed trades and equity points to a sqlite file.
// Equity rows are tagged with the run the journal was opened for.
type SQLiteJournal struct {
	db    *sql.DB
	runID string
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

// ForRun sets the run ID stamped on equity rows.
func (j *SQLiteJournal) ForRun(runID string) *SQLiteJournal {
	j.runID = runID
	return j
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(id, run_id, asset, side, units, entry_price, exit_price, stop_loss, take_profit,
		 pnl, entry_time, exit_time, reason, partial)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.RunID, t.Asset, t.Side.String(), t.Units, t.EntryPrice, t.ExitPrice,
		t.StopLoss, t.TakeProfit, t.PnL, t.EntryTime, t.ExitTime, string(t.Reason), t.Partial,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquityPoint) error {
	_, err := j.db.Exec(`INSERT INTO equity (run_id, time, value) VALUES (?, ?, ?)`,
		j.runID, e.Time, e.Value)
	return err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
