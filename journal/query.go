package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/tradesim/market"
)

const tradeColumns = `id, run_id, asset, side, units, entry_price, exit_price, stop_loss,
	take_profit, pnl, entry_time, exit_time, reason, partial`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (TradeRecord, error) {
	var (
		rec    TradeRecord
		side   string
		reason string
	)
	err := s.Scan(
		&rec.ID,
		&rec.RunID,
		&rec.Asset,
		&side,
		&rec.Units,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.StopLoss,
		&rec.TakeProfit,
		&rec.PnL,
		&rec.EntryTime,
		&rec.ExitTime,
		&reason,
		&rec.Partial,
	)
	if err != nil {
		return TradeRecord{}, err
	}
	if rec.Side, err = market.ParseSide(side); err != nil {
		return TradeRecord{}, err
	}
	rec.Reason = CloseReason(reason)
	return rec, nil
}

func collect(rows *sql.Rows) ([]TradeRecord, error) {
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTrade returns the most recent record for position id within a run.
func (j *SQLiteJournal) GetTrade(runID string, id int64) (TradeRecord, error) {
	row := j.db.QueryRow(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE run_id = ? AND id = ?
		ORDER BY seq DESC LIMIT 1`, runID, id)

	rec, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("trade %s/%d not found", runID, id)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTrades returns all records of a run in insertion order. An empty runID
// lists every run.
func (j *SQLiteJournal) ListTrades(runID string) ([]TradeRecord, error) {
	q := `SELECT ` + tradeColumns + ` FROM trades`
	var args []any
	if runID != "" {
		q += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	rows, err := j.db.Query(q+` ORDER BY seq ASC`, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ListTradesClosedBetween returns trades whose exit time is within [start, end).
func (j *SQLiteJournal) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE exit_time >= ? AND exit_time < ?
		ORDER BY exit_time ASC, seq ASC`, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ListEquity returns the equity points of a run in time order.
func (j *SQLiteJournal) ListEquity(runID string) ([]EquityPoint, error) {
	rows, err := j.db.Query(`
		SELECT time, value FROM equity WHERE run_id = ? ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityPoint
	for rows.Next() {
		var p EquityPoint
		if err := rows.Scan(&p.Time, &p.Value); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
