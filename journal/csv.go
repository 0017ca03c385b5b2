package journal

import (
	"encoding/csv"
	"errors"
	"os"
	"strconv"
	"time"
)

var (
	tradeHeader = []string{
		"id", "run_id", "asset", "side", "units", "entry_price", "exit_price",
		"stop_loss", "take_profit", "pnl", "entry_time", "exit_time", "reason", "partial",
	}
	equityHeader = []string{"time", "value"}
)

// CSVJournal exports closed trades and equity points to two CSV files. Every
// row is flushed as it is written, so the files are readable mid-run.
type CSVJournal struct {
	trades *csvFile
	equity *csvFile
}

// csvFile is one CSV output with its header already written.
type csvFile struct {
	f *os.File
	w *csv.Writer
}

func createCSV(path string, header []string) (*csvFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	c := &csvFile{f: f, w: csv.NewWriter(f)}
	if err := c.write(header); err != nil {
		_ = f.Close()
		return nil, err
	}
	return c, nil
}

func (c *csvFile) write(row []string) error {
	if err := c.w.Write(row); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *csvFile) close() error {
	c.w.Flush()
	return errors.Join(c.w.Error(), c.f.Close())
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	trades, err := createCSV(tradesPath, tradeHeader)
	if err != nil {
		return nil, err
	}
	equity, err := createCSV(equityPath, equityHeader)
	if err != nil {
		_ = trades.close()
		return nil, err
	}
	return &CSVJournal{trades: trades, equity: equity}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	return j.trades.write([]string{
		strconv.FormatInt(t.ID, 10),
		t.RunID,
		t.Asset,
		t.Side.String(),
		num(t.Units),
		num(t.EntryPrice),
		num(t.ExitPrice),
		num(t.StopLoss),
		num(t.TakeProfit),
		num(t.PnL),
		stamp(t.EntryTime),
		stamp(t.ExitTime),
		string(t.Reason),
		strconv.FormatBool(t.Partial),
	})
}

func (j *CSVJournal) RecordEquity(e EquityPoint) error {
	return j.equity.write([]string{stamp(e.Time), num(e.Value)})
}

func (j *CSVJournal) Close() error {
	return errors.Join(j.trades.close(), j.equity.close())
}

func num(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

func stamp(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}
