package backtest

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/rustyeddy/tradesim/journal"
)

// Result is a lightweight summary of a backtest run.
type Result struct {
	RunID    string
	Strategy string
	Asset    string

	Ticks int
	Start time.Time
	End   time.Time

	StartBalance float64
	Balance      float64
	Equity       float64

	Trades    int
	Wins      int
	Losses    int
	GrossWin  float64
	GrossLoss float64

	MaxDDPct      float64
	Discipline    int
	GameOver      bool
	OpenPositions int
}

func (r *Result) tally(trades []journal.TradeRecord) {
	for _, tr := range trades {
		r.Trades++
		switch {
		case tr.PnL > 0:
			r.Wins++
			r.GrossWin += tr.PnL
		case tr.PnL < 0:
			r.Losses++
			r.GrossLoss += -tr.PnL
		}
	}
}

// Summary turns the result into a journal run summary. Fields the runner
// does not know about (timeframe, seed) come from meta.
func (r Result) Summary(meta journal.RunSummary) journal.RunSummary {
	s := meta
	s.RunID = r.RunID
	if s.Created.IsZero() {
		s.Created = time.Now().UTC()
	}
	s.Asset = r.Asset
	s.Strategy = r.Strategy
	s.Ticks = r.Ticks
	s.Start, s.End = r.Start, r.End
	s.Trades, s.Wins, s.Losses = r.Trades, r.Wins, r.Losses
	s.StartBalance = r.StartBalance
	s.EndBalance = r.Balance
	s.NetPL = r.Balance - r.StartBalance
	if r.StartBalance > 0 {
		s.ReturnPct = s.NetPL / r.StartBalance * 100
	}
	if n := r.Wins + r.Losses; n > 0 {
		s.WinRate = float64(r.Wins) / float64(n)
	}
	switch {
	case r.GrossLoss > 0:
		s.ProfitFactor = r.GrossWin / r.GrossLoss
	case r.GrossWin > 0:
		s.ProfitFactor = math.Inf(1)
	}
	s.MaxDDPct = r.MaxDDPct
	s.Discipline = r.Discipline
	s.GameOver = r.GameOver

	if r.GameOver {
		s.Notes = append(s.Notes, "discipline exhausted before the last tick")
	}
	if r.OpenPositions > 0 {
		s.Notes = append(s.Notes, fmt.Sprintf("%d position(s) still open at the end", r.OpenPositions))
	}
	return s
}

func PrintResult(w io.Writer, r journal.RunSummary) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Simulation Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Created:       %s\n", r.Created.Format(time.RFC3339))
	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	fmt.Fprintf(w, "Asset:         %s\n", r.Asset)
	if r.Timeframe != "" {
		fmt.Fprintf(w, "Timeframe:     %s\n", r.Timeframe)
	}
	if r.Seed != 0 {
		fmt.Fprintf(w, "Seed:          %d\n", r.Seed)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Ticks:         %d\n", r.Ticks)
	if !r.Start.IsZero() {
		fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", r.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", r.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.WinRate*100)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %.2f\n", r.StartBalance)
	fmt.Fprintf(w, "End Balance:   %.2f\n", r.EndBalance)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", r.NetPL)
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.ReturnPct)

	if r.ProfitFactor > 0 && !math.IsInf(r.ProfitFactor, 1) {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", r.ProfitFactor)
	}
	if r.MaxDDPct > 0 {
		fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.MaxDDPct)
	}
	fmt.Fprintf(w, "Discipline:    %d\n", r.Discipline)
	if r.GameOver {
		fmt.Fprintln(w, "Session:       OVER")
	}

	if len(r.Notes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Observations")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, note := range r.Notes {
			fmt.Fprintf(w, "- %s\n", note)
		}
	}

	fmt.Fprintln(w)
}
