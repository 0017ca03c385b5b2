package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a closed-trade record as an Org-mode entry with a
// property drawer and empty review headings, ready to paste into a journal.
func FormatTradeOrg(t TradeRecord) string {
	props := [][2]string{
		{"TRADE_ID", fmt.Sprint(t.ID)},
		{"RUN_ID", t.RunID},
		{"ASSET", t.Asset},
		{"SIDE", t.Side.String()},
		{"UNITS", fmt.Sprintf("%g", t.Units)},
		{"ENTRY_PRICE", fmt.Sprintf("%.5f", t.EntryPrice)},
		{"EXIT_PRICE", fmt.Sprintf("%.5f", t.ExitPrice)},
		{"STOP_LOSS", fmt.Sprintf("%.5f", t.StopLoss)},
		{"TAKE_PROFIT", fmt.Sprintf("%.5f", t.TakeProfit)},
		{"OPEN_TIME", orgTime(t.EntryTime)},
		{"CLOSE_TIME", orgTime(t.ExitTime)},
		{"PNL", fmt.Sprintf("%.2f", t.PnL)},
		{"REASON", string(t.Reason)},
	}
	if t.Partial {
		props = append(props, [2]string{"PARTIAL", "t"})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "** Trade: %s %s #%d (%s)\n", t.Asset, t.Side, t.ID, shortID(t.RunID))
	b.WriteString(":PROPERTIES:\n")
	for _, p := range props {
		fmt.Fprintf(&b, ":%s: %s\n", p[0], p[1])
	}
	b.WriteString(":END:\n\n")
	for i, h := range []string{"Thesis", "Execution", "Review"} {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "*** %s\n- \n", h)
	}
	return b.String()
}

// FormatTradesOrg renders trades one after another, separated by a blank
// line.
func FormatTradesOrg(trades []TradeRecord) string {
	entries := make([]string, len(trades))
	for i, t := range trades {
		entries[i] = FormatTradeOrg(t)
	}
	return strings.Join(entries, "\n\n")
}

func orgTime(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

// shortID keeps the leading, time-ordered part of a run ID.
func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
