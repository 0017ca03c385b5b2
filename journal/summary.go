package journal

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
	"time"
)

// RunSummary describes a finished simulation run.
type RunSummary struct {
	RunID     string
	Created   time.Time
	Asset     string
	Timeframe string
	Strategy  string
	Seed      uint64

	Ticks int
	Start time.Time
	End   time.Time

	Trades int
	Wins   int
	Losses int

	StartBalance float64
	EndBalance   float64

	NetPL        float64
	ReturnPct    float64
	WinRate      float64
	ProfitFactor float64
	MaxDDPct     float64

	Discipline int
	GameOver   bool

	Notes []string
}

var summaryOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var summaryOrgTmpl = template.Must(template.New("summary").Funcs(summaryOrgFuncs).Parse(RunSummaryOrgTemplate))

// FormatOrg renders the summary as an Org-mode entry.
func (s RunSummary) FormatOrg() (string, error) {
	buf := new(bytes.Buffer)
	if err := summaryOrgTmpl.Execute(buf, s); err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return buf.String(), nil
}

func (s RunSummary) WriteOrg(path string) error {
	out, err := s.FormatOrg()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(out), 0644)
}

const RunSummaryOrgTemplate = `
* RUN: {{if .Strategy}}{{.Strategy}}{{else}}manual{{end}} {{.Asset}} {{if .Timeframe}}{{.Timeframe}}{{else}}(timeframe?){{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{if .Strategy}}{{.Strategy}}{{else}}manual{{end}}
:TIMEFRAME:   {{if .Timeframe}}{{.Timeframe}}{{else}}(timeframe?){{end}}
:ASSET:       {{.Asset}}
:SEED:        {{.Seed}}
:TICKS:       {{.Ticks}}
:START_DATE:  {{.Start.UTC.Format "2006-01-02 15:04"}}
:END_DATE:    {{.End.UTC.Format "2006-01-02 15:04"}}
:START_BAL:   {{printf "%.2f" .StartBalance}}
:END_BAL:     {{printf "%.2f" .EndBalance}}
:NET_PL:      {{printf "%.2f" .NetPL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:  {{printf "%.2f" .MaxDDPct}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" (mul100 .WinRate)}}
:PROFIT_FAC:  {{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}
:DISCIPLINE:  {{.Discipline}}
:GAME_OVER:   {{.GameOver}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Net P/L:          *{{printf "%.2f" .NetPL}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Max Drawdown:     *{{printf "%.2f" .MaxDDPct}}%*
- Win Rate:         *{{printf "%.2f" (mul100 .WinRate)}}%*
- Profit Factor:    *{{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.Trades}} |

{{- if .Notes }}
** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
