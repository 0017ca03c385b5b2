package sink

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rustyeddy/tradesim/account"
	"github.com/rustyeddy/tradesim/sim"
)

var (
	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)
)

func styleFor(sev sim.Severity) lipgloss.Style {
	switch sev {
	case sim.SeverityOK:
		return okStyle
	case sim.SeverityWarn:
		return warnStyle
	case sim.SeverityError:
		return errorStyle
	default:
		return infoStyle
	}
}

// Console prints notifications to a terminal, one styled line each.
type Console struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewConsole writes to w, or stdout when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w, now: time.Now}
}

func (c *Console) Notify(msg string, sev sim.Severity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tag := styleFor(sev).Render(fmt.Sprintf("%-5s", strings.ToUpper(sev.String())))
	fmt.Fprintf(c.w, "%s %s %s\n", timeStyle.Render(c.now().Format("15:04:05")), tag, msg)
}

// PrintAccount writes a boxed account summary.
func (c *Console) PrintAccount(title string, s account.State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", title)
	fmt.Fprintf(&b, "capital     %12.2f\n", s.Capital)
	fmt.Fprintf(&b, "equity      %12.2f\n", s.Equity)
	fmt.Fprintf(&b, "closed p&l  %12.2f\n", s.TotalClosedPnL)
	fmt.Fprintf(&b, "win rate    %11.1f%%\n", s.WinRate()*100)
	fmt.Fprintf(&b, "max dd      %11.2f%%\n", s.MaxDrawdownPercent)
	fmt.Fprintf(&b, "discipline  %12d", s.Discipline)
	fmt.Fprintln(c.w, headerStyle.Render(b.String()))
}

// Feedbacks fans a notification out to several sinks.
type Feedbacks []sim.Feedback

func (fs Feedbacks) Notify(msg string, sev sim.Severity) {
	for _, f := range fs {
		f.Notify(msg, sev)
	}
}
