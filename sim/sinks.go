package sim

import (
	"github.com/rustyeddy/tradesim/indicators"
	"github.com/rustyeddy/tradesim/journal"
	"github.com/rustyeddy/tradesim/market"
)

// Renderer receives fire-and-forget display updates.
type Renderer interface {
	OnBar(market.Bar)
	OnIndicator(name string, p indicators.Point)
	OnPositionsChanged([]Position)
	OnEquityPoint(journal.EquityPoint)
}

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityOK
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Feedback shows one-line messages to the user.
type Feedback interface {
	Notify(msg string, sev Severity)
}

// BarListener is called after every tick, outside the engine lock, so it
// may call back into the engine.
type BarListener interface {
	OnBar(e *Engine, bar market.Bar)
}

type nopRenderer struct{}

func (nopRenderer) OnBar(market.Bar)                     {}
func (nopRenderer) OnIndicator(string, indicators.Point) {}
func (nopRenderer) OnPositionsChanged([]Position)        {}
func (nopRenderer) OnEquityPoint(journal.EquityPoint)    {}

type nopFeedback struct{}

func (nopFeedback) Notify(string, Severity) {}
