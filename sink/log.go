// Package sink holds terminal implementations of the simulation's render and
// feedback interfaces.
package sink

import (
	"github.com/rustyeddy/tradesim/indicators"
	"github.com/rustyeddy/tradesim/journal"
	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/sim"
	"github.com/sirupsen/logrus"
)

// LogRenderer writes display updates to a logrus entry. Bars, indicators and
// equity points go out at debug level; position changes at info.
type LogRenderer struct {
	log *logrus.Entry
}

func NewLogRenderer(log *logrus.Entry) *LogRenderer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &LogRenderer{log: log.WithField("component", "render")}
}

func (r *LogRenderer) OnBar(b market.Bar) {
	r.log.WithFields(logrus.Fields{
		"time":  b.Time,
		"open":  b.Open,
		"high":  b.High,
		"low":   b.Low,
		"close": b.Close,
	}).Debug("bar")
}

func (r *LogRenderer) OnIndicator(name string, p indicators.Point) {
	r.log.WithFields(logrus.Fields{"name": name, "time": p.Time, "value": p.Value}).Debug("indicator")
}

func (r *LogRenderer) OnPositionsChanged(ps []sim.Position) {
	var pnl float64
	for _, p := range ps {
		pnl += p.LivePnL
	}
	r.log.WithFields(logrus.Fields{"open": len(ps), "open_pnl": pnl}).Info("positions")
}

func (r *LogRenderer) OnEquityPoint(p journal.EquityPoint) {
	r.log.WithFields(logrus.Fields{"time": p.Time, "equity": p.Value}).Debug("equity")
}

// LogFeedback logs notifications at a level matching their severity.
type LogFeedback struct {
	log *logrus.Entry
}

func NewLogFeedback(log *logrus.Entry) *LogFeedback {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &LogFeedback{log: log.WithField("component", "feedback")}
}

func (f *LogFeedback) Notify(msg string, sev sim.Severity) {
	f.log.WithField("severity", sev.String()).Log(Level(sev), msg)
}

// Level maps a severity onto a logrus level.
func Level(sev sim.Severity) logrus.Level {
	switch sev {
	case sim.SeverityWarn:
		return logrus.WarnLevel
	case sim.SeverityError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
