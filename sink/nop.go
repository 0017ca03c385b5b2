package sink

import (
	"github.com/rustyeddy/tradesim/indicators"
	"github.com/rustyeddy/tradesim/journal"
	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/sim"
)

type NopRenderer struct{}

func (NopRenderer) OnBar(market.Bar)                     {}
func (NopRenderer) OnIndicator(string, indicators.Point) {}
func (NopRenderer) OnPositionsChanged([]sim.Position)    {}
func (NopRenderer) OnEquityPoint(journal.EquityPoint)    {}

type NopFeedback struct{}

func (NopFeedback) Notify(string, sim.Severity) {}

var (
	_ sim.Renderer = NopRenderer{}
	_ sim.Renderer = (*LogRenderer)(nil)
	_ sim.Feedback = NopFeedback{}
	_ sim.Feedback = (*LogFeedback)(nil)
	_ sim.Feedback = (*Console)(nil)
	_ sim.Feedback = Feedbacks(nil)
)
