package strategies

import (
	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/sim"
)

// Noop does nothing.
type Noop struct{}

func (Noop) Name() string                  { return "noop" }
func (Noop) OnBar(*sim.Engine, market.Bar) {}
