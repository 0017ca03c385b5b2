// Package strategies holds bar-driven auto-trading strategies. A strategy is
// installed on an engine as its bar listener.
package strategies

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/risk"
	"github.com/rustyeddy/tradesim/sim"
)

// Strategy reacts to every completed tick of an engine.
type Strategy interface {
	sim.BarListener
	Name() string
}

// Config is the order template shared by the strategies. When RiskPct is set
// the size is derived from equity and the stop distance, otherwise Units is
// used as is.
type Config struct {
	Method  sim.Method
	Stop    float64
	Target  float64
	RiskPct float64
	Units   float64
}

func DefaultConfig() Config {
	return Config{Method: sim.MethodATR, Stop: 1.5, Target: 3, RiskPct: 1}
}

// order builds a request for side sized against the engine's current state.
// It returns false when no size can be computed.
func (c Config) order(e *sim.Engine, side int) (sim.OrderRequest, bool) {
	req := sim.OrderRequest{Method: c.Method, Stop: c.Stop, Target: c.Target, Units: c.Units}
	req.Side = market.Buy
	if side < 0 {
		req.Side = market.Sell
	}
	if c.RiskPct <= 0 {
		return req, req.Units > 0
	}

	a := e.Asset()
	stopPips := c.Stop
	if c.Method == sim.MethodATR {
		ind := e.Indicators()
		if !ind.ATRReady {
			return req, false
		}
		stopPips = math.Max(a.PriceToPips(ind.ATR*c.Stop), a.MinStopPips)
	}
	req.Units = risk.SizeForRisk(e.Account().Equity, c.RiskPct, stopPips, a)
	return req, req.Units > 0
}

var constructors = map[string]func(Config) Strategy{
	"noop":      func(Config) Strategy { return Noop{} },
	"open-once": func(c Config) Strategy { return NewOpenOnce(c, 1) },
	"sma-cross": func(c Config) Strategy { return NewSMACross(c) },
}

// Names lists the registered strategy names.
func Names() []string {
	out := make([]string, 0, len(constructors))
	for n := range constructors {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func StrategyByName(name string, cfg Config) (Strategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "none":
		n = "noop"
	case "smacross", "sma":
		n = "sma-cross"
	}
	ctor, ok := constructors[n]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return ctor(cfg), nil
}
