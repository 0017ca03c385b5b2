package pricing

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/rustyeddy/tradesim/market"
)

const (
	// DefaultDriftRatio is the share of a bar's move that is directional drift.
	DefaultDriftRatio = 0.10

	// DefaultMarketBias shifts the center of the drift draw. Negative values
	// lean the series down; zero is an unbiased walk.
	DefaultMarketBias = -0.005

	DefaultWickRatio  = 0.5
	DefaultSeedJitter = 0.005
)

// Source is the random input of the generator. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSeeded returns a reproducible source for seed.
func NewSeeded(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Config tunes the synthetic walk. Timeframe is the bar duration in seconds.
type Config struct {
	Timeframe  int64
	DriftRatio float64
	MarketBias float64
	WickRatio  float64
	SeedJitter float64
}

func DefaultConfig() Config {
	return Config{
		Timeframe:  60,
		DriftRatio: DefaultDriftRatio,
		MarketBias: DefaultMarketBias,
		WickRatio:  DefaultWickRatio,
		SeedJitter: DefaultSeedJitter,
	}
}

// Generator produces synthetic OHLC bars for one asset.
type Generator struct {
	asset market.Asset
	cfg   Config
	src   Source
	now   func() time.Time
}

func NewGenerator(asset market.Asset, cfg Config, src Source) *Generator {
	if cfg.Timeframe <= 0 {
		cfg.Timeframe = 60
	}
	if cfg.WickRatio < 0 {
		cfg.WickRatio = 0
	}
	if src == nil {
		src = NewSeeded(uint64(time.Now().UnixNano()))
	}
	return &Generator{asset: asset, cfg: cfg, src: src, now: time.Now}
}

// WithClock replaces the wall clock used to time the first bar of a series.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Now returns the generator's current time.
func (g *Generator) Now() time.Time { return g.now() }

func (g *Generator) Asset() market.Asset { return g.asset }
func (g *Generator) Timeframe() int64    { return g.cfg.Timeframe }

// Volatility scales the per-minute factor by sqrt(duration/60) for bars
// longer than a minute.
func (g *Generator) Volatility() float64 {
	if g.cfg.Timeframe > 60 {
		return g.asset.Volatility * math.Sqrt(float64(g.cfg.Timeframe)/60)
	}
	return g.asset.Volatility
}

// Next builds the bar that follows prev. A nil prev starts a new series from
// the asset's base price. at overrides the bar time when it moves forward.
func (g *Generator) Next(prev *market.Bar, at *int64) market.Bar {
	tf := g.cfg.Timeframe
	vol := g.Volatility()

	var open float64
	var t int64
	if prev == nil {
		open = g.asset.BasePrice * (1 + (2*g.src.Float64()-1)*g.cfg.SeedJitter)
		t = market.AlignTime(g.now(), tf)
	} else {
		open = prev.Close
		t = prev.Time + tf
	}
	if at != nil && (prev == nil || *at > prev.Time) {
		t = *at
	}

	drift := g.cfg.DriftRatio * vol * 2 * (g.src.Float64() - 0.5 + g.cfg.MarketBias)
	noise := (1 - g.cfg.DriftRatio) * vol * 2 * (g.src.Float64() - 0.5)
	cl := open + drift + noise

	rng := math.Abs(cl - open)
	if floor := vol * 0.1; rng < floor {
		rng = floor
	}
	high := math.Max(open, cl) + g.cfg.WickRatio*rng*g.src.Float64()
	low := math.Min(open, cl) - g.cfg.WickRatio*rng*g.src.Float64()

	return g.finish(t, open, high, low, cl)
}

// Series generates n consecutive bars spaced one timeframe apart, the last
// one opening at end.
func (g *Generator) Series(n int, end int64) []market.Bar {
	if n <= 0 {
		return nil
	}
	out := make([]market.Bar, 0, n)
	var prev *market.Bar
	for i := 0; i < n; i++ {
		at := end - int64(n-1-i)*g.cfg.Timeframe
		b := g.Next(prev, &at)
		out = append(out, b)
		prev = &out[len(out)-1]
	}
	return out
}

func (g *Generator) finish(t int64, open, high, low, cl float64) market.Bar {
	fix := func(x float64) float64 {
		return g.asset.RoundPrice(math.Max(x, g.asset.PipSize))
	}
	b := market.Bar{Time: t, Open: fix(open), High: fix(high), Low: fix(low), Close: fix(cl)}

	lo := math.Min(b.Open, b.Close)
	hi := math.Max(b.Open, b.Close)
	if b.Low > lo {
		b.Low = lo
	}
	if b.High < math.Max(hi, b.Low) {
		b.High = math.Max(hi, b.Low)
	}
	return b
}
