package strategies

import (
	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/sim"
)

// OpenOnce opens a single position on the first bar it can and then leaves
// the market alone.
type OpenOnce struct {
	Config
	Side int // +1 long, -1 short

	opened bool
	id     int64
	err    error
}

func NewOpenOnce(cfg Config, side int) *OpenOnce {
	return &OpenOnce{Config: cfg, Side: side}
}

func (s *OpenOnce) Name() string { return "open-once" }

func (s *OpenOnce) OnBar(e *sim.Engine, _ market.Bar) {
	if s.opened {
		return
	}
	req, ok := s.order(e, s.Side)
	if !ok {
		return
	}
	p, err := e.Open(req)
	if err != nil {
		s.err = err
		return
	}
	s.opened, s.id, s.err = true, p.ID, nil
}

// PositionID is the ID of the opened position, 0 before it opens.
func (s *OpenOnce) PositionID() int64 { return s.id }

// Err is the last open failure.
func (s *OpenOnce) Err() error { return s.err }
