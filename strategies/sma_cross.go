package strategies

import (
	"errors"

	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/risk"
	"github.com/rustyeddy/tradesim/sim"
)

// SMACross trades the close crossing the engine's SMA.
//   - Enters only on a cross
//   - Reverses on the opposite cross (close then open)
//   - Stops and targets come from Config; sizing from RiskPct
type SMACross struct {
	Config

	lastDiff     float64
	haveLastDiff bool

	openID  int64
	openDir int // +1 long, -1 short

	signals int
	err     error
}

func NewSMACross(cfg Config) *SMACross {
	return &SMACross{Config: cfg}
}

func (s *SMACross) Name() string { return "sma-cross" }

// syncOpenState forgets the tracked position once the engine has closed it
// on a stop or target.
func (s *SMACross) syncOpenState(e *sim.Engine) {
	if s.openID == 0 {
		return
	}
	if _, ok := e.Position(s.openID); !ok {
		s.openID, s.openDir = 0, 0
	}
}

func (s *SMACross) OnBar(e *sim.Engine, bar market.Bar) {
	ind := e.Indicators()
	if !ind.SMAReady {
		return
	}
	diff := bar.Close - ind.SMA

	// Need a previous diff to detect a cross.
	if !s.haveLastDiff {
		s.lastDiff, s.haveLastDiff = diff, true
		return
	}

	bullCross := diff > 0 && s.lastDiff <= 0
	bearCross := diff < 0 && s.lastDiff >= 0
	s.lastDiff = diff

	switch {
	case bullCross:
		s.err = s.onSignal(e, +1)
	case bearCross:
		s.err = s.onSignal(e, -1)
	}
}

func (s *SMACross) onSignal(e *sim.Engine, dir int) error {
	s.signals++
	s.syncOpenState(e)

	if s.openID != 0 {
		if s.openDir == dir {
			return nil
		}
		if _, err := e.Close(s.openID, nil); err != nil {
			var v *risk.Violation
			if !errors.As(err, &v) || v.Code != risk.CodeNotFound {
				return err
			}
		}
		s.openID, s.openDir = 0, 0
	}

	req, ok := s.order(e, dir)
	if !ok {
		return nil
	}
	p, err := e.Open(req)
	if err != nil {
		return err
	}
	s.openID, s.openDir = p.ID, dir
	return nil
}

// Signals counts the crosses seen so far.
func (s *SMACross) Signals() int { return s.signals }

// Err is the error of the most recent signal, if any.
func (s *SMACross) Err() error { return s.err }
