package indicators

import "github.com/rustyeddy/tradesim/market"

// Window is a bounded FIFO of the most recent bars.
type Window struct {
	size int
	bars []market.Bar
}

// WindowSize is the capacity needed to compute both indicators plus margin.
func WindowSize(atrPeriod, smaPeriod, margin int) int {
	n := atrPeriod + 1
	if smaPeriod > n {
		n = smaPeriod
	}
	if margin > 0 {
		n += margin
	}
	return n
}

func NewWindow(size int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{size: size, bars: make([]market.Bar, 0, size)}
}

// Push appends b and evicts the oldest bar once the window is full.
func (w *Window) Push(b market.Bar) {
	if len(w.bars) == w.size {
		copy(w.bars, w.bars[1:])
		w.bars = w.bars[:len(w.bars)-1]
	}
	w.bars = append(w.bars, b)
}

// Bars returns the window contents, oldest first. The slice is only valid
// until the next Push.
func (w *Window) Bars() []market.Bar { return w.bars }

func (w *Window) Len() int  { return len(w.bars) }
func (w *Window) Size() int { return w.size }

// Last returns the newest bar.
func (w *Window) Last() (market.Bar, bool) {
	if len(w.bars) == 0 {
		return market.Bar{}, false
	}
	return w.bars[len(w.bars)-1], true
}

func (w *Window) Reset() {
	w.bars = w.bars[:0]
}
