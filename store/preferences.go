package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Preferences are the user's last-used trading ticket settings.
type Preferences struct {
	Asset     string  `json:"asset"`
	Timeframe string  `json:"timeframe"`
	Method    string  `json:"method"` // pips or atr
	Units     float64 `json:"units"`
	Stop      float64 `json:"stop"`
	Target    float64 `json:"target"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Asset:     "EUR_USD",
		Timeframe: "M1",
		Method:    "pips",
		Units:     10000,
		Stop:      10,
		Target:    20,
	}
}

// LoadPreferences returns the stored preferences, or defaults when none are
// stored. On error the defaults are returned alongside it.
func LoadPreferences(bs BlobStore) (Preferences, error) {
	p := DefaultPreferences()
	if _, err := LoadJSON(bs, KeyPreferences, &p); err != nil {
		return DefaultPreferences(), err
	}
	return p, nil
}

func SavePreferences(bs BlobStore, p Preferences) error {
	return SaveJSON(bs, KeyPreferences, p)
}

// Set assigns a single field by its json name.
func (p *Preferences) Set(field, value string) error {
	parseF := func() (float64, error) {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", field, err)
		}
		if v <= 0 {
			return 0, fmt.Errorf("%s must be > 0", field)
		}
		return v, nil
	}

	var err error
	switch strings.ToLower(field) {
	case "asset":
		p.Asset = strings.ToUpper(value)
	case "timeframe":
		p.Timeframe = strings.ToUpper(value)
	case "method":
		m := strings.ToLower(value)
		if m != "pips" && m != "atr" {
			return fmt.Errorf("method must be pips or atr, got %q", value)
		}
		p.Method = m
	case "units":
		p.Units, err = parseF()
	case "stop":
		p.Stop, err = parseF()
	case "target":
		p.Target, err = parseF()
	default:
		return fmt.Errorf("unknown preference %q", field)
	}
	return err
}
