// Package indicators provides technical analysis indicators for trading
package indicators

import "errors"

// ErrInsufficientData is returned when a window is too short for the period.
var ErrInsufficientData = errors.New("insufficient data")

// Names used when publishing indicator values.
const (
	NameATR = "ATR"
	NameSMA = "SMA"
)

// Point is one published indicator value.
type Point struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}
