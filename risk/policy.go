package risk

// Policy holds the limits applied when opening positions.
type Policy struct {
	MaxRiskPct       float64 // per trade, percent of equity (2 = 2%)
	MinATRMultiplier float64
	MinRewardMargin  float64 // target distance must exceed stop by this fraction
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRiskPct:       2,
		MinATRMultiplier: 0.5,
		MinRewardMargin:  0.01,
	}
}
