package risk

import (
	"fmt"
	"math"
)

// Rejection codes. Every failed open/modify/close carries exactly one.
const (
	CodeInvalidRisk       = "INVALID_RISK"
	CodeRiskTooHigh       = "RISK_TOO_HIGH"
	CodeRiskExceedsEquity = "RISK_EXCEEDS_EQUITY"
	CodeNoEquity          = "NO_EQUITY"

	CodeInvalidOrder       = "INVALID_ORDER"
	CodeSizeTooSmall       = "SIZE_TOO_SMALL"
	CodeStopTooClose       = "STOP_TOO_CLOSE"
	CodeTargetTooClose     = "TARGET_TOO_CLOSE"
	CodeATRUnavailable     = "ATR_UNAVAILABLE"
	CodeMultiplierTooSmall = "ATR_MULTIPLIER_TOO_SMALL"
	CodeTargetNotBeyond    = "TARGET_NOT_BEYOND_STOP"
	CodeMarketClosed       = "MARKET_CLOSED"
	CodeSessionOver        = "SESSION_OVER"
	CodeNotFound           = "POSITION_NOT_FOUND"
	CodeInvalidStop        = "INVALID_STOP"
	CodeInvalidTarget      = "INVALID_TARGET"
	CodeNoChange           = "NO_CHANGE"
	CodeInvalidUnits       = "INVALID_UNITS"
)

// Violation is a rejected request. It is returned as an error and never
// leaves state modified.
type Violation struct {
	Code string
	Msg  string
}

func (v *Violation) Error() string {
	return v.Code + ": " + v.Msg
}

// Reject builds a Violation with a formatted message.
func Reject(code, format string, args ...any) *Violation {
	return &Violation{Code: code, Msg: fmt.Sprintf(format, args...)}
}

type Decision struct {
	Allowed   bool
	Violation *Violation
}

// Validate checks a computed exposure against the per-trade limit. Checks run
// in priority order and the first failure wins.
func Validate(amount, percent, equity, maxRiskPct float64) Decision {
	switch {
	case math.IsNaN(amount) || amount <= 0:
		return Decision{Violation: Reject(CodeInvalidRisk, "risk amount must be positive")}
	case percent > maxRiskPct:
		return Decision{Violation: Reject(CodeRiskTooHigh,
			"planned risk %.2f%% exceeds max %.2f%%", percent, maxRiskPct)}
	case amount >= equity:
		return Decision{Violation: Reject(CodeRiskExceedsEquity,
			"risk %.2f would consume equity %.2f", amount, equity)}
	case equity <= 0:
		return Decision{Violation: Reject(CodeNoEquity, "equity %.2f is not positive", equity)}
	}
	return Decision{Allowed: true}
}
