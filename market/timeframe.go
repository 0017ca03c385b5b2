package market

import (
	"fmt"
	"time"
)

// timeframes maps the supported bar timeframe names to seconds.
var timeframes = []struct {
	name string
	sec  int64
}{
	{"S30", 30},
	{"M1", 60},
	{"M5", 300},
	{"M15", 900},
	{"M30", 1800},
	{"H1", 3600},
	{"H4", 14400},
	{"D1", 86400},
}

func TFStringToSeconds(tf string) (int64, error) {
	for _, t := range timeframes {
		if t.name == tf {
			return t.sec, nil
		}
	}
	return 0, fmt.Errorf("unsupported timeframe string: %s", tf)
}

func SecondsToTFString(sec int64) (string, error) {
	for _, t := range timeframes {
		if t.sec == sec {
			return t.name, nil
		}
	}
	return "", fmt.Errorf("unsupported timeframe: %d seconds", sec)
}

// AlignTime floors t to the start of its timeframe bucket.
func AlignTime(t time.Time, tf int64) int64 {
	u := t.UTC().Unix()
	if tf <= 0 {
		return u
	}
	return u - u%tf
}
