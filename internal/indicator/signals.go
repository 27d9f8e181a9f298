package indicator

import (
	"math"
	"strings"

	"github.com/amirphl/simple-ta/internal/series"
)

const (
	StochasticOverbought = 80.0
	StochasticOversold   = 20.0
)

const (
	RSIOverbought = 70.0
	RSIOversold   = 30.0
)

// Zone labels used by Zone and StochSignal.
const (
	ZoneOverbought = "overbought"
	ZoneOversold   = "oversold"
	ZoneNeutral    = "neutral"
)

// Crossover labels used by StochSignal.
const (
	SignalBullishCross = "bullish crossover"
	SignalBearishCross = "bearish crossover"
)

// both %K and %D above the upper band
func stochOverbought(k, d float64) bool {
	return k > StochasticOverbought && d > StochasticOverbought
}

func stochOversold(k, d float64) bool {
	return k < StochasticOversold && d < StochasticOversold
}

// %K moved from at or below %D to above it
func crossedUp(prevK, prevD, k, d float64) bool {
	return prevK <= prevD && k > d
}

func crossedDown(prevK, prevD, k, d float64) bool {
	return prevK >= prevD && k < d
}

// StochSignal reads the last two rows of a %K/%D pair. A crossover on the
// last row wins over the band the pair sits in. It returns "" when either of
// the last two rows is missing or nothing fired.
func StochSignal(k, d []float64) string {
	n := min(len(k), len(d))
	if n < 2 {
		return ""
	}
	pk, pd, ck, cd := k[n-2], d[n-2], k[n-1], d[n-1]
	if math.IsNaN(pk) || math.IsNaN(pd) || math.IsNaN(ck) || math.IsNaN(cd) {
		return ""
	}

	switch {
	case crossedUp(pk, pd, ck, cd):
		return SignalBullishCross
	case crossedDown(pk, pd, ck, cd):
		return SignalBearishCross
	case stochOverbought(ck, cd):
		return ZoneOverbought
	case stochOversold(ck, cd):
		return ZoneOversold
	}
	return ""
}

// KD returns the %K and %D columns of a stochastic frame. For STOCH the slow
// pair is used: the smoothed fast %D as %K and its SMA as %D.
func KD(f series.Frame) (k, d series.Result, ok bool) {
	switch {
	case strings.HasPrefix(f.Name, "STOCH_") && len(f.Columns) == 3:
		return f.Columns[1], f.Columns[2], true
	case strings.HasPrefix(f.Name, "Stoch_") && len(f.Columns) == 2:
		return f.Columns[0], f.Columns[1], true
	}
	return series.Result{}, series.Result{}, false
}

// Zone classifies the value of a bounded oscillator column by its name.
// It returns "" for missing values and for unbounded columns.
func Zone(column string, v float64) string {
	if math.IsNaN(v) {
		return ""
	}

	var upper, lower float64
	switch {
	case strings.HasPrefix(column, "RSI_"):
		upper, lower = RSIOverbought, RSIOversold
	case strings.HasPrefix(column, "STOCH"):
		upper, lower = StochasticOverbought, StochasticOversold
	default:
		return ""
	}

	switch {
	case v > upper:
		return ZoneOverbought
	case v < lower:
		return ZoneOversold
	default:
		return ZoneNeutral
	}
}
