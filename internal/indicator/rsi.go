package indicator

import (
	"fmt"
	"math"

	"github.com/amirphl/simple-ta/internal/series"
)

const (
	DefaultRSILength = 14
	DefaultRSIDrift  = 1
)

// CalculateRSI computes the Relative Strength Index.
//
//	positive = max(close.diff(drift), 0), negative = min(close.diff(drift), 0)
//	RSI = 100 * EWM(positive) / (EWM(positive) + |EWM(negative)|)
//
// The EWM uses center of mass = length. Defaults: length 14, drift 1.
func CalculateRSI(close []float64, length, drift int, opts series.Options) (series.Result, error) {
	if err := series.Validate("RSI", close); err != nil {
		return series.Result{}, err
	}
	length = positiveOr(length, DefaultRSILength)
	drift = positiveOr(drift, DefaultRSIDrift)

	return series.Result{
		Name:     fmt.Sprintf("RSI_%d", length),
		Category: series.Momentum,
		Values:   opts.Apply(rsi(close, length, drift)),
	}, nil
}

func rsi(close []float64, length, drift int) []float64 {
	diff := series.Diff(close, drift)
	positive := make([]float64, len(diff))
	negative := make([]float64, len(diff))
	for i, d := range diff {
		positive[i], negative[i] = d, d
		if d < 0 {
			positive[i] = 0
		}
		if d > 0 {
			negative[i] = 0
		}
	}

	posAvg := series.EWMMean(positive, float64(length))
	negAvg := series.EWMMean(negative, float64(length))

	out := make([]float64, len(close))
	for i := range out {
		neg := math.Abs(negAvg[i])
		out[i] = series.Div(100*posAvg[i], posAvg[i]+neg)
	}
	return out
}
