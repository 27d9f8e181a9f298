package indicator

import (
	"fmt"

	"github.com/amirphl/simple-ta/internal/series"
)

const (
	DefaultStochFastK = 14
	DefaultStochFastD = 5
	DefaultStochSlowD = 3
)

// CalculateStoch calculates the Stochastic Oscillator.
//
//	lowest_low   = rolling min(low, fastK)
//	highest_high = rolling max(high, fastK)
//	FASTK = 100 * (close - lowest_low) / (highest_high - lowest_low)
//	FASTD = SMA(FASTK, fastD)
//	SLOWD = SMA(FASTD, slowD)
//
// A flat range (highest_high == lowest_low) yields NaN.
// Defaults: fastK 14, fastD 5, slowD 3.
func CalculateStoch(high, low, close []float64, fastK, fastD, slowD int, opts series.Options) (series.Frame, error) {
	if err := series.Validate("STOCH", high, low, close); err != nil {
		return series.Frame{}, err
	}
	fastK = positiveOr(fastK, DefaultStochFastK)
	fastD = positiveOr(fastD, DefaultStochFastD)
	slowD = positiveOr(slowD, DefaultStochSlowD)

	lowest := series.Rolling(fastK).Min(low)
	highest := series.Rolling(fastK).Max(high)

	fastk := make([]float64, len(close))
	for i := range close {
		fastk[i] = series.Div(100*(close[i]-lowest[i]), highest[i]-lowest[i])
	}
	fastd := series.Rolling(fastD).Mean(fastk)
	slowd := series.Rolling(slowD).Mean(fastd)

	frame := series.Frame{
		Name:     fmt.Sprintf("STOCH_%d_%d_%d", fastK, fastD, slowD),
		Category: series.Momentum,
		Columns: []series.Result{
			{Name: fmt.Sprintf("STOCHF_%d", fastK), Category: series.Momentum, Values: fastk},
			{Name: fmt.Sprintf("STOCHF_%d", fastD), Category: series.Momentum, Values: fastd},
			{Name: fmt.Sprintf("STOCH_%d", slowD), Category: series.Momentum, Values: slowd},
		},
	}
	opts.ApplyFrame(&frame)
	return frame, nil
}

// stochasticOf normalizes base into its rolling [min, max] range over length
// and smooths it into %K and %D.
func stochasticOf(base []float64, length, smoothK, smoothD int) (k, d []float64) {
	lowest := series.Rolling(length).Min(base)
	highest := series.Rolling(length).Max(base)

	stoch := make([]float64, len(base))
	for i := range base {
		stoch[i] = series.Div(100*(base[i]-lowest[i]), highest[i]-lowest[i])
	}
	k = series.Rolling(smoothK).Mean(stoch)
	d = series.Rolling(smoothD).Mean(k)
	return k, d
}
