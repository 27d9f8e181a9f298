package indicator

import (
	"fmt"

	"github.com/amirphl/simple-ta/internal/series"
)

const (
	DefaultStochLength  = 14
	DefaultStochSmoothK = 3
	DefaultStochSmoothD = 3
)

// CalculateStochRSI measures RSI relative to its own high/low range:
//
//	STOCH = 100 * (RSI - min(RSI, length)) / (max(RSI, length) - min(RSI, length))
//	K = SMA(STOCH, smoothK), D = SMA(K, smoothD)
//
// RSI is computed with the same length and the given drift.
// Defaults: length 14, smoothK 3, smoothD 3, drift 1.
func CalculateStochRSI(close []float64, length, smoothK, smoothD, drift int, opts series.Options) (series.Frame, error) {
	if err := series.Validate("STOCH_RSI", close); err != nil {
		return series.Frame{}, err
	}
	length = positiveOr(length, DefaultStochLength)
	smoothK = positiveOr(smoothK, DefaultStochSmoothK)
	smoothD = positiveOr(smoothD, DefaultStochSmoothD)
	drift = positiveOr(drift, DefaultRSIDrift)

	k, d := stochasticOf(rsi(close, length, drift), length, smoothK, smoothD)
	frame := stochFrame("RSI", k, d, length, smoothK, smoothD)
	opts.ApplyFrame(&frame)
	return frame, nil
}

// CalculateStochCCI is CalculateStochRSI with CCI (constant 0.015) as the base oscillator.
func CalculateStochCCI(high, low, close []float64, length, smoothK, smoothD int, opts series.Options) (series.Frame, error) {
	if err := series.Validate("STOCH_CCI", high, low, close); err != nil {
		return series.Frame{}, err
	}
	length = positiveOr(length, DefaultStochLength)
	smoothK = positiveOr(smoothK, DefaultStochSmoothK)
	smoothD = positiveOr(smoothD, DefaultStochSmoothD)

	k, d := stochasticOf(cci(high, low, close, length, DefaultCCIConstant), length, smoothK, smoothD)
	frame := stochFrame("CCI", k, d, length, smoothK, smoothD)
	opts.ApplyFrame(&frame)
	return frame, nil
}

func stochFrame(base string, k, d []float64, length, smoothK, smoothD int) series.Frame {
	suffix := fmt.Sprintf("%d_%d_%d", smoothK, smoothD, length)
	return series.Frame{
		Name:     fmt.Sprintf("Stoch_%s_%s", base, suffix),
		Category: series.Momentum,
		Columns: []series.Result{
			{Name: fmt.Sprintf("STOCH_%s_K_%s", base, suffix), Category: series.Momentum, Values: k},
			{Name: fmt.Sprintf("STOCH_%s_D_%s", base, suffix), Category: series.Momentum, Values: d},
		},
	}
}
