package indicator

import (
	"fmt"
	"math"

	"github.com/amirphl/simple-ta/internal/series"
)

const DefaultTurningPointsLength = 30

// CalculateTurningPoints counts local extrema of vwap within each trailing
// window. Index i is an extremum when vw[i-1] < vw[i] > vw[i+1] or
// vw[i-1] > vw[i] < vw[i+1]; the first and last index never are.
// Lengths below 2 fall back to 30.
func CalculateTurningPoints(vwap []float64, length int, opts series.Options) (series.Result, error) {
	if err := series.Validate("TURNINGPOINT", vwap); err != nil {
		return series.Result{}, err
	}
	length = greaterThanOneOr(length, DefaultTurningPointsLength)

	flags := make([]float64, len(vwap))
	for i := 1; i < len(vwap)-1; i++ {
		prev, cur, next := vwap[i-1], vwap[i], vwap[i+1]
		if (prev < cur && next < cur) || (prev > cur && next > cur) {
			flags[i] = 1
		}
	}

	return series.Result{
		Name:     fmt.Sprintf("TURNINGPOINT_%d", length),
		Category: series.Statistics,
		Values:   opts.Apply(series.Rolling(length).Sum(flags)),
	}, nil
}

// CalculateVWAP computes the cumulative volume weighted average of hlc3.
// Bars with a missing value are skipped and reported as NaN.
func CalculateVWAP(high, low, close, volume []float64) ([]float64, error) {
	if err := series.Validate("VWAP", high, low, close, volume); err != nil {
		return nil, err
	}

	tp := typicalPrice(high, low, close)
	out := make([]float64, len(tp))
	var pv, vol float64
	for i := range tp {
		if series.IsMissing(tp[i]) || series.IsMissing(volume[i]) {
			out[i] = math.NaN()
			continue
		}
		pv += tp[i] * volume[i]
		vol += volume[i]
		out[i] = series.Div(pv, vol)
	}
	return out, nil
}

// CalculateTurningPointsOHLCV derives VWAP from the bars and counts its turning points.
func CalculateTurningPointsOHLCV(high, low, close, volume []float64, length int, opts series.Options) (series.Result, error) {
	vw, err := CalculateVWAP(high, low, close, volume)
	if err != nil {
		return series.Result{}, fmt.Errorf("turning points: %w", err)
	}
	return CalculateTurningPoints(vw, length, opts)
}
