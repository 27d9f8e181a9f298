package indicator

import (
	"fmt"

	"github.com/amirphl/simple-ta/internal/series"
)

const DefaultBiasLength = 30

// CalculateBias computes the relative deviation of close from its SMA:
// (close - SMA(close, length)) / SMA(close, length).
// Lengths below 2 fall back to 30.
func CalculateBias(close []float64, length int, opts series.Options) (series.Result, error) {
	if err := series.Validate("BIAS", close); err != nil {
		return series.Result{}, err
	}
	length = greaterThanOneOr(length, DefaultBiasLength)

	mean := series.Rolling(length).Mean(close)
	out := make([]float64, len(close))
	for i := range close {
		out[i] = series.Div(close[i]-mean[i], mean[i])
	}

	return series.Result{
		Name:     fmt.Sprintf("BIAS_%d", length),
		Category: series.Statistics,
		Values:   opts.Apply(out),
	}, nil
}
