package indicator

import (
	"fmt"
	"strconv"

	"github.com/amirphl/simple-ta/internal/series"
)

const (
	// DefaultCCILength is 21; some references quote 20.
	DefaultCCILength   = 21
	DefaultCCIConstant = 0.015
)

// CalculateCCI computes the Commodity Channel Index.
//
//	tp  = (high + low + close) / 3
//	CCI = (tp - SMA(tp, length)) / (c * MAD(tp, length))
//
// Defaults: length 21, c 0.015. A zero MAD yields NaN.
func CalculateCCI(high, low, close []float64, length int, c float64, opts series.Options) (series.Result, error) {
	if err := series.Validate("CCI", high, low, close); err != nil {
		return series.Result{}, err
	}
	length = positiveOr(length, DefaultCCILength)
	if !(c > 0) {
		c = DefaultCCIConstant
	}

	return series.Result{
		Name:     fmt.Sprintf("CCI_%d_%s", length, strconv.FormatFloat(c, 'f', -1, 64)),
		Category: series.Momentum,
		Values:   opts.Apply(cci(high, low, close, length, c)),
	}, nil
}

func cci(high, low, close []float64, length int, c float64) []float64 {
	tp := typicalPrice(high, low, close)
	w := series.Rolling(length)
	mean := w.Mean(tp)
	mad := w.MAD(tp)

	out := make([]float64, len(tp))
	for i := range tp {
		out[i] = series.Div(tp[i]-mean[i], c*mad[i])
	}
	return out
}

// typicalPrice is hlc3.
func typicalPrice(high, low, close []float64) []float64 {
	out := make([]float64, len(close))
	for i := range close {
		out[i] = (high[i] + low[i] + close[i]) / 3
	}
	return out
}
