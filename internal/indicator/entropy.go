package indicator

import (
	"fmt"
	"math"

	"github.com/amirphl/simple-ta/internal/series"
)

const DefaultEntropyLength = 10

// CalculateEntropy computes the rolling Shannon entropy (base 2):
//
//	p       = close / SUM(close, length)
//	ENTROPY = -SUM(p * log2(p), length)
//
// Both sums need a full window, so the first value appears at index
// 2*length-2. Zero or negative prices produce NaN.
func CalculateEntropy(close []float64, length int, opts series.Options) (series.Result, error) {
	if err := series.Validate("ENTROPY", close); err != nil {
		return series.Result{}, err
	}
	length = positiveOr(length, DefaultEntropyLength)

	w := series.Rolling(length)
	total := w.Sum(close)
	plogp := make([]float64, len(close))
	for i := range close {
		p := series.Div(close[i], total[i])
		plogp[i] = p * math.Log2(p)
	}

	ent := w.Sum(plogp)
	for i := range ent {
		ent[i] = -ent[i]
	}

	return series.Result{
		Name:     fmt.Sprintf("ENTROPY_%d", length),
		Category: series.Statistics,
		Values:   opts.Apply(ent),
	}, nil
}
