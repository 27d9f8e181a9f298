// Package indicator provides technical analysis indicators over numeric series.
//
// Every Calculate* function is a pure transform: inputs are never modified,
// outputs have the input's length, missing values are NaN, and invalid
// scalar parameters fall back to their documented defaults.
package indicator

import (
	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/amirphl/simple-ta/internal/series"
)

// Indicator is a configured indicator that can be run over candle columns.
type Indicator interface {
	Name() string
	Calculate(data candle.Columns) (series.Frame, error)
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// greaterThanOneOr accepts only lengths above one.
func greaterThanOneOr(v, def int) int {
	if v > 1 {
		return v
	}
	return def
}
