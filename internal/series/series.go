// Package series holds the numeric sequence model shared by all indicators.
// A sequence is a plain []float64 where the position is the time index and
// math.NaN() marks a missing value.
package series

import "math"

// Category groups indicators for downstream bookkeeping.
type Category string

const (
	Momentum   Category = "momentum"
	Statistics Category = "statistics"
	Overlap    Category = "overlap"
)

// Result is a single named output sequence.
type Result struct {
	Name     string    `json:"name"`
	Category Category  `json:"category"`
	Values   []float64 `json:"values"`
}

// Last returns the last value of the result, or NaN if it is empty.
func (r Result) Last() float64 {
	if len(r.Values) == 0 {
		return math.NaN()
	}
	return r.Values[len(r.Values)-1]
}

// Frame is an ordered collection of results produced by one indicator call.
type Frame struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Columns  []Result `json:"columns"`
}

// Single wraps a single result in a frame named after it.
func Single(r Result) Frame {
	return Frame{Name: r.Name, Category: r.Category, Columns: []Result{r}}
}

// Column returns the column with the given name.
func (f Frame) Column(name string) (Result, bool) {
	for _, c := range f.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Result{}, false
}

// Len returns the length shared by all columns.
func (f Frame) Len() int {
	if len(f.Columns) == 0 {
		return 0
	}
	return len(f.Columns[0].Values)
}

// NaNs returns a sequence of n missing values.
func NaNs(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Div divides a by b, returning NaN instead of an infinity when b is zero.
func Div(a, b float64) float64 {
	if b == 0 {
		return math.NaN()
	}
	return a / b
}

// IsMissing reports whether v is a missing value.
func IsMissing(v float64) bool { return math.IsNaN(v) }
