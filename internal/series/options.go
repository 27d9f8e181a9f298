package series

import "math"

// FillKind selects how missing output values are filled.
type FillKind int

const (
	FillNone FillKind = iota
	FillConstant
	FillForward
	FillBackward
)

func (k FillKind) String() string {
	switch k {
	case FillConstant:
		return "constant"
	case FillForward:
		return "ffill"
	case FillBackward:
		return "bfill"
	default:
		return "none"
	}
}

// FillPolicy is applied to an indicator output after the offset shift.
// Value is only meaningful for FillConstant.
type FillPolicy struct {
	Kind  FillKind
	Value float64
}

// FillWith returns a policy replacing missing values with v.
func FillWith(v float64) FillPolicy { return FillPolicy{Kind: FillConstant, Value: v} }

// ForwardFill returns a policy propagating the last valid value.
func ForwardFill() FillPolicy { return FillPolicy{Kind: FillForward} }

// BackwardFill returns a policy propagating the next valid value.
func BackwardFill() FillPolicy { return FillPolicy{Kind: FillBackward} }

// Options is the post-processing shared by every indicator.
type Options struct {
	Offset int
	Fill   FillPolicy
}

// Apply shifts values by the offset and then fills missing values.
// The input is not modified.
func (o Options) Apply(values []float64) []float64 {
	return Fill(Shift(values, o.Offset), o.Fill)
}

// ApplyFrame applies the options to every column of f in place.
func (o Options) ApplyFrame(f *Frame) {
	for i := range f.Columns {
		f.Columns[i].Values = o.Apply(f.Columns[i].Values)
	}
}

// Shift moves values k steps later in time (k > 0) or earlier (k < 0).
// The vacated |k| positions are NaN.
func Shift(values []float64, k int) []float64 {
	n := len(values)
	out := make([]float64, n)
	if k == 0 {
		copy(out, values)
		return out
	}
	for i := range out {
		j := i - k
		if j < 0 || j >= n {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[j]
	}
	return out
}

// Fill returns a copy of values with missing entries filled per policy.
func Fill(values []float64, p FillPolicy) []float64 {
	out := make([]float64, len(values))
	copy(out, values)

	switch p.Kind {
	case FillConstant:
		for i, v := range out {
			if math.IsNaN(v) {
				out[i] = p.Value
			}
		}
	case FillForward:
		last := math.NaN()
		for i, v := range out {
			if math.IsNaN(v) {
				out[i] = last
			} else {
				last = v
			}
		}
	case FillBackward:
		next := math.NaN()
		for i := len(out) - 1; i >= 0; i-- {
			if math.IsNaN(out[i]) {
				out[i] = next
			} else {
				next = out[i]
			}
		}
	}
	return out
}
