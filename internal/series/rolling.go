package series

import (
	"math"

	"github.com/gammazero/deque"
)

// Window is a trailing rolling window ending at each index.
type Window struct {
	Length     int
	MinPeriods int
}

// Rolling returns a window of the given length that requires a full window
// of valid values before producing output.
func Rolling(length int) Window {
	if length < 1 {
		length = 1
	}
	return Window{Length: length, MinPeriods: length}
}

// WithMinPeriods returns a copy of w producing output once n valid values
// are in the window.
func (w Window) WithMinPeriods(n int) Window {
	w.MinPeriods = n
	return w
}

func (w Window) minPeriods() int {
	switch {
	case w.MinPeriods <= 0:
		return 1
	case w.MinPeriods > w.Length:
		return w.Length
	default:
		return w.MinPeriods
	}
}

// Sum returns the trailing sum of the valid values in each window.
func (w Window) Sum(x []float64) []float64 {
	return w.running(x,
		func(sum float64, _ int) float64 { return sum },
		func(v float64, count int) float64 { return v * float64(count) })
}

// Mean returns the trailing arithmetic mean.
func (w Window) Mean(x []float64) []float64 {
	return w.running(x,
		func(sum float64, count int) float64 { return sum / float64(count) },
		func(v float64, _ int) float64 { return v })
}

// kahan is a compensated running sum.
type kahan struct {
	sum, comp float64
}

func (k *kahan) add(v float64) {
	y := v - k.comp
	t := k.sum + y
	k.comp = (t - k.sum) - y
	k.sum = t
}

// running slides a compensated sum over x. When every value in the window is
// the same, flat gives the exact result; otherwise reduce does, clamped to 0
// when the sign disagrees with the sign of every value in the window.
func (w Window) running(x []float64, reduce, flat func(v float64, count int) float64) []float64 {
	out := make([]float64, len(x))
	minP := w.minPeriods()

	var acc kahan
	count, negatives := 0, 0
	var last float64
	same := 0 // run length of equal values among the most recent adds
	for i, v := range x {
		if !math.IsNaN(v) {
			acc.add(v)
			count++
			if v < 0 {
				negatives++
			}
			if same > 0 && v == last {
				same++
			} else {
				last, same = v, 1
			}
		}
		if j := i - w.Length; j >= 0 && !math.IsNaN(x[j]) {
			acc.add(-x[j])
			count--
			if x[j] < 0 {
				negatives--
			}
			if count == 0 {
				acc = kahan{}
			}
		}
		if count < minP {
			out[i] = math.NaN()
			continue
		}

		r := reduce(acc.sum, count)
		switch {
		case same >= count:
			r = flat(last, count)
		case negatives == 0 && r < 0:
			r = 0
		case negatives == count && r > 0:
			r = 0
		}
		out[i] = r
	}
	return out
}

// MAD returns the mean absolute deviation of each window from its own mean.
func (w Window) MAD(x []float64) []float64 {
	out := make([]float64, len(x))
	minP := w.minPeriods()
	buf := make([]float64, 0, w.Length)

	for i := range x {
		buf = buf[:0]
		for j := max(0, i-w.Length+1); j <= i; j++ {
			if !math.IsNaN(x[j]) {
				buf = append(buf, x[j])
			}
		}
		if len(buf) < minP {
			out[i] = math.NaN()
			continue
		}

		var mean float64
		for _, v := range buf {
			mean += v
		}
		mean /= float64(len(buf))

		var dev float64
		for _, v := range buf {
			dev += math.Abs(v - mean)
		}
		out[i] = dev / float64(len(buf))
	}
	return out
}

// Min returns the trailing minimum.
func (w Window) Min(x []float64) []float64 {
	return w.extreme(x, func(kept, v float64) bool { return kept < v })
}

// Max returns the trailing maximum.
func (w Window) Max(x []float64) []float64 {
	return w.extreme(x, func(kept, v float64) bool { return kept > v })
}

// extreme keeps a monotonic deque of indices whose values are still
// candidates for the window extreme; the front is always the answer.
func (w Window) extreme(x []float64, keep func(kept, v float64) bool) []float64 {
	out := make([]float64, len(x))
	minP := w.minPeriods()

	var q deque.Deque[int]
	count := 0
	for i, v := range x {
		if !math.IsNaN(v) {
			for q.Len() > 0 && !keep(x[q.Back()], v) {
				q.PopBack()
			}
			q.PushBack(i)
			count++
		}
		if j := i - w.Length; j >= 0 && !math.IsNaN(x[j]) {
			count--
		}
		for q.Len() > 0 && q.Front() <= i-w.Length {
			q.PopFront()
		}
		if count >= minP && q.Len() > 0 {
			out[i] = x[q.Front()]
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// EWMMean is the non-adjusted exponentially weighted mean with
// alpha = 1/(1+com). Leading missing values stay missing; a missing value
// after the start repeats the previous average and decays its weight.
func EWMMean(x []float64, com float64) []float64 {
	if com < 0 {
		com = 0
	}
	alpha := 1 / (1 + com)
	out := make([]float64, len(x))

	started := false
	var avg float64
	oldWt := 1.0
	for i, v := range x {
		if math.IsNaN(v) {
			if started {
				oldWt *= 1 - alpha
				out[i] = avg
			} else {
				out[i] = math.NaN()
			}
			continue
		}
		if !started {
			started = true
			avg = v
			out[i] = avg
			continue
		}
		oldWt *= 1 - alpha
		avg = (oldWt*avg + alpha*v) / (oldWt + alpha)
		oldWt = 1
		out[i] = avg
	}
	return out
}

// Diff returns x[i] - x[i-drift]; the first drift values are missing.
func Diff(x []float64, drift int) []float64 {
	if drift < 1 {
		drift = 1
	}
	out := make([]float64, len(x))
	for i := range x {
		if i < drift {
			out[i] = math.NaN()
			continue
		}
		out[i] = x[i] - x[i-drift]
	}
	return out
}
