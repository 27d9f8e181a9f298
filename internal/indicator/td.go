package indicator

import "github.com/amirphl/simple-ta/internal/series"

const (
	tdLookback       = 4
	tdSetupThreshold = 9
)

// tdState is the TD Sequential state carried from one bar to the next.
// S counts down (negative) for bullish setups.
type tdState struct {
	B, S                   int
	CountdownB, CountdownS int
}

// step advances the state to bar i (i >= tdLookback).
func (prev tdState) step(i int, high, low, close []float64) tdState {
	var s tdState
	if close[i] < close[i-tdLookback] {
		s.B = prev.B + 1
	}
	if close[i] > close[i-tdLookback] {
		s.S = prev.S - 1
	}

	if s.B >= tdSetupThreshold {
		s.CountdownB = prev.CountdownB
		if close[i] < low[i-2] {
			s.CountdownB++
		}
	}
	if -s.S >= tdSetupThreshold {
		s.CountdownS = prev.CountdownS
		if close[i] > high[i-2] {
			s.CountdownS++
		}
	}
	return s
}

// CalculateTD computes the TD Sequential setup and countdown counters.
//
// TD_B grows while close < close[i-4] and resets otherwise; TD_S is the
// negative-valued mirror for close > close[i-4]. Once a setup reaches 9,
// its countdown counts bars closing beyond low[i-2] (buy) or high[i-2]
// (sell) and resets as soon as the setup breaks. The first 4 bars are zero.
func CalculateTD(high, low, close []float64, opts series.Options) (series.Frame, error) {
	if err := series.Validate("TD", high, low, close); err != nil {
		return series.Frame{}, err
	}

	n := len(close)
	tdB := make([]float64, n)
	tdS := make([]float64, n)
	cdB := make([]float64, n)
	cdS := make([]float64, n)

	var state tdState
	for i := tdLookback; i < n; i++ {
		state = state.step(i, high, low, close)
		tdB[i] = float64(state.B)
		tdS[i] = float64(state.S)
		cdB[i] = float64(state.CountdownB)
		cdS[i] = float64(state.CountdownS)
	}

	frame := series.Frame{
		Name:     "TD",
		Category: series.Overlap,
		Columns: []series.Result{
			{Name: "TD_B", Category: series.Overlap, Values: tdB},
			{Name: "TD_S", Category: series.Overlap, Values: tdS},
			{Name: "TD_COUNTDOWN_B", Category: series.Overlap, Values: cdB},
			{Name: "TD_COUNTDOWN_S", Category: series.Overlap, Values: cdS},
		},
	}
	opts.ApplyFrame(&frame)
	return frame, nil
}
