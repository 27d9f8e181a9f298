// Package candle
package candle

import "math"

// GenerateHeikenAshiCandles generates Heiken Ashi candles from raw candles.
// Input candles must be sorted by timestamp ascending.
func GenerateHeikenAshiCandles(rawCandles []Candle) []Candle {
	if len(rawCandles) == 0 {
		return nil
	}

	haCandles := make([]Candle, len(rawCandles))
	var prev *Candle
	for i, c := range rawCandles {
		haCandles[i] = nextHeikenAshi(prev, c)
		prev = &haCandles[i]
	}
	return haCandles
}

// nextHeikenAshi derives one Heiken Ashi candle from the previous one (nil for the first).
func nextHeikenAshi(prevHA *Candle, raw Candle) Candle {
	ha := raw
	ha.Close = (raw.Open + raw.High + raw.Low + raw.Close) / 4
	if prevHA == nil {
		ha.Open = (raw.Open + raw.Close) / 2
	} else {
		ha.Open = (prevHA.Open + prevHA.Close) / 2
	}
	ha.High = math.Max(raw.High, math.Max(ha.Open, ha.Close))
	ha.Low = math.Min(raw.Low, math.Min(ha.Open, ha.Close))
	ha.Source = "heiken_ashi"
	return ha
}
