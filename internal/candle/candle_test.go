package candle

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test candles
func createTestCandles(symbol string, timeframe string, timestamps []time.Time, opens, highs, lows, closes, volumes []float64) []Candle {
	candles := make([]Candle, len(timestamps))
	for i := range timestamps {
		candles[i] = Candle{
			Timestamp: timestamps[i],
			Open:      opens[i],
			High:      highs[i],
			Low:       lows[i],
			Close:     closes[i],
			Volume:    volumes[i],
			Symbol:    symbol,
			Timeframe: timeframe,
			Source:    "test",
		}
	}
	return candles
}

func TestCandle_Validate(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	valid := Candle{Timestamp: now, Open: 10, High: 12, Low: 9, Close: 11, Volume: 5, Symbol: "BTCIRT", Timeframe: "1m"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Candle)
		errMsg string
	}{
		{"zero timestamp", func(c *Candle) { c.Timestamp = time.Time{} }, "timestamp is zero"},
		{"non-positive price", func(c *Candle) { c.Low = 0 }, "must be positive"},
		{"high below low", func(c *Candle) { c.High = 8 }, "high cannot be less than low"},
		{"open outside range", func(c *Candle) { c.Open = 13 }, "open price"},
		{"close outside range", func(c *Candle) { c.Close = 8.5 }, "close price"},
		{"negative volume", func(c *Candle) { c.Volume = -1 }, "volume"},
		{"empty symbol", func(c *Candle) { c.Symbol = "" }, "symbol"},
		{"empty timeframe", func(c *Candle) { c.Timeframe = "" }, "timeframe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCandle_End(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Candle{Timestamp: now, Timeframe: "5m"}
	assert.Equal(t, now.Add(5*time.Minute), c.End())
}

func TestToColumns(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	timestamps := []time.Time{base.Add(2 * time.Minute), base, base.Add(time.Minute)}
	candles := createTestCandles("BTCIRT", "1m", timestamps,
		[]float64{3, 1, 2},
		[]float64{3.5, 1.5, 2.5},
		[]float64{2.5, 0.5, 1.5},
		[]float64{3, 1, 2},
		[]float64{30, 10, 20},
	)

	t.Run("sorted by timestamp", func(t *testing.T) {
		cols, err := ToColumns(candles)
		require.NoError(t, err)
		assert.Equal(t, 3, cols.Len())
		assert.Equal(t, []float64{1, 2, 3}, cols.Close)
		assert.Equal(t, []float64{10, 20, 30}, cols.Volume)
		assert.Equal(t, []float64{1.5, 2.5, 3.5}, cols.High)
		assert.Equal(t, base, cols.Timestamps[0])
		// input order is untouched
		assert.Equal(t, 3.0, candles[0].Close)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ToColumns(nil)
		assert.Error(t, err)
	})

	t.Run("mixed symbols", func(t *testing.T) {
		mixed := append([]Candle{}, candles...)
		mixed[2].Symbol = "ETHIRT"
		_, err := ToColumns(mixed)
		assert.ErrorContains(t, err, "different symbol")
	})

	t.Run("mixed timeframes", func(t *testing.T) {
		mixed := append([]Candle{}, candles...)
		mixed[0].Timeframe = "5m"
		_, err := ToColumns(mixed)
		assert.ErrorContains(t, err, "different timeframe")
	})

	t.Run("duplicate timestamps", func(t *testing.T) {
		dup := append([]Candle{}, candles...)
		dup[2].Timestamp = dup[1].Timestamp
		_, err := ToColumns(dup)
		assert.ErrorContains(t, err, "duplicate")
	})
}

func TestGenerateHeikenAshiCandles(t *testing.T) {
	assert.Nil(t, GenerateHeikenAshiCandles(nil))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := createTestCandles("BTCIRT", "1m", []time.Time{base, base.Add(time.Minute)},
		[]float64{10, 12},
		[]float64{14, 16},
		[]float64{8, 11},
		[]float64{12, 15},
		[]float64{1, 1},
	)

	ha := GenerateHeikenAshiCandles(raw)
	require.Len(t, ha, 2)

	assert.InDelta(t, 11.0, ha[0].Open, 1e-9)  // (10+12)/2
	assert.InDelta(t, 11.0, ha[0].Close, 1e-9) // (10+14+8+12)/4
	assert.InDelta(t, 14.0, ha[0].High, 1e-9)
	assert.InDelta(t, 8.0, ha[0].Low, 1e-9)
	assert.Equal(t, "heiken_ashi", ha[0].Source)

	assert.InDelta(t, 11.0, ha[1].Open, 1e-9)  // (11+11)/2
	assert.InDelta(t, 13.5, ha[1].Close, 1e-9) // (12+16+11+15)/4
	assert.InDelta(t, 16.0, ha[1].High, 1e-9)
	assert.InDelta(t, 11.0, ha[1].Low, 1e-9)
	assert.Equal(t, raw[1].Timestamp, ha[1].Timestamp)
}

func TestReadCSV(t *testing.T) {
	t.Run("valid with reordered header", func(t *testing.T) {
		in := "Close,Open,High,Low,Volume,Timestamp\n" +
			"11,10,12,9,100,2024-01-01T00:00:00Z\n" +
			"12,11,13,10,150,1704067260\n"
		candles, err := ReadCSV(strings.NewReader(in), "BTCIRT", "1m", "csv")
		require.NoError(t, err)
		require.Len(t, candles, 2)

		assert.Equal(t, 11.0, candles[0].Close)
		assert.Equal(t, 10.0, candles[0].Open)
		assert.Equal(t, "BTCIRT", candles[0].Symbol)
		assert.Equal(t, "csv", candles[0].Source)
		assert.True(t, time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC).Equal(candles[1].Timestamp))
	})

	t.Run("date only timestamps", func(t *testing.T) {
		in := "timestamp,open,high,low,close,volume\n2024-03-05,1,2,1,2,0\n"
		candles, err := ReadCSV(strings.NewReader(in), "X", "1d", "csv")
		require.NoError(t, err)
		assert.True(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC).Equal(candles[0].Timestamp))
	})

	t.Run("errors", func(t *testing.T) {
		cases := map[string]string{
			"empty":          "",
			"missing column": "timestamp,open,high,low,close\n",
			"bad number":     "timestamp,open,high,low,close,volume\n2024-01-01,x,2,1,2,0\n",
			"bad timestamp":  "timestamp,open,high,low,close,volume\nyesterday,1,2,1,2,0\n",
			"invalid candle": "timestamp,open,high,low,close,volume\n2024-01-01,1,2,1,3,0\n",
		}
		for name, in := range cases {
			_, err := ReadCSV(strings.NewReader(in), "X", "1d", "csv")
			assert.Error(t, err, name)
		}
	})
}
