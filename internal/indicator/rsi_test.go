package indicator

import (
	"errors"
	"math"
	"testing"

	"github.com/amirphl/simple-ta/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateRSI(t *testing.T) {
	tests := []struct {
		name     string
		prices   []float64
		length   int
		drift    int
		expected []float64
	}{
		{
			name:     "Hand computed with alpha 0.5",
			prices:   []float64{10, 11, 10},
			length:   1,
			drift:    1,
			expected: []float64{nan, 100, 50},
		},
		{
			name:     "Drift of two",
			prices:   []float64{1, 2, 3, 2, 1},
			length:   1,
			drift:    2,
			expected: []float64{nan, nan, 100, 100, 100.0 / 3},
		},
		{
			name:     "All increasing prices",
			prices:   seq(10, 1, 20),
			length:   14,
			drift:    1,
			expected: append([]float64{nan}, repeat(100, 19)...),
		},
		{
			name:     "All decreasing prices",
			prices:   seq(30, -1, 10),
			length:   3,
			drift:    1,
			expected: append([]float64{nan}, repeat(0, 9)...),
		},
		{
			name:     "Flat prices have no defined RSI",
			prices:   []float64{10, 10, 10, 10},
			length:   3,
			drift:    1,
			expected: []float64{nan, nan, nan, nan},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CalculateRSI(tt.prices, tt.length, tt.drift, series.Options{})
			require.NoError(t, err)
			assert.Equal(t, series.Momentum, result.Category)
			equalSeries(t, tt.expected, result.Values)
		})
	}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestCalculateRSI_Defaults(t *testing.T) {
	prices := testColumns(40, 1).Close

	result, err := CalculateRSI(prices, 0, -3, series.Options{})
	require.NoError(t, err)
	assert.Equal(t, "RSI_14", result.Name)

	explicit, err := CalculateRSI(prices, 14, 1, series.Options{})
	require.NoError(t, err)
	equalSeries(t, explicit.Values, result.Values)
}

func TestCalculateRSI_Bounded(t *testing.T) {
	prices := testColumns(500, 2).Close
	for _, length := range []int{2, 5, 14, 30} {
		result, err := CalculateRSI(prices, length, 1, series.Options{})
		require.NoError(t, err)
		require.Len(t, result.Values, len(prices))
		for i, v := range result.Values[1:] {
			require.False(t, math.IsNaN(v), "index %d", i+1)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestCalculateRSI_DoesNotMutateInput(t *testing.T) {
	prices := []float64{3, 1, 4, 1, 5}
	_, err := CalculateRSI(prices, 2, 1, series.Options{Offset: 1, Fill: series.FillWith(0)})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 4, 1, 5}, prices)
}

func TestCalculateRSI_OffsetAndFill(t *testing.T) {
	prices := testColumns(30, 3).Close
	base, err := CalculateRSI(prices, 5, 1, series.Options{})
	require.NoError(t, err)

	shifted, err := CalculateRSI(prices, 5, 1, series.Options{Offset: 2})
	require.NoError(t, err)
	equalSeries(t, series.Shift(base.Values, 2), shifted.Values)

	filled, err := CalculateRSI(prices, 5, 1, series.Options{Offset: 2, Fill: series.BackwardFill()})
	require.NoError(t, err)
	assert.Equal(t, base.Values[1], filled.Values[0])
	assert.Equal(t, base.Values[1], filled.Values[2])
}

func TestCalculateRSI_InvalidInput(t *testing.T) {
	_, err := CalculateRSI(nil, 14, 1, series.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, series.ErrInvalidInput))
}

func BenchmarkCalculateRSI(b *testing.B) {
	prices := make([]float64, 1000)
	for i := range prices {
		prices[i] = float64(i % 100)
	}

	b.ResetTimer()
	for b.Loop() {
		_, _ = CalculateRSI(prices, 14, 1, series.Options{})
	}
}
