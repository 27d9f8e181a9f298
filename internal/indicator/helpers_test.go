package indicator

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var nan = math.NaN()

func equalSeries(t *testing.T, want, got []float64) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateNaNs(), cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("series mismatch (-want +got):\n%s", diff)
	}
}

// testColumns builds a deterministic OHLCV random walk with a real high/low range.
func testColumns(n int, seed int64) candle.Columns {
	r := rand.New(rand.NewSource(seed))
	cols := candle.Columns{
		Timestamps: make([]time.Time, n),
		Open:       make([]float64, n),
		High:       make([]float64, n),
		Low:        make([]float64, n),
		Close:      make([]float64, n),
		Volume:     make([]float64, n),
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := 0; i < n; i++ {
		open := price
		price += r.NormFloat64()
		cols.Timestamps[i] = base.Add(time.Duration(i) * time.Hour)
		cols.Open[i] = open
		cols.Close[i] = price
		cols.High[i] = math.Max(open, price) + 0.1 + math.Abs(r.NormFloat64())
		cols.Low[i] = math.Min(open, price) - 0.1 - math.Abs(r.NormFloat64())
		cols.Volume[i] = 1000 + 500*r.Float64()
	}
	return cols
}

func seq(from, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + step*float64(i)
	}
	return out
}

func addEach(x []float64, d float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v + d
	}
	return out
}
