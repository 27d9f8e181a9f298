// Package exchange
package exchange

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/amirphl/simple-ta/internal/tfutils"
)

// MockExchange serves synthetic candles for offline runs. A candle depends
// only on the symbol and its timestamp, so overlapping requests agree.
type MockExchange struct {
	BasePrice float64
	// Now overrides the clock used by FetchLatestCandles.
	Now   func() time.Time
	calls int
}

func NewMockExchange() *MockExchange {
	return &MockExchange{BasePrice: 100}
}

func (m *MockExchange) Name() string {
	return "mock"
}

// Calls returns how many times FetchCandles was called.
func (m *MockExchange) Calls() int { return m.calls }

func (m *MockExchange) FetchCandles(ctx context.Context, symbol string, timeframe string, start, end time.Time) ([]candle.Candle, error) {
	m.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dur := tfutils.GetTimeframeDuration(timeframe)
	if dur == 0 {
		return nil, fmt.Errorf("unsupported timeframe: %s", timeframe)
	}

	h := fnv.New64a()
	h.Write([]byte(NormalizeSymbol(symbol)))
	seed := int64(h.Sum64())

	ts := start.UTC().Truncate(dur)
	if ts.Before(start) {
		ts = ts.Add(dur)
	}
	var candles []candle.Candle
	for ; ts.Before(end); ts = ts.Add(dur) {
		open := m.priceAt(seed, ts.Add(-dur))
		close := m.priceAt(seed, ts)
		r := rand.New(rand.NewSource(seed ^ ts.Unix()))
		spread := m.BasePrice * 0.002
		candles = append(candles, candle.Candle{
			Timestamp: ts,
			Open:      open,
			High:      math.Max(open, close) + spread*r.Float64(),
			Low:       math.Min(open, close) - spread*r.Float64(),
			Close:     close,
			Volume:    1 + 100*r.Float64(),
			Symbol:    symbol,
			Timeframe: timeframe,
			Source:    m.Name(),
		})
	}
	return candles, nil
}

// FetchLatestCandles returns the last count closed candles as of Now.
func (m *MockExchange) FetchLatestCandles(ctx context.Context, symbol string, timeframe string, count int) ([]candle.Candle, error) {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	start, end, err := LatestRange(timeframe, count, now())
	if err != nil {
		return nil, err
	}
	return m.FetchCandles(ctx, symbol, timeframe, start, end)
}

// priceAt is a slow cycle plus per-timestamp noise, always positive.
func (m *MockExchange) priceAt(seed int64, ts time.Time) float64 {
	r := rand.New(rand.NewSource(seed + ts.Unix()))
	hours := float64(ts.Unix()) / 3600
	return m.BasePrice * (1 + 0.05*math.Sin(hours/7) + 0.01*r.NormFloat64()/3)
}
