// Package candle
package candle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/amirphl/simple-ta/internal/tfutils"
)

type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	Source    string    `json:"source"`
}

// Storage is implemented by every candle store in internal/db.
type Storage interface {
	SaveCandles(ctx context.Context, candles []Candle) error
	GetCandles(ctx context.Context, symbol, timeframe, source string, start, end time.Time) ([]Candle, error)
}

// End returns the time the candle closes.
func (c *Candle) End() time.Time {
	return c.Timestamp.Add(tfutils.GetTimeframeDuration(c.Timeframe))
}

// Validate checks if a candle has valid data
func (c *Candle) Validate() error {
	if c.Timestamp.IsZero() {
		return errors.New("candle timestamp is zero")
	}
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return errors.New("candle prices must be positive")
	}
	if c.High < c.Low {
		return errors.New("candle high cannot be less than low")
	}
	if c.Open < c.Low || c.Open > c.High {
		return errors.New("candle open price must be between high and low")
	}
	if c.Close < c.Low || c.Close > c.High {
		return errors.New("candle close price must be between high and low")
	}
	if c.Volume < 0 {
		return errors.New("candle volume cannot be negative")
	}
	if c.Symbol == "" {
		return errors.New("candle symbol cannot be empty")
	}
	if c.Timeframe == "" {
		return errors.New("candle timeframe cannot be empty")
	}
	return nil
}

// Columns is the column-oriented view of a candle slice that indicators consume.
type Columns struct {
	Timestamps []time.Time
	Open       []float64
	High       []float64
	Low        []float64
	Close      []float64
	Volume     []float64
}

// Len returns the number of rows.
func (c Columns) Len() int { return len(c.Close) }

// ToColumns sorts a copy of candles by timestamp and splits it into columns.
// Candles must share one symbol and timeframe.
func ToColumns(candles []Candle) (Columns, error) {
	if len(candles) == 0 {
		return Columns{}, errors.New("candles array cannot be empty")
	}

	sorted := make([]Candle, len(candles))
	copy(sorted, candles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	n := len(sorted)
	cols := Columns{
		Timestamps: make([]time.Time, n),
		Open:       make([]float64, n),
		High:       make([]float64, n),
		Low:        make([]float64, n),
		Close:      make([]float64, n),
		Volume:     make([]float64, n),
	}
	first := sorted[0]
	for i, c := range sorted {
		if c.Symbol != first.Symbol {
			return Columns{}, fmt.Errorf("candle at index %d has different symbol: %s, expected: %s", i, c.Symbol, first.Symbol)
		}
		if c.Timeframe != first.Timeframe {
			return Columns{}, fmt.Errorf("candle at index %d has different timeframe: %s, expected: %s", i, c.Timeframe, first.Timeframe)
		}
		if i > 0 && c.Timestamp.Equal(sorted[i-1].Timestamp) {
			return Columns{}, fmt.Errorf("duplicate candle at %s", c.Timestamp.Format(time.RFC3339))
		}
		cols.Timestamps[i] = c.Timestamp
		cols.Open[i] = c.Open
		cols.High[i] = c.High
		cols.Low[i] = c.Low
		cols.Close[i] = c.Close
		cols.Volume[i] = c.Volume
	}
	return cols, nil
}
