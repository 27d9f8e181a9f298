// Package db
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/simple-ta/internal/candle"
)

// Storage is the interface for all persistent candle storage.
type Storage interface {
	candle.Storage
	GetLatestCandle(ctx context.Context, symbol, timeframe string) (*candle.Candle, error)
	GetCandleCount(ctx context.Context, symbol, timeframe string, start, end time.Time) (int, error)
	DeleteCandles(ctx context.Context, symbol, timeframe string, before time.Time) error
	Close() error
}

func validateAll(candles []candle.Candle) error {
	for i := range candles {
		if err := candles[i].Validate(); err != nil {
			return fmt.Errorf("invalid candle at index %d for %s %s at %s: %w",
				i, candles[i].Symbol, candles[i].Timeframe, candles[i].Timestamp, err)
		}
	}
	return nil
}
