// Package exchange
package exchange

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/amirphl/simple-ta/internal/tfutils"
	"github.com/amirphl/simple-ta/internal/utils"
)

// Exchange is the interface for candle sources that download history.
type Exchange interface {
	Name() string
	FetchCandles(ctx context.Context, symbol string, timeframe string, start, end time.Time) ([]candle.Candle, error)
	FetchLatestCandles(ctx context.Context, symbol string, timeframe string, count int) ([]candle.Candle, error)
}

// LatestRange returns the [start, end) range holding the last count bars
// that closed at or before now.
func LatestRange(timeframe string, count int, now time.Time) (time.Time, time.Time, error) {
	dur := tfutils.GetTimeframeDuration(timeframe)
	if dur == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid timeframe: %s", timeframe)
	}
	if count <= 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("count must be positive, got %d", count)
	}
	end := now.UTC().Truncate(dur)
	return end.Add(-dur * time.Duration(count)), end, nil
}

// NormalizeSymbol converts e.g. btc-usdt to BTCUSDT for Wallex API
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "-", ""))
}

// NormalizedTimeframe converts a timeframe to a Wallex resolution:
// minutes for intraday timeframes ("1h" -> "60") and "1D" for daily.
func NormalizedTimeframe(timeframe string) string {
	minutes := tfutils.TimeframeMinutes(timeframe)
	switch {
	case minutes <= 0:
		return strings.TrimSuffix(timeframe, "m")
	case minutes%(24*60) == 0:
		return strconv.Itoa(minutes/(24*60)) + "D"
	default:
		return strconv.Itoa(minutes)
	}
}

var errRetriesExhausted = errors.New("all retry attempts failed")

// retry runs fn up to attempts times with exponential backoff capped at 5
// minutes. It stops early when ctx is done.
func retry(ctx context.Context, name string, attempts int, delay time.Duration, fn func() error) error {
	backoff := delay
	var lastErr error
	for i := 1; i <= attempts; i++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if i == attempts {
			break
		}
		utils.GetLogger().Printf("Exchange | %s Retry attempt %d/%d failed: %v. Backing off for %v", name, i, attempts, lastErr, backoff)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if backoff < 5*time.Minute {
			backoff *= 2
			if backoff > 5*time.Minute {
				backoff = 5 * time.Minute
			}
		}
	}
	return fmt.Errorf("%w: %v", errRetriesExhausted, lastErr)
}
