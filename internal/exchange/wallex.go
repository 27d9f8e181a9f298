// Package exchange
package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/amirphl/simple-ta/internal/tfutils"
	"github.com/amirphl/simple-ta/internal/utils"
	wallex "github.com/wallexchange/wallex-go"
)

type WallexExchange struct {
	client     *wallex.Client
	attempts   int
	retryDelay time.Duration
}

func NewWallexExchange(apiKey string) *WallexExchange {
	return &WallexExchange{
		client:     wallex.New(wallex.ClientOptions{APIKey: apiKey}),
		attempts:   3,
		retryDelay: 2 * time.Second,
	}
}

func (w *WallexExchange) Name() string {
	return "wallex"
}

func (w *WallexExchange) FetchCandles(ctx context.Context, symbol string, timeframe string, start, end time.Time) ([]candle.Candle, error) {
	if !tfutils.IsValidTimeframe(timeframe) {
		return nil, fmt.Errorf("unsupported timeframe: %s", timeframe)
	}

	normalizedTimeframe := NormalizedTimeframe(timeframe)
	normalizedSymbol := NormalizeSymbol(symbol)

	if err := ctx.Err(); err != nil {
		utils.GetLogger().Printf("Exchange | %s FetchCandles timeout", w.Name())
		return nil, err
	}

	var wallexCandles []*wallex.Candle
	err := retry(ctx, w.Name(), w.attempts, w.retryDelay, func() error {
		var err error
		wallexCandles, err = w.client.Candles(normalizedSymbol, normalizedTimeframe, start, end)
		if err != nil {
			return fmt.Errorf("fetching candles: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("FetchCandles failed: %w", err)
	}

	return convertWallexCandles(wallexCandles, symbol, timeframe, w.Name()), nil
}

// FetchLatestCandles fetches the last count closed candles.
func (w *WallexExchange) FetchLatestCandles(ctx context.Context, symbol string, timeframe string, count int) ([]candle.Candle, error) {
	start, end, err := LatestRange(timeframe, count, time.Now())
	if err != nil {
		return nil, err
	}
	return w.FetchCandles(ctx, symbol, timeframe, start, end)
}

// convertWallexCandles parses the API's decimal strings. Candles that fail to
// parse or validate are skipped.
func convertWallexCandles(wallexCandles []*wallex.Candle, symbol, timeframe, source string) []candle.Candle {
	candles := make([]candle.Candle, 0, len(wallexCandles))
	for _, wc := range wallexCandles {
		if wc == nil {
			continue
		}
		var values [5]float64
		ok := true
		for i, n := range []string{string(wc.Open), string(wc.High), string(wc.Low), string(wc.Close), string(wc.Volume)} {
			v, err := strconv.ParseFloat(n, 64)
			if err != nil {
				ok = false
				break
			}
			values[i] = v
		}
		if !ok {
			utils.GetLogger().Printf("Exchange | %s skipping unparsable candle at %s", source, wc.Timestamp)
			continue
		}

		c := candle.Candle{
			Timestamp: wc.Timestamp.UTC().Truncate(time.Minute),
			Open:      values[0],
			High:      values[1],
			Low:       values[2],
			Close:     values[3],
			Volume:    values[4],
			Symbol:    symbol,
			Timeframe: timeframe,
			Source:    source,
		}
		if err := c.Validate(); err != nil {
			continue
		}
		candles = append(candles, c)
	}
	return candles
}
