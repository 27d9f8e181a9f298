// Package candle
package candle

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var csvColumns = []string{"timestamp", "open", "high", "low", "close", "volume"}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ReadCSV reads candles from CSV with a header naming at least the
// timestamp, open, high, low, close and volume columns (any order, any case).
// Timestamps may be RFC3339, "2006-01-02 15:04:05", a date or unix seconds.
func ReadCSV(r io.Reader, symbol, timeframe, source string) ([]Candle, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv is empty")
		}
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range csvColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("csv header is missing column %q", col)
		}
	}

	var candles []Candle
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line, err)
		}

		ts, err := parseTimestamp(record[idx["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		values := make([]float64, 5)
		for i, col := range csvColumns[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[idx[col]]), 64)
			if err != nil {
				return nil, fmt.Errorf("csv line %d: invalid %s: %w", line, col, err)
			}
			values[i] = v
		}

		c := Candle{
			Timestamp: ts,
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
			return nil, fmt.Errorf("invalid candle on csv line %d: %w", line, err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
