package tfutils

import (
	"fmt"
	"time"
)

var timeframes = []struct {
	name string
	dur  time.Duration
}{
	{"1m", time.Minute},
	{"5m", 5 * time.Minute},
	{"15m", 15 * time.Minute},
	{"30m", 30 * time.Minute},
	{"1h", time.Hour},
	{"4h", 4 * time.Hour},
	{"1d", 24 * time.Hour},
}

// ParseTimeframe parses timeframe string (e.g., "5m", "1h") to time.Duration
func ParseTimeframe(timeframe string) (time.Duration, error) {
	if d := GetTimeframeDuration(timeframe); d > 0 {
		return d, nil
	}
	return 0, fmt.Errorf("unsupported timeframe: %q", timeframe)
}

// GetTimeframeDuration returns the duration for a given timeframe, or 0 if unsupported
func GetTimeframeDuration(timeframe string) time.Duration {
	for _, tf := range timeframes {
		if tf.name == timeframe {
			return tf.dur
		}
	}
	return 0
}

// TimeframeMinutes returns the timeframe length in minutes
func TimeframeMinutes(timeframe string) int {
	return int(GetTimeframeDuration(timeframe) / time.Minute)
}

// GetSupportedTimeframes returns all supported timeframes
func GetSupportedTimeframes() []string {
	out := make([]string, len(timeframes))
	for i, tf := range timeframes {
		out[i] = tf.name
	}
	return out
}

// IsValidTimeframe checks if a timeframe is supported
func IsValidTimeframe(timeframe string) bool {
	return GetTimeframeDuration(timeframe) > 0
}
