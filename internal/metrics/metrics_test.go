package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()

	m.CandlesLoaded.WithLabelValues("sqlite").Add(120)
	m.ObserveFetch("wallex", nil)
	m.ObserveFetch("wallex", errors.New("timeout"))
	m.ObserveIndicator("rsi", 2*time.Millisecond, nil)
	m.ObserveIndicator("cci", time.Millisecond, errors.New("bad input"))
	m.MissingValues.WithLabelValues("RSI_14").Set(14)

	assert.Equal(t, 120.0, testutil.ToFloat64(m.CandlesLoaded.WithLabelValues("sqlite")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExchangeFetches.WithLabelValues("wallex", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExchangeFetches.WithLabelValues("wallex", "error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.IndicatorErrors.WithLabelValues("rsi")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndicatorErrors.WithLabelValues("cci")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.IndicatorDuration))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.CandlesLoaded.WithLabelValues("mock").Add(3)

	path := filepath.Join(t.TempDir(), "simple_ta.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `simple_ta_candles_loaded_total{source="mock"} 3`)
}
