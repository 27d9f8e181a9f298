// Package metrics holds the Prometheus collectors for one simple-ta run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registry *prometheus.Registry

	CandlesLoaded     *prometheus.CounterVec   // labels: source
	ExchangeFetches   *prometheus.CounterVec   // labels: exchange, result
	IndicatorDuration *prometheus.HistogramVec // labels: indicator
	IndicatorErrors   *prometheus.CounterVec   // labels: indicator
	MissingValues     *prometheus.GaugeVec     // labels: column
}

// New registers and returns all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CandlesLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "simple_ta_candles_loaded_total",
			Help: "Candles loaded, by where they came from",
		}, []string{"source"}),
		ExchangeFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "simple_ta_exchange_fetches_total",
			Help: "Exchange candle downloads, by exchange and result",
		}, []string{"exchange", "result"}),
		IndicatorDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "simple_ta_indicator_duration_seconds",
			Help:    "Time spent computing one indicator",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"indicator"}),
		IndicatorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "simple_ta_indicator_errors_total",
			Help: "Indicator computations that failed",
		}, []string{"indicator"}),
		MissingValues: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "simple_ta_missing_values",
			Help: "Missing (NaN) values in each output column",
		}, []string{"column"}),
	}
	m.registry.MustRegister(m.CandlesLoaded, m.ExchangeFetches, m.IndicatorDuration, m.IndicatorErrors, m.MissingValues)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveIndicator records one indicator run.
func (m *Metrics) ObserveIndicator(name string, elapsed time.Duration, err error) {
	m.IndicatorDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		m.IndicatorErrors.WithLabelValues(name).Inc()
	}
}

// ObserveFetch records one exchange download.
func (m *Metrics) ObserveFetch(exchange string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ExchangeFetches.WithLabelValues(exchange, result).Inc()
}

// WriteTextfile writes the current values in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
