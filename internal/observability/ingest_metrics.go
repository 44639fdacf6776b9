package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IngestCollector exposes ingestion-specific Prometheus metrics.
type IngestCollector struct {
	gatherer prometheus.Gatherer

	LoadsTotal     *prometheus.CounterVec
	LoadDuration   prometheus.Histogram
	RecordsDerived prometheus.Counter
	LastLoadSize   prometheus.Gauge
}

// NewIngestCollector registers ingestion metrics against the provided registerer.
func NewIngestCollector(reg prometheus.Registerer) (*IngestCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	loads, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbitwatch_ingest_loads_total",
		Help: "Catalog loads, labeled by the source that supplied the records (live or fallback).",
	}, []string{"source"}), "orbitwatch_ingest_loads_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orbitwatch_ingest_load_duration_seconds",
		Help:    "Duration of a catalog load including the live fetch attempt.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})
	duration, err = registerHistogram(reg, duration, "orbitwatch_ingest_load_duration_seconds")
	if err != nil {
		return nil, err
	}

	derived := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orbitwatch_ingest_records_derived_total",
		Help: "Cumulative number of raw element sets run through derivation.",
	})
	derived, err = registerCounter(reg, derived, "orbitwatch_ingest_records_derived_total")
	if err != nil {
		return nil, err
	}

	size := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orbitwatch_ingest_last_load_records",
		Help: "Number of records produced by the most recent load.",
	})
	size, err = registerGauge(reg, size, "orbitwatch_ingest_last_load_records")
	if err != nil {
		return nil, err
	}

	return &IngestCollector{
		gatherer:       gatherer,
		LoadsTotal:     loads,
		LoadDuration:   duration,
		RecordsDerived: derived,
		LastLoadSize:   size,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *IngestCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveLoad records a completed load.
func (c *IngestCollector) ObserveLoad(source string, records int, d time.Duration) {
	if c == nil {
		return
	}
	if c.LoadsTotal != nil {
		c.LoadsTotal.WithLabelValues(source).Inc()
	}
	if c.LoadDuration != nil {
		c.LoadDuration.Observe(d.Seconds())
	}
	if c.LastLoadSize != nil {
		c.LastLoadSize.Set(float64(records))
	}
}

// AddDerived increments the derived-record counter.
func (c *IngestCollector) AddDerived(n int) {
	if c == nil || c.RecordsDerived == nil || n <= 0 {
		return
	}
	c.RecordsDerived.Add(float64(n))
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
