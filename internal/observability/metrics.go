package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Upstream fetch outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeTransport = "transport_error"
	OutcomeStatus    = "bad_status"
	OutcomeDecode    = "decode_error"
)

// Collector bundles Prometheus metrics for the catalog services and provides
// helpers to wire them into gRPC servers and HTTP handlers.
type Collector struct {
	gatherer prometheus.Gatherer

	RPCRequests  *prometheus.CounterVec
	RPCDurations *prometheus.HistogramVec

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	UpstreamFetches       *prometheus.CounterVec
	UpstreamFetchDuration *prometheus.HistogramVec

	CatalogRecords  prometheus.Gauge
	CatalogFiltered prometheus.Gauge
	CatalogHighRisk prometheus.Gauge
}

// NewCollector registers Prometheus metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbitwatch_grpc_requests_total",
		Help: "Total number of handled catalog RPCs, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"}), "orbitwatch_grpc_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orbitwatch_grpc_request_duration_seconds",
		Help:    "Catalog RPC latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"service", "method"}), "orbitwatch_grpc_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	httpRequests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbitwatch_http_requests_total",
		Help: "Total number of proxy HTTP requests, labeled by method, route, and status code.",
	}, []string{"method", "route", "code"}), "orbitwatch_http_requests_total")
	if err != nil {
		return nil, err
	}

	httpDurations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orbitwatch_http_request_duration_seconds",
		Help:    "Proxy HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"}), "orbitwatch_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	fetches, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbitwatch_upstream_fetches_total",
		Help: "Upstream element feed fetches, labeled by outcome.",
	}, []string{"outcome"}), "orbitwatch_upstream_fetches_total")
	if err != nil {
		return nil, err
	}

	fetchDuration, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orbitwatch_upstream_fetch_duration_seconds",
		Help:    "Upstream element feed fetch latency in seconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"outcome"}), "orbitwatch_upstream_fetch_duration_seconds")
	if err != nil {
		return nil, err
	}

	records, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orbitwatch_catalog_records",
		Help: "Current number of records in the loaded catalog.",
	}), "orbitwatch_catalog_records")
	if err != nil {
		return nil, err
	}
	filtered, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orbitwatch_catalog_filtered_records",
		Help: "Current number of records passing the active filter.",
	}), "orbitwatch_catalog_filtered_records")
	if err != nil {
		return nil, err
	}
	highRisk, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orbitwatch_catalog_high_risk_records",
		Help: "Current number of high-risk records in the loaded catalog.",
	}), "orbitwatch_catalog_high_risk_records")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:              gatherer,
		RPCRequests:           requests,
		RPCDurations:          durations,
		HTTPRequests:          httpRequests,
		HTTPDurations:         httpDurations,
		UpstreamFetches:       fetches,
		UpstreamFetchDuration: fetchDuration,
		CatalogRecords:        records,
		CatalogFiltered:       filtered,
		CatalogHighRisk:       highRisk,
	}, nil
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *Collector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if c == nil {
			return resp, err
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		code := status.Code(err).String()

		if c.RPCRequests != nil {
			c.RPCRequests.WithLabelValues(service, method, code).Inc()
		}
		if c.RPCDurations != nil {
			c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
		}

		return resp, err
	}
}

// ObserveHTTP records one proxy request.
func (c *Collector) ObserveHTTP(method, route string, code int, d time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	if c.HTTPRequests != nil {
		c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	}
	if c.HTTPDurations != nil {
		c.HTTPDurations.WithLabelValues(method, route).Observe(d.Seconds())
	}
}

// ObserveUpstreamFetch records one fetch against the element feed.
func (c *Collector) ObserveUpstreamFetch(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	if c.UpstreamFetches != nil {
		c.UpstreamFetches.WithLabelValues(outcome).Inc()
	}
	if c.UpstreamFetchDuration != nil {
		c.UpstreamFetchDuration.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetCatalogCounts satisfies catalog.MetricsRecorder so the store can drive
// gauge values directly from its mutators.
func (c *Collector) SetCatalogCounts(total, filtered, highRisk int) {
	if c == nil {
		return
	}
	if c.CatalogRecords != nil {
		c.CatalogRecords.Set(float64(total))
	}
	if c.CatalogFiltered != nil {
		c.CatalogFiltered.Set(float64(filtered))
	}
	if c.CatalogHighRisk != nil {
		c.CatalogHighRisk.Set(float64(highRisk))
	}
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
