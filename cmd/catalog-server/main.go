package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/orbitwatch/catalog"
	"github.com/signalsfoundry/orbitwatch/core"
	"github.com/signalsfoundry/orbitwatch/internal/feed"
	"github.com/signalsfoundry/orbitwatch/internal/ingest"
	"github.com/signalsfoundry/orbitwatch/internal/journal"
	"github.com/signalsfoundry/orbitwatch/internal/logging"
	"github.com/signalsfoundry/orbitwatch/internal/observability"
	"github.com/signalsfoundry/orbitwatch/internal/proxy"
	"github.com/signalsfoundry/orbitwatch/internal/query"
)

// Config holds the server's flag-derived settings.
type Config struct {
	ListenAddress   string // gRPC catalog query service
	HTTPAddress     string // fallback proxy; empty disables it
	MetricsAddress  string // Prometheus; empty disables it
	UpstreamURL     string
	UpstreamTimeout time.Duration
	JournalPath     string // empty disables the journal
	LogLevel        string
	LogFormat       string
}

func main() {
	cfg := Config{}
	flag.StringVar(&cfg.ListenAddress, "grpc-addr", ":50051", "TCP address the catalog gRPC service listens on")
	flag.StringVar(&cfg.HTTPAddress, "http-addr", proxy.DefaultAddr, "HTTP address for the /debris proxy")
	flag.StringVar(&cfg.MetricsAddress, "metrics-addr", ":9090", "HTTP address for Prometheus /metrics")
	flag.StringVar(&cfg.UpstreamURL, "upstream", feed.DefaultURL, "Element feed URL")
	flag.DurationVar(&cfg.UpstreamTimeout, "upstream-timeout", feed.DefaultTimeout, "Timeout for one upstream fetch")
	flag.StringVar(&cfg.JournalPath, "journal", "", "SQLite path for the ingestion journal (disabled when empty)")
	flag.StringVar(&cfg.LogLevel, "log-level", envOr("ORBITWATCH_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", envOr("ORBITWATCH_LOG_FORMAT", "text"), "Log format (text, json)")
	flag.Parse()

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, AddSource: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.ListenAddress), logging.Err(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, lis); err != nil {
		log.Error(ctx, "catalog server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves until ctx is cancelled. lis carries the gRPC service.
func run(ctx context.Context, cfg Config, log logging.Logger, lis net.Listener) error {
	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	reg := prometheus.NewRegistry()
	collector, err := observability.NewCollector(reg)
	if err != nil {
		return err
	}
	ingestMetrics, err := observability.NewIngestCollector(reg)
	if err != nil {
		return err
	}

	upstream := feed.New(cfg.UpstreamURL,
		feed.WithTimeout(cfg.UpstreamTimeout),
		feed.WithLogger(log),
		feed.WithObserver(collector),
	)

	adapterOpts := []ingest.Option{
		ingest.WithLogger(log),
		ingest.WithMetrics(ingestMetrics),
		ingest.WithPositionSource(core.NewRandomPlaceholder(time.Now().UnixNano())),
	}
	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return err
		}
		defer j.Close()
		if err := j.Migrate(ctx); err != nil {
			return err
		}
		adapterOpts = append(adapterOpts, ingest.WithRecorder(j))
	}
	adapter := ingest.NewAdapter(upstream, adapterOpts...)

	store := catalog.NewStore(catalog.WithMetricsRecorder(collector))
	// The query service answers from an empty catalog until the load lands.
	// The load must finish before the journal closes.
	loadCtx, cancelLoad := context.WithCancel(ctx)
	defer cancelLoad()
	loadDone := make(chan struct{})
	go func() {
		defer close(loadDone)
		res := adapter.Load(loadCtx)
		store.Load(res.Records)
	}()

	server := query.NewServer(query.NewCatalogService(store, log), log, collector)

	errCh := make(chan error, 2)
	log.Info(ctx, "starting catalog gRPC server", logging.String("addr", lis.Addr().String()))
	go func() {
		if err := server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- err
		}
	}()

	app := proxy.NewApp(upstream, proxy.WithLogger(log), proxy.WithCollector(collector))
	if cfg.HTTPAddress != "" {
		httpLis, err := net.Listen("tcp", cfg.HTTPAddress)
		if err != nil {
			server.Stop()
			cancelLoad()
			<-loadDone
			return err
		}
		log.Info(ctx, "starting debris proxy", logging.String("addr", httpLis.Addr().String()))
		go func() {
			if err := app.Listener(httpLis); err != nil {
				errCh <- err
			}
		}()
	}

	metricsSrv := serveMetrics(cfg.MetricsAddress, collector, log)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	log.Info(context.Background(), "shutting down catalog server")
	server.GracefulStop()
	cancelLoad()
	<-loadDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn(shutdownCtx, "proxy shutdown failed", logging.Err(err))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return runErr
}

func serveMetrics(addr string, collector *observability.Collector, log logging.Logger) *http.Server {
	if collector == nil || addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
