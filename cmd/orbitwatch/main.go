package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/signalsfoundry/orbitwatch/core"
	"github.com/signalsfoundry/orbitwatch/internal/config"
	"github.com/signalsfoundry/orbitwatch/internal/feed"
	"github.com/signalsfoundry/orbitwatch/internal/ingest"
	"github.com/signalsfoundry/orbitwatch/internal/journal"
	"github.com/signalsfoundry/orbitwatch/internal/logging"
	"github.com/signalsfoundry/orbitwatch/internal/observability"
)

var version = "dev"

// app carries the resolved configuration between a command's pre-run and
// its body.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	out     io.Writer
	errOut  io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "orbitwatch",
		Short: "Browse tracked orbital debris by altitude and collision risk",
		Long: `OrbitWatch loads the public element feed once, derives an altitude and a
coarse risk tier for every object, and lets you search, filter and inspect
the catalog on a terminal map.

Without network access it falls back to a built-in sample set.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initConfig,
		RunE:              a.runTUI,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: $HOME/.config/orbitwatch/config.yaml)")
	pf.String("feed-url", feed.DefaultURL, "element feed URL")
	pf.Duration("feed-timeout", feed.DefaultTimeout, "timeout for one feed fetch")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")
	pf.Bool("journal", true, "record each load in the ingestion journal")
	pf.String("journal-path", "~/.local/state/orbitwatch/journal.db", "ingestion journal path")

	_ = a.v.BindPFlag(config.KeyFeedURL, pf.Lookup("feed-url"))
	_ = a.v.BindPFlag(config.KeyFeedTimeout, pf.Lookup("feed-timeout"))
	_ = a.v.BindPFlag(config.KeyLogLevel, pf.Lookup("log-level"))
	_ = a.v.BindPFlag(config.KeyLogFormat, pf.Lookup("log-format"))
	_ = a.v.BindPFlag(config.KeyJournalEnabled, pf.Lookup("journal"))
	_ = a.v.BindPFlag(config.KeyJournalPath, pf.Lookup("journal-path"))

	f := root.Flags()
	f.Bool("no-map", false, "run without the map plot")
	f.Duration("frame-interval", 100*time.Millisecond, "map redraw interval")
	f.Float64("idle-rate", 1.0, "idle map drift in degrees per second")
	_ = a.v.BindPFlag(config.KeyFrameInterval, f.Lookup("frame-interval"))
	_ = a.v.BindPFlag(config.KeyIdleRateDegPerSec, f.Lookup("idle-rate"))

	root.AddCommand(a.exportCmd())
	root.AddCommand(a.historyCmd())
	root.AddCommand(versionCmd())
	return root
}

func (a *app) initConfig(_ *cobra.Command, _ []string) error {
	if err := config.Bind(a.v, a.cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) logger(w io.Writer) logging.Logger {
	return logging.New(logging.Config{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		Output: w,
	})
}

// initTracing starts tracing from ORBITWATCH_TRACING_* with stdout-exporter
// output sent to w.
func (a *app) initTracing(ctx context.Context, w io.Writer, log logging.Logger) func() {
	tc := observability.TracingConfigFromEnv()
	tc.Writer = w
	shutdown, err := observability.InitTracing(ctx, tc, log)
	if err != nil {
		log.Warn(ctx, "tracing unavailable", logging.Err(err))
		return func() {}
	}
	return func() { observability.ShutdownWithTimeout(context.Background(), shutdown, log) }
}

// newAdapter builds the ingestion adapter for one command run. A journal
// that cannot be opened is logged and skipped.
func (a *app) newAdapter(ctx context.Context, log logging.Logger, opts ...ingest.Option) (*ingest.Adapter, func()) {
	client := feed.New(a.cfg.Feed.URL,
		feed.WithTimeout(a.cfg.Feed.Timeout),
		feed.WithLogger(log),
	)

	base := []ingest.Option{
		ingest.WithLogger(log),
		ingest.WithPositionSource(core.NewRandomPlaceholder(time.Now().UnixNano())),
	}
	cleanup := func() {}
	if a.cfg.Journal.Enabled {
		j, err := openJournal(ctx, a.cfg.Journal.Path)
		if err != nil {
			log.Warn(ctx, "ingestion journal unavailable", logging.Err(err))
		} else {
			base = append(base, ingest.WithRecorder(j))
			cleanup = func() { _ = j.Close() }
		}
	}
	return ingest.NewAdapter(client, append(base, opts...)...), cleanup
}

func openJournal(ctx context.Context, path string) (*journal.Journal, error) {
	j, err := journal.Open(path)
	if err != nil {
		return nil, err
	}
	if err := j.Migrate(ctx); err != nil {
		_ = j.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return j, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// No config needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "orbitwatch %s\n", version)
		},
	}
}
