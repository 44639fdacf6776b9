// Package ingest loads the initial catalog: one attempt at the live element
// feed, falling back to an embedded sample set.
package ingest

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/signalsfoundry/orbitwatch/core"
	"github.com/signalsfoundry/orbitwatch/internal/logging"
	"github.com/signalsfoundry/orbitwatch/model"
)

// Source says where a load's records came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// ErrNoLiveSource is the live error when the adapter has no fetcher.
var ErrNoLiveSource = errors.New("no live source configured")

// FallbackNotice is shown whenever the sample set is in use.
const FallbackNotice = "Showing sample data — run server for live data"

//go:embed sample.json
var sampleJSON []byte

var loadSample = sync.OnceValues(func() ([]model.DebrisRecord, error) {
	var recs []model.DebrisRecord
	if err := json.Unmarshal(sampleJSON, &recs); err != nil {
		return nil, fmt.Errorf("decode embedded sample: %w", err)
	}
	return recs, nil
})

// SampleRecords returns a copy of the embedded sample set. Its altitudes,
// tiers and coordinates are pre-set, not derived.
func SampleRecords() []model.DebrisRecord {
	recs, err := loadSample()
	if err != nil {
		// The sample is compiled in; a decode failure is a build defect.
		panic(err)
	}
	return append([]model.DebrisRecord(nil), recs...)
}

// Fetcher supplies raw element sets. *feed.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context) ([]model.RawElementSet, error)
}

// Result is the outcome of a load.
type Result struct {
	Records  []model.DebrisRecord
	Source   Source
	Notice   string
	LoadedAt time.Time
	// LiveErr is the reason the live attempt was abandoned, if it was.
	LiveErr error
}

// Recorder persists load outcomes.
type Recorder interface {
	RecordLoad(ctx context.Context, res Result) error
}

// Metrics receives load measurements. *observability.IngestCollector
// satisfies it.
type Metrics interface {
	ObserveLoad(source string, records int, d time.Duration)
	AddDerived(n int)
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithPositionSource overrides the placeholder coordinate source.
func WithPositionSource(p core.PositionSource) Option {
	return func(a *Adapter) {
		if p != nil {
			a.positions = p
		}
	}
}

// WithRecorder journals every load.
func WithRecorder(r Recorder) Option {
	return func(a *Adapter) { a.recorder = r }
}

// WithMetrics records load measurements.
func WithMetrics(m Metrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l
		}
	}
}

// WithProgress reports derivation progress as done/total.
func WithProgress(fn func(done, total int)) Option {
	return func(a *Adapter) { a.progress = fn }
}

// Adapter performs the session's single load.
type Adapter struct {
	fetcher   Fetcher
	positions core.PositionSource
	recorder  Recorder
	metrics   Metrics
	log       logging.Logger
	progress  func(done, total int)
	now       func() time.Time

	once   sync.Once
	result Result
}

// NewAdapter builds an adapter. A nil fetcher goes straight to the sample.
func NewAdapter(f Fetcher, opts ...Option) *Adapter {
	a := &Adapter{
		fetcher:   f,
		positions: core.NewRandomPlaceholder(time.Now().UnixNano()),
		log:       logging.Noop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Load runs the single load attempt. Later calls return the first result
// without touching the network again. It never fails: any live error falls
// back to the sample set.
func (a *Adapter) Load(ctx context.Context) Result {
	a.once.Do(func() {
		a.result = a.load(ctx)
	})
	res := a.result
	res.Records = append([]model.DebrisRecord(nil), res.Records...)
	return res
}

func (a *Adapter) load(ctx context.Context) Result {
	ctx, span := otel.Tracer("orbitwatch/ingest").Start(ctx, "ingest.Load")
	defer span.End()

	start := time.Now()
	res, err := a.loadLive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "live load failed")
		a.log.Warn(ctx, "live element feed unavailable; using sample data", logging.Err(err))
		res = Result{
			Records: SampleRecords(),
			Source:  SourceFallback,
			Notice:  FallbackNotice,
			LiveErr: err,
		}
	}
	res.LoadedAt = a.now()

	span.SetAttributes(
		attribute.String("orbitwatch.source", string(res.Source)),
		attribute.Int("orbitwatch.records", len(res.Records)),
	)
	if a.metrics != nil {
		a.metrics.ObserveLoad(string(res.Source), len(res.Records), time.Since(start))
	}
	a.log.Info(ctx, "catalog loaded",
		logging.String("source", string(res.Source)),
		logging.Int("records", len(res.Records)),
	)

	if a.recorder != nil {
		// A load cut short by shutdown is still journaled.
		if err := a.recorder.RecordLoad(context.WithoutCancel(ctx), res); err != nil {
			a.log.Warn(ctx, "failed to journal load", logging.Err(err))
		}
	}
	return res
}

func (a *Adapter) loadLive(ctx context.Context) (Result, error) {
	if a.fetcher == nil {
		return Result{}, ErrNoLiveSource
	}
	raw, err := a.fetcher.Fetch(ctx)
	if err != nil {
		return Result{}, err
	}

	recs := Derive(raw, a.positions, a.progress)
	if a.metrics != nil {
		a.metrics.AddDerived(len(recs))
	}
	return Result{Records: recs, Source: SourceLive}, nil
}

// Derive maps raw element sets to records in input order. progress may be
// nil.
func Derive(raw []model.RawElementSet, positions core.PositionSource, progress func(done, total int)) []model.DebrisRecord {
	recs := make([]model.DebrisRecord, 0, len(raw))
	for i, r := range raw {
		recs = append(recs, core.DeriveRecord(r, positions.Place(r), positions.Placeholder()))
		if progress != nil {
			progress(i+1, len(raw))
		}
	}
	return recs
}
