package view

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/signalsfoundry/orbitwatch/catalog"
	"github.com/signalsfoundry/orbitwatch/core"
	"github.com/signalsfoundry/orbitwatch/internal/logging"
	"github.com/signalsfoundry/orbitwatch/model"
	"github.com/signalsfoundry/orbitwatch/timectrl"
)

// Options tune the synchronizer's fixed interaction constants.
type Options struct {
	// TooltipOffset is added to the pointer position when placing a tooltip.
	TooltipOffset ScreenPoint
	// FocusAltitudeOffsetKm is added to a record's altitude for the camera.
	FocusAltitudeOffsetKm float64
	// FocusDuration is the nominal flight time.
	FocusDuration time.Duration
	// IdleResumeDelay is waited after the nominal flight before idle motion
	// resumes.
	IdleResumeDelay time.Duration
}

// DefaultOptions returns the standard interaction constants.
func DefaultOptions() Options {
	return Options{
		TooltipOffset:         ScreenPoint{X: 15, Y: -10},
		FocusAltitudeOffsetKm: 2000,
		FocusDuration:         2 * time.Second,
		IdleResumeDelay:       time.Second,
	}
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithOptions overrides the interaction constants.
func WithOptions(o Options) Option {
	return func(s *Synchronizer) { s.opts = o }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.log = l
		}
	}
}

// Synchronizer pushes the filtered catalog to the surface and presenter and
// keeps hover and selection state consistent with pointer input. All methods
// are safe for concurrent use, but callers are expected to deliver input from
// a single loop.
type Synchronizer struct {
	mu sync.Mutex

	surface   Surface
	idle      IdleMotion
	presenter Presenter
	clock     timectrl.Clock
	log       logging.Logger
	opts      Options

	records map[MarkerID]model.DebrisRecord
	order   []MarkerID

	hovered    MarkerID
	hasHover   bool
	selected   model.DebrisRecord
	hasSelect  bool
	detailOpen bool

	resume   timectrl.Timer
	focusGen uint64
}

// New wires a synchronizer. surface may be nil until the rendering surface
// is ready; see AttachSurface.
func New(surface Surface, presenter Presenter, clock timectrl.Clock, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		presenter: presenter,
		clock:     clock,
		log:       logging.Noop(),
		opts:      DefaultOptions(),
		records:   make(map[MarkerID]model.DebrisRecord),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.attach(surface)
	return s
}

// AttachSurface installs (or replaces) the rendering surface. Markers are
// not replayed; the next render populates it.
func (s *Synchronizer) AttachSurface(surface Surface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attach(surface)
}

func (s *Synchronizer) attach(surface Surface) {
	s.surface = surface
	s.idle = nil
	if surface == nil {
		return
	}
	if idle, ok := surface.(IdleMotion); ok {
		s.idle = idle
	}
}

// HandleEvent renders the filtered subset carried by a store event.
func (s *Synchronizer) HandleEvent(ev catalog.Event) {
	s.Render(ev.Filtered)
}

// Render replaces every marker and rebuilds the table from records, in order.
// Hover and selection are cleared.
func (s *Synchronizer) Render(records []model.DebrisRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[MarkerID]model.DebrisRecord, len(records))
	s.order = s.order[:0]
	markers := make([]Marker, 0, len(records))
	for _, r := range records {
		id := MarkerID(uuid.NewString())
		s.records[id] = r
		s.order = append(s.order, id)
		markers = append(markers, Marker{
			ID:       id,
			Position: core.Geodetic{LatitudeDeg: r.Latitude, LongitudeDeg: r.Longitude, AltitudeKm: r.AltitudeKm},
			Style:    StyleFor(r.RiskTier),
		})
	}

	if s.hasHover && s.presenter != nil {
		s.presenter.HideTooltip()
	}
	s.hasHover = false
	s.hovered = ""
	s.hasSelect = false
	s.selected = model.DebrisRecord{}

	if s.surface == nil {
		s.log.Warn(context.Background(), "rendering surface not ready; skipping marker update",
			logging.Int("records", len(records)),
		)
	} else {
		s.surface.SetMarkers(markers)
	}

	if s.presenter != nil {
		s.presenter.RenderTable(append([]model.DebrisRecord(nil), records...))
	}
}

// PointerMove resolves the marker under the pointer and updates hover state.
func (s *Synchronizer) PointerMove(at ScreenPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface == nil {
		return
	}

	id, ok := s.surface.PickAt(at)
	rec, known := s.records[id]
	if !ok || !known {
		s.clearHoverLocked()
		return
	}

	if s.hasHover && s.hovered != id {
		if prev, ok := s.records[s.hovered]; ok {
			s.surface.ResizeMarker(s.hovered, BaseSize(prev.RiskTier))
		}
	}
	s.hovered = id
	s.hasHover = true
	s.surface.ResizeMarker(id, BaseSize(rec.RiskTier)*2)
	if s.presenter != nil {
		s.presenter.ShowTooltip(Tooltip{Record: rec, At: at.Add(s.opts.TooltipOffset)})
	}
}

// clearHoverLocked resets every marker, not just the last hovered one:
// pointer transitions are not guaranteed to arrive in pairs.
func (s *Synchronizer) clearHoverLocked() {
	s.hasHover = false
	s.hovered = ""
	if s.presenter != nil {
		s.presenter.HideTooltip()
	}
	for _, id := range s.order {
		s.surface.ResizeMarker(id, BaseSize(s.records[id].RiskTier))
	}
}

// PointerClick selects the record under the pointer, opens its detail panel
// and focuses the camera on it. A click on empty space does nothing.
func (s *Synchronizer) PointerClick(at ScreenPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface == nil {
		s.log.Debug(context.Background(), "click ignored; rendering surface not ready")
		return
	}

	id, ok := s.surface.PickAt(at)
	rec, known := s.records[id]
	if !ok || !known {
		return
	}

	s.selected = rec
	s.hasSelect = true
	if s.presenter != nil {
		if s.detailOpen {
			s.presenter.CloseDetail()
		}
		s.presenter.ShowDetail(DetailPanel{Record: rec, Advisory: Advisory(rec.RiskTier)})
		s.detailOpen = true
	}
	s.focusLocked(rec)
}

// Focus flies the camera to rec without touching the detail panel.
func (s *Synchronizer) Focus(rec model.DebrisRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface == nil {
		s.log.Debug(context.Background(), "focus ignored; rendering surface not ready",
			logging.Int("catalog_id", rec.CatalogID),
		)
		return
	}
	s.focusLocked(rec)
}

func (s *Synchronizer) focusLocked(rec model.DebrisRecord) {
	target := core.Geodetic{
		LatitudeDeg:  rec.Latitude,
		LongitudeDeg: rec.Longitude,
		AltitudeKm:   rec.AltitudeKm + s.opts.FocusAltitudeOffsetKm,
	}
	s.surface.FlyTo(target, s.opts.FocusDuration)

	if s.idle == nil {
		return
	}
	s.idle.SetIdleMotion(false)

	if s.resume != nil {
		s.resume.Stop()
		s.resume = nil
	}
	if s.clock == nil {
		return
	}
	s.focusGen++
	gen := s.focusGen
	idle := s.idle
	// Resumes on a fixed schedule whether or not the flight has landed.
	s.resume = s.clock.AfterFunc(s.opts.FocusDuration+s.opts.IdleResumeDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.focusGen {
			return
		}
		s.resume = nil
		idle.SetIdleMotion(true)
	})
}

// CloseDetail removes the detail panel if one is open.
func (s *Synchronizer) CloseDetail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.detailOpen {
		return
	}
	s.detailOpen = false
	s.hasSelect = false
	s.selected = model.DebrisRecord{}
	if s.presenter != nil {
		s.presenter.CloseDetail()
	}
}

// Hovered returns the record under the pointer, if any.
func (s *Synchronizer) Hovered() (model.DebrisRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasHover {
		return model.DebrisRecord{}, false
	}
	rec, ok := s.records[s.hovered]
	return rec, ok
}

// Selected returns the clicked record, if any.
func (s *Synchronizer) Selected() (model.DebrisRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.hasSelect
}

// DetailOpen reports whether a detail panel is showing.
func (s *Synchronizer) DetailOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detailOpen
}
