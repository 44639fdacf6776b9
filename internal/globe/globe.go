// Package globe is a headless rendering surface: an equirectangular map
// drawn into a grid of terminal cells, with a camera that can fly to a
// target and drift while idle.
package globe

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/signalsfoundry/orbitwatch/core"
	"github.com/signalsfoundry/orbitwatch/internal/logging"
	"github.com/signalsfoundry/orbitwatch/internal/view"
	"github.com/signalsfoundry/orbitwatch/timectrl"
)

const (
	// FullViewAltitudeKm is the camera altitude at which the whole 360°
	// longitude span fits the grid.
	FullViewAltitudeKm = 25_000
	minSpanDeg         = 10.0
	// DefaultIdleRateDegPerSec matches a slow eastward drift.
	DefaultIdleRateDegPerSec = 1.0
	// pickDivisor converts an effective point size to a cell radius.
	pickDivisor = 8
)

// Camera is the viewpoint above the map.
type Camera struct {
	LatitudeDeg  float64
	LongitudeDeg float64
	AltitudeKm   float64
}

func (c Camera) geodetic() core.Geodetic {
	return core.Geodetic{LatitudeDeg: c.LatitudeDeg, LongitudeDeg: c.LongitudeDeg, AltitudeKm: c.AltitudeKm}
}

type flight struct {
	from, to Camera
	start    time.Time
	dur      time.Duration
}

// Config configures a Surface.
type Config struct {
	Width, Height     int
	Camera            Camera
	IdleRateDegPerSec float64
	IdleMotion        bool
}

// Surface implements view.Surface and view.IdleMotion.
type Surface struct {
	mu sync.Mutex

	width, height int
	camera        Camera
	idleRate      float64
	idle          bool

	markers []view.Marker
	sizes   map[view.MarkerID]float64

	flight   *flight
	lastTick time.Time

	clock timectrl.Clock
	log   logging.Logger
}

// New builds a surface driven by clock. A zero Camera altitude defaults to
// the full view.
func New(cfg Config, clock timectrl.Clock, log logging.Logger) *Surface {
	if log == nil {
		log = logging.Noop()
	}
	if cfg.Camera.AltitudeKm <= 0 {
		cfg.Camera.AltitudeKm = FullViewAltitudeKm
	}
	if cfg.IdleRateDegPerSec == 0 {
		cfg.IdleRateDegPerSec = DefaultIdleRateDegPerSec
	}
	s := &Surface{
		camera:   cfg.Camera,
		idleRate: cfg.IdleRateDegPerSec,
		idle:     cfg.IdleMotion,
		sizes:    make(map[view.MarkerID]float64),
		clock:    clock,
		log:      log,
	}
	s.resizeLocked(cfg.Width, cfg.Height)
	if clock != nil {
		s.lastTick = clock.Now()
	}
	return s
}

// Resize changes the grid size in cells.
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resizeLocked(width, height)
}

func (s *Surface) resizeLocked(width, height int) {
	s.width = max(width, 1)
	s.height = max(height, 1)
}

// Size returns the grid size in cells.
func (s *Surface) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Camera returns the current viewpoint.
func (s *Surface) Camera() Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera
}

// SetMarkers replaces every marker.
func (s *Surface) SetMarkers(markers []view.Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = append([]view.Marker(nil), markers...)
	s.sizes = make(map[view.MarkerID]float64, len(markers))
	for _, m := range markers {
		s.sizes[m.ID] = m.Style.Size
	}
}

// ResizeMarker changes a marker's base size. Unknown IDs are ignored.
func (s *Surface) ResizeMarker(id view.MarkerID, size float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sizes[id]; ok {
		s.sizes[id] = size
	}
}

// MarkerSize returns a marker's current base size.
func (s *Surface) MarkerSize(id view.MarkerID) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	size, ok := s.sizes[id]
	return size, ok
}

// PickAt returns the topmost marker whose footprint covers the cell at.
func (s *Surface) PickAt(at view.ScreenPoint) (view.MarkerID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, row := int(math.Floor(at.X)), int(math.Floor(at.Y))
	cam := s.camera.geodetic()
	camECEF := core.GeodeticToECEF(cam)
	for i := len(s.markers) - 1; i >= 0; i-- {
		m := s.markers[i]
		p, ok := s.projectLocked(m.Position)
		if !ok {
			continue
		}
		r := int(s.effectiveSizeLocked(m, camECEF) / pickDivisor)
		mc, mr := int(p.X), int(p.Y)
		if abs(col-mc) <= r && abs(row-mr) <= r {
			return m.ID, true
		}
	}
	return "", false
}

// FlyTo starts a camera flight. The flight is advanced by Tick.
func (s *Surface) FlyTo(target core.Geodetic, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	to := Camera{LatitudeDeg: target.LatitudeDeg, LongitudeDeg: target.LongitudeDeg, AltitudeKm: target.AltitudeKm}
	if d <= 0 || s.clock == nil {
		s.camera = normalize(to)
		s.flight = nil
		return
	}
	s.flight = &flight{from: s.camera, to: to, start: s.clock.Now(), dur: d}
	s.log.Debug(context.Background(), "camera flight started",
		logging.Float("lat", to.LatitudeDeg),
		logging.Float("lon", to.LongitudeDeg),
		logging.Float("alt_km", to.AltitudeKm),
	)
}

// Flying reports whether a flight is in progress.
func (s *Surface) Flying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flight != nil
}

// SetIdleMotion implements view.IdleMotion.
func (s *Surface) SetIdleMotion(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idle = enabled
}

// IdleMotion reports whether idle drift is enabled.
func (s *Surface) IdleMotion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idle
}

// Tick advances any flight and the idle drift to now. It is registered as a
// time controller listener.
func (s *Surface) Tick(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dt := now.Sub(s.lastTick)
	s.lastTick = now
	if dt < 0 {
		dt = 0
	}

	if f := s.flight; f != nil {
		t := float64(now.Sub(f.start)) / float64(f.dur)
		if t >= 1 {
			s.camera = normalize(f.to)
			s.flight = nil
		} else {
			s.camera = normalize(interpolate(f.from, f.to, math.Max(t, 0)))
		}
		return
	}

	if s.idle {
		s.camera.LongitudeDeg = wrapLon(s.camera.LongitudeDeg + s.idleRate*dt.Seconds())
	}
}

// Project maps a geodetic position to a cell, reporting whether it falls
// inside the grid.
func (s *Surface) Project(g core.Geodetic) (view.ScreenPoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectLocked(g)
}

func (s *Surface) spanLocked() (lonSpan, latSpan float64) {
	lonSpan = 360 * s.camera.AltitudeKm / FullViewAltitudeKm
	lonSpan = math.Min(math.Max(lonSpan, minSpanDeg), 360)
	return lonSpan, lonSpan / 2
}

func (s *Surface) projectLocked(g core.Geodetic) (view.ScreenPoint, bool) {
	lonSpan, latSpan := s.spanLocked()
	dLon := wrapLon(g.LongitudeDeg - s.camera.LongitudeDeg)
	dLat := g.LatitudeDeg - s.camera.LatitudeDeg

	x := (dLon/lonSpan + 0.5) * float64(s.width)
	y := (0.5 - dLat/latSpan) * float64(s.height)
	p := view.ScreenPoint{X: math.Floor(x), Y: math.Floor(y)}
	if p.X < 0 || p.Y < 0 || p.X >= float64(s.width) || p.Y >= float64(s.height) {
		return p, false
	}
	return p, true
}

func (s *Surface) effectiveSizeLocked(m view.Marker, camECEF core.Vec3) float64 {
	dist := camECEF.DistanceTo(core.GeodeticToECEF(m.Position))
	return s.sizes[m.ID] * m.Style.Scale.Scale(dist)
}

func interpolate(a, b Camera, t float64) Camera {
	dLon := wrapLon(b.LongitudeDeg - a.LongitudeDeg)
	return Camera{
		LatitudeDeg:  a.LatitudeDeg + (b.LatitudeDeg-a.LatitudeDeg)*t,
		LongitudeDeg: a.LongitudeDeg + dLon*t,
		AltitudeKm:   a.AltitudeKm + (b.AltitudeKm-a.AltitudeKm)*t,
	}
}

func normalize(c Camera) Camera {
	c.LatitudeDeg = math.Max(-90, math.Min(90, c.LatitudeDeg))
	c.LongitudeDeg = wrapLon(c.LongitudeDeg)
	return c
}

// wrapLon maps a longitude into [-180, 180).
func wrapLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
