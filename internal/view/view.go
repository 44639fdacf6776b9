// Package view keeps the map surface, table, tooltip and detail panel
// consistent with the filtered catalog and with pointer input.
package view

import (
	"time"

	"github.com/signalsfoundry/orbitwatch/core"
	"github.com/signalsfoundry/orbitwatch/model"
)

// MarkerID identifies a marker on a surface. IDs are opaque and change on
// every render.
type MarkerID string

// ScreenPoint is a position in surface screen units.
type ScreenPoint struct {
	X, Y float64
}

// Add offsets p by d.
func (p ScreenPoint) Add(d ScreenPoint) ScreenPoint {
	return ScreenPoint{X: p.X + d.X, Y: p.Y + d.Y}
}

// Marker is one positioned, styled point. It carries no domain record; the
// synchronizer maps IDs back to records.
type Marker struct {
	ID       MarkerID
	Position core.Geodetic
	Style    MarkerStyle
}

// Surface is the rendering collaborator.
type Surface interface {
	// SetMarkers replaces every marker on the surface.
	SetMarkers(markers []Marker)
	// PickAt reports the marker under a screen point, if any.
	PickAt(at ScreenPoint) (MarkerID, bool)
	// ResizeMarker changes one marker's base size.
	ResizeMarker(id MarkerID, size float64)
	// FlyTo animates the viewpoint to target over d. It does not block.
	FlyTo(target core.Geodetic, d time.Duration)
}

// IdleMotion is implemented by surfaces with an ambient camera motion.
type IdleMotion interface {
	SetIdleMotion(enabled bool)
}

// Tooltip is a transient hover label.
type Tooltip struct {
	Record model.DebrisRecord
	At     ScreenPoint
}

// DetailPanel is the persistent panel opened by a click.
type DetailPanel struct {
	Record   model.DebrisRecord
	Advisory string
}

// Presenter renders the non-map widgets.
type Presenter interface {
	RenderTable(records []model.DebrisRecord)
	ShowTooltip(t Tooltip)
	HideTooltip()
	ShowDetail(p DetailPanel)
	CloseDetail()
}
