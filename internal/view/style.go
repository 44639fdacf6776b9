package view

import (
	"fmt"

	"github.com/signalsfoundry/orbitwatch/model"
)

// Color is an RGB color with an alpha in [0, 1].
type Color struct {
	R, G, B uint8
	A       float64
}

// Hex renders the color as #rrggbb, dropping alpha.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// WithAlpha returns a copy of c with alpha a.
func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

// NearFarScalar scales a value by camera distance: NearValue at or below
// Near, FarValue at or beyond Far, linear in between. Distances are in km.
type NearFarScalar struct {
	Near      float64
	NearValue float64
	Far       float64
	FarValue  float64
}

// Scale returns the multiplier for a camera distance.
func (n NearFarScalar) Scale(distanceKm float64) float64 {
	if n.Far <= n.Near {
		return n.NearValue
	}
	switch {
	case distanceKm <= n.Near:
		return n.NearValue
	case distanceKm >= n.Far:
		return n.FarValue
	}
	t := (distanceKm - n.Near) / (n.Far - n.Near)
	return n.NearValue + t*(n.FarValue-n.NearValue)
}

// MarkerStyle is everything the surface needs to draw one point.
type MarkerStyle struct {
	Color        Color
	Outline      Color
	OutlineWidth float64
	Size         float64
	Scale        NearFarScalar
}

var (
	colorHigh   = Color{R: 0xff, G: 0x00, B: 0x00, A: 0.9}
	colorMedium = Color{R: 0xff, G: 0xff, B: 0x00, A: 0.8}
	colorLow    = Color{R: 0x00, G: 0xff, B: 0x88, A: 0.7}
)

// DistanceScale is full size within 1,000 km of the camera and half size
// beyond 50,000 km.
var DistanceScale = NearFarScalar{Near: 1_000, NearValue: 1, Far: 50_000, FarValue: 0.5}

// TierColor returns the marker color for a tier.
func TierColor(t model.RiskTier) Color {
	switch t {
	case model.RiskHigh:
		return colorHigh
	case model.RiskMedium:
		return colorMedium
	default:
		return colorLow
	}
}

// BaseSize is the tier-default point size in surface units.
func BaseSize(t model.RiskTier) float64 {
	switch t {
	case model.RiskHigh:
		return 6
	case model.RiskMedium:
		return 4
	default:
		return 3
	}
}

// StyleFor maps a tier to its marker style.
func StyleFor(t model.RiskTier) MarkerStyle {
	c := TierColor(t)
	return MarkerStyle{
		Color:        c,
		Outline:      c.WithAlpha(0.3),
		OutlineWidth: 2,
		Size:         BaseSize(t),
		Scale:        DistanceScale,
	}
}

// Advisory is the detail-panel message for a tier.
func Advisory(t model.RiskTier) string {
	switch t {
	case model.RiskHigh:
		return "Critical zone — below 500km. High collision probability."
	case model.RiskMedium:
		return "Caution zone — active satellite region."
	default:
		return "Lower risk zone — less congested orbit."
	}
}
