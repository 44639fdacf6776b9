package core

import (
	"math/rand"
	"sync"

	"github.com/signalsfoundry/orbitwatch/model"
)

// PositionSource assigns a surface coordinate to a freshly derived record.
type PositionSource interface {
	Place(raw model.RawElementSet) LatLon
	// Placeholder reports whether the coordinates it hands out are made up.
	Placeholder() bool
}

// RandomPlaceholder draws latitude uniformly from [-90, 90) and longitude
// from [-180, 180). It stands in for a ground-track position, which would
// need orbit propagation.
type RandomPlaceholder struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPlaceholder seeds a placeholder source. Tests pass a fixed seed.
func NewRandomPlaceholder(seed int64) *RandomPlaceholder {
	return &RandomPlaceholder{rng: rand.New(rand.NewSource(seed))}
}

// Place ignores the element set and returns a random coordinate.
func (p *RandomPlaceholder) Place(model.RawElementSet) LatLon {
	p.mu.Lock()
	defer p.mu.Unlock()
	return LatLon{
		Lat: p.rng.Float64()*180 - 90,
		Lon: p.rng.Float64()*360 - 180,
	}
}

// Placeholder is always true.
func (p *RandomPlaceholder) Placeholder() bool { return true }

// FixedPosition places every record at the same coordinate.
type FixedPosition struct {
	At LatLon
}

// Place returns the fixed coordinate.
func (f FixedPosition) Place(model.RawElementSet) LatLon { return f.At }

// Placeholder is true: a fixed point is no more real than a random one.
func (f FixedPosition) Placeholder() bool { return true }
