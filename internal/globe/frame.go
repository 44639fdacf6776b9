package globe

import (
	"math"

	"github.com/signalsfoundry/orbitwatch/core"
	"github.com/signalsfoundry/orbitwatch/internal/view"
)

// Cell is one character of a rendered frame.
type Cell struct {
	Rune rune
	// Color is set for marker cells.
	Color  view.Color
	Marker bool
}

// Frame is a rendered grid, row-major.
type Frame struct {
	Width, Height int
	Cells         [][]Cell
}

// Graticule spacing in degrees.
const gridStepDeg = 30

// Render draws the graticule and every visible marker. Later markers are
// drawn over earlier ones, which is also the order PickAt searches in
// reverse.
func (s *Surface) Render() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := Frame{Width: s.width, Height: s.height, Cells: make([][]Cell, s.height)}
	for row := range f.Cells {
		f.Cells[row] = make([]Cell, s.width)
		for col := range f.Cells[row] {
			f.Cells[row][col] = Cell{Rune: ' '}
		}
	}

	s.drawGraticuleLocked(f)

	camECEF := core.GeodeticToECEF(s.camera.geodetic())
	for _, m := range s.markers {
		p, ok := s.projectLocked(m.Position)
		if !ok {
			continue
		}
		f.Cells[int(p.Y)][int(p.X)] = Cell{
			Rune:   glyph(s.effectiveSizeLocked(m, camECEF)),
			Color:  m.Style.Color,
			Marker: true,
		}
	}
	return f
}

func (s *Surface) drawGraticuleLocked(f Frame) {
	for lat := -90.0; lat <= 90; lat += gridStepDeg {
		for lon := -180.0; lon < 180; lon += 2 {
			s.plotLocked(f, lat, lon, lineRune(lat))
		}
	}
	for lon := -180.0; lon < 180; lon += gridStepDeg {
		for lat := -90.0; lat <= 90; lat++ {
			s.plotLocked(f, lat, lon, '¦')
		}
	}
}

func (s *Surface) plotLocked(f Frame, lat, lon float64, r rune) {
	p, ok := s.projectLocked(core.Geodetic{LatitudeDeg: lat, LongitudeDeg: lon})
	if !ok {
		return
	}
	c := &f.Cells[int(p.Y)][int(p.X)]
	if c.Rune != ' ' && c.Rune != r {
		c.Rune = '+'
		return
	}
	c.Rune = r
}

func lineRune(lat float64) rune {
	if math.Abs(lat) < 1e-9 {
		return '═'
	}
	return '─'
}

func glyph(size float64) rune {
	switch {
	case size >= 8:
		return '◉'
	case size >= 4:
		return '●'
	default:
		return '•'
	}
}

// String renders the frame without color, one line per row.
func (f Frame) String() string {
	buf := make([]rune, 0, (f.Width+1)*f.Height)
	for i, row := range f.Cells {
		if i > 0 {
			buf = append(buf, '\n')
		}
		for _, c := range row {
			buf = append(buf, c.Rune)
		}
	}
	return string(buf)
}
