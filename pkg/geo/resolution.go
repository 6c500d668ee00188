package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// EarthRadius is the WGS84 semi-major axis in meters, also the radius of
// the spherical-mercator sphere.
const EarthRadius = 6378137.0

// Resolution returns the per-axis pixel size, in CRS units, implied by
// placing bounds over a raster of the given shape.
func Resolution(b BoundingBox, s Shape) (xres, yres float64, err error) {
	if _, err := NewShape(s.Height, s.Width); err != nil {
		return 0, 0, err
	}
	t := AffineFromBounds(b, s)
	return math.Abs(t.A), math.Abs(t.E), nil
}

// ResolutionMeters returns the per-axis pixel size in meters. For a
// geographic CRS the ground distance is measured along great circles
// through the midpoints of the bounds; for a projected CRS the units are
// already meters and Resolution applies directly.
func ResolutionMeters(b BoundingBox, crs CRS, s Shape) (xres, yres float64, err error) {
	if _, err := NewShape(s.Height, s.Width); err != nil {
		return 0, 0, err
	}

	if crs.IsGeographic() {
		midX := (b.Left + b.Right) / 2
		midY := (b.Bottom + b.Top) / 2

		ew := orbgeo.Distance(orb.Point{b.Left, midY}, orb.Point{b.Right, midY})
		ns := orbgeo.Distance(orb.Point{midX, b.Top}, orb.Point{midX, b.Bottom})

		return ew / float64(s.Width), ns / float64(s.Height), nil
	}

	return Resolution(b, s)
}

// Rounding picks how a fractional zoom level becomes an integer.
type Rounding func(float64) float64

// ZoomFor maps a ground resolution in meters per pixel to a tile-pyramid
// zoom level. Use math.Round for display, math.Ceil when the destination
// grid must be at least as fine as a source's native resolution.
func ZoomFor(resolution float64, round Rounding) int {
	return int(round(math.Log2((2 * math.Pi * EarthRadius) / (resolution * 256))))
}
