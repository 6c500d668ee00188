// Package xform holds the built-in post-read transformations. Each one
// implements render.Transformation: it receives the composited masked
// array and owns the output DataFormat semantics.
package xform

import (
	"fmt"
	"math"

	"github.com/iandees/marblecutter/pkg/geo"
)

// Hillshade shades single-band elevation with Horn's method. The 3x3
// kernel reads past the request on every side, so it declares a context
// buffer and lets the orchestrator crop it back off.
type Hillshade struct {
	// Azimuth and Altitude position the light source, in degrees.
	Azimuth, Altitude float64

	// ZFactor converts elevation units to the horizontal CRS units.
	ZFactor float64
}

func NewHillshade() *Hillshade {
	return &Hillshade{Azimuth: 315, Altitude: 45, ZFactor: 1}
}

func (h *Hillshade) Buffer() int {
	return 4
}

func (h *Hillshade) Apply(data *geo.MaskedArray, bounds geo.BoundingBox, crs geo.CRS) (*geo.MaskedArray, geo.DataFormat, error) {
	if data.Bands != 1 {
		return nil, geo.FormatRaw, fmt.Errorf("hillshade: want 1 band, got %d", data.Bands)
	}

	shape := geo.Shape{Height: data.Height, Width: data.Width}
	resX, resY, err := geo.Resolution(bounds, shape)
	if err != nil {
		return nil, geo.FormatRaw, err
	}

	az := (h.Azimuth - 90) * math.Pi / 180 // light direction in math convention
	alt := h.Altitude * math.Pi / 180

	out := geo.NewMaskedArray(1, data.Height, data.Width)

	// masked neighbors carry no meaningful elevation; substitute the
	// center value for them the same way edges clamp
	at := func(r, c int, center float64) float64 {
		if r < 0 {
			r = 0
		}
		if r >= data.Height {
			r = data.Height - 1
		}
		if c < 0 {
			c = 0
		}
		if c >= data.Width {
			c = data.Width - 1
		}
		j := data.Idx(0, r, c)
		if data.Mask[j] {
			return center
		}
		return float64(data.Data[j])
	}

	for r := 0; r < data.Height; r++ {
		for c := 0; c < data.Width; c++ {
			i := data.Idx(0, r, c)
			if data.Mask[i] {
				continue
			}
			z := float64(data.Data[i])

			// Horn's weighted differences over the 3x3 neighborhood
			dzdx := ((at(r-1, c+1, z) + 2*at(r, c+1, z) + at(r+1, c+1, z)) -
				(at(r-1, c-1, z) + 2*at(r, c-1, z) + at(r+1, c-1, z))) / (8 * resX)
			dzdy := ((at(r+1, c-1, z) + 2*at(r+1, c, z) + at(r+1, c+1, z)) -
				(at(r-1, c-1, z) + 2*at(r-1, c, z) + at(r-1, c+1, z))) / (8 * resY)
			dzdx *= h.ZFactor
			dzdy *= h.ZFactor

			slope := math.Atan(math.Hypot(dzdx, dzdy))
			aspect := math.Atan2(dzdy, -dzdx)

			shaded := math.Sin(alt)*math.Cos(slope) +
				math.Cos(alt)*math.Sin(slope)*math.Cos(az-aspect)
			if shaded < 0 {
				shaded = 0
			}

			out.Data[i] = float32(255 * shaded)
			out.Mask[i] = false
		}
	}

	return out, geo.FormatRaw, nil
}
