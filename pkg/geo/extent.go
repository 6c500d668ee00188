package geo

import (
	"errors"
	"fmt"
)

// ErrUnsupportedCRS is returned when a CRS has no registered world extent.
var ErrUnsupportedCRS = errors.New("unsupported CRS")

// OriginShift is half the circumference of the spherical-mercator world,
// i.e. 2 * pi * 6378137 / 2.
const OriginShift = 20037508.342789244

// extents is the full valid world extent per known CRS. Built once; never
// mutated at runtime.
var extents = map[CRS]BoundingBox{
	WebMercator: {Left: -OriginShift, Bottom: -OriginShift, Right: OriginShift, Top: OriginShift},
	WGS84:       {Left: -180, Bottom: -90, Right: 180, Top: 90},
}

// Extent returns the full valid world extent for a known CRS.
func Extent(crs CRS) (BoundingBox, error) {
	extent, ok := extents[crs]
	if !ok {
		return BoundingBox{}, fmt.Errorf("%w: %s", ErrUnsupportedCRS, crs)
	}
	return extent, nil
}
