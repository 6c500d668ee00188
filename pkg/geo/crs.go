package geo

import "fmt"

// CRS identifies a coordinate reference system by its EPSG code.
// Equality is equality of codes.
type CRS int

const (
	// WebMercator is the spherical-mercator projection used by web tile
	// pyramids (EPSG:3857), units in meters.
	WebMercator CRS = 3857

	// WGS84 is the geographic longitude/latitude system (EPSG:4326),
	// units in degrees.
	WGS84 CRS = 4326
)

func (c CRS) String() string {
	return fmt.Sprintf("EPSG:%d", int(c))
}

// IsGeographic reports whether coordinates in this CRS are degrees rather
// than linear units.
func (c CRS) IsGeographic() bool {
	return c == WGS84
}
