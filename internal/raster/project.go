package raster

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/iandees/marblecutter/pkg/geo"
)

// Reproject converts a coordinate between the registered CRSs.
func Reproject(x, y float64, from, to geo.CRS) (float64, float64, error) {
	if from == to {
		return x, y, nil
	}

	switch {
	case from == geo.WGS84 && to == geo.WebMercator:
		p := project.WGS84.ToMercator(orb.Point{x, y})
		return p[0], p[1], nil
	case from == geo.WebMercator && to == geo.WGS84:
		p := project.Mercator.ToWGS84(orb.Point{x, y})
		return p[0], p[1], nil
	}

	return 0, 0, fmt.Errorf("%w: cannot reproject %s to %s", geo.ErrUnsupportedCRS, from, to)
}

// ReprojectBounds converts a box between CRSs by mapping its corners.
// Sufficient for the axis-aligned projections registered here.
func ReprojectBounds(b geo.BoundingBox, from, to geo.CRS) (geo.BoundingBox, error) {
	if from == to {
		return b, nil
	}

	left, bottom, err := Reproject(b.Left, b.Bottom, from, to)
	if err != nil {
		return geo.BoundingBox{}, err
	}
	right, top, err := Reproject(b.Right, b.Top, from, to)
	if err != nil {
		return geo.BoundingBox{}, err
	}

	return geo.BoundingBox{Left: left, Bottom: bottom, Right: right, Top: top}, nil
}
