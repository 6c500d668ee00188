package geo

// MercatorTileBounds returns the spherical-mercator bounds of tile (x, y)
// at the given zoom in the standard power-of-two pyramid.
func MercatorTileBounds(zoom, x, y int) BoundingBox {
	size := (2 * OriginShift) / float64(int64(1)<<uint(zoom))
	left := -OriginShift + float64(x)*size
	top := OriginShift - float64(y)*size
	return BoundingBox{Left: left, Bottom: top - size, Right: left + size, Top: top}
}
