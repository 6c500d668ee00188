package geo

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBounds is returned for a box whose edges are out of order.
	ErrInvalidBounds = errors.New("invalid bounds")

	// ErrInvalidShape is returned for a shape with a non-positive dimension.
	ErrInvalidShape = errors.New("invalid shape")
)

// BoundingBox is an axis-aligned box in some CRS. Invariant: Left < Right
// and Bottom < Top.
type BoundingBox struct {
	Left, Bottom, Right, Top float64
}

// NewBoundingBox validates edge ordering.
func NewBoundingBox(left, bottom, right, top float64) (BoundingBox, error) {
	if left >= right || bottom >= top {
		return BoundingBox{}, fmt.Errorf("%w: (%v, %v, %v, %v)", ErrInvalidBounds, left, bottom, right, top)
	}
	return BoundingBox{Left: left, Bottom: bottom, Right: right, Top: top}, nil
}

func (b BoundingBox) Width() float64 {
	return b.Right - b.Left
}

func (b BoundingBox) Height() float64 {
	return b.Top - b.Bottom
}

// Intersects reports whether the two boxes share any area. Both boxes must
// be expressed in the same CRS.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.Left < o.Right && o.Left < b.Right && b.Bottom < o.Top && o.Bottom < b.Top
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("(%v, %v, %v, %v)", b.Left, b.Bottom, b.Right, b.Top)
}

// Shape is a raster size in pixels.
type Shape struct {
	Height, Width int
}

// NewShape validates that both dimensions are positive.
func NewShape(height, width int) (Shape, error) {
	if height <= 0 || width <= 0 {
		return Shape{}, fmt.Errorf("%w: %dx%d", ErrInvalidShape, height, width)
	}
	return Shape{Height: height, Width: width}, nil
}
