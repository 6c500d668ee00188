package geo

import "math"

// Affine maps pixel (col, row) coordinates to CRS (x, y) coordinates:
//
//	x = A*col + B*row + C
//	y = D*col + E*row + F
//
// North-up rasters have A > 0, E < 0 and B = D = 0.
type Affine struct {
	A, B, C, D, E, F float64
}

// AffineFromBounds builds the north-up transform that places bounds over a
// raster of the given shape.
func AffineFromBounds(b BoundingBox, s Shape) Affine {
	return Affine{
		A: b.Width() / float64(s.Width),
		C: b.Left,
		E: -b.Height() / float64(s.Height),
		F: b.Top,
	}
}

// Apply maps pixel coordinates to CRS coordinates.
func (t Affine) Apply(col, row float64) (x, y float64) {
	return t.A*col + t.B*row + t.C, t.D*col + t.E*row + t.F
}

// Invert returns the transform mapping CRS coordinates back to pixels.
func (t Affine) Invert() Affine {
	det := t.A*t.E - t.B*t.D
	ia := t.E / det
	ib := -t.B / det
	id := -t.D / det
	ie := t.A / det
	return Affine{
		A: ia, B: ib, C: -(ia*t.C + ib*t.F),
		D: id, E: ie, F: -(id*t.C + ie*t.F),
	}
}

// Scale composes t with a pixel-space scaling, so one pixel of the result
// covers (sx, sy) pixels of t.
func (t Affine) Scale(sx, sy float64) Affine {
	return Affine{A: t.A * sx, B: t.B * sy, C: t.C, D: t.D * sx, E: t.E * sy, F: t.F}
}

// Window is a rectangular pixel region. Offsets and sizes stay fractional
// during planning; rounding happens only at the raster-access boundary.
type Window struct {
	ColOff, RowOff float64
	Width, Height  float64
}

// WindowFromBounds computes the pixel window covering bounds under a
// north-up transform.
func WindowFromBounds(b BoundingBox, t Affine) Window {
	inv := t.Invert()
	col0, row0 := inv.Apply(b.Left, b.Top)
	col1, row1 := inv.Apply(b.Right, b.Bottom)
	return Window{ColOff: col0, RowOff: row0, Width: col1 - col0, Height: row1 - row0}
}

// Bounds returns the CRS box covered by the window under a north-up
// transform.
func (w Window) Bounds(t Affine) BoundingBox {
	left, top := t.Apply(w.ColOff, w.RowOff)
	right, bottom := t.Apply(w.ColOff+w.Width, w.RowOff+w.Height)
	return BoundingBox{Left: left, Bottom: bottom, Right: right, Top: top}
}

// Expand grows the window by n pixels on every side.
func (w Window) Expand(n float64) Window {
	return Window{ColOff: w.ColOff - n, RowOff: w.RowOff - n, Width: w.Width + 2*n, Height: w.Height + 2*n}
}

// Round snaps offsets and sizes to whole pixels.
func (w Window) Round() Window {
	return Window{
		ColOff: math.Round(w.ColOff),
		RowOff: math.Round(w.RowOff),
		Width:  math.Round(w.Width),
		Height: math.Round(w.Height),
	}
}
