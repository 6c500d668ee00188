// Package window turns one open raster plus a bounds/shape request into an
// exact grid of masked pixels: it sizes the destination grid, delegates the
// warped read, corrects sub-pixel scale mismatches with a spline surface,
// and propagates masks.
package window

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/iandees/marblecutter/internal/metrics"
	"github.com/iandees/marblecutter/internal/raster"
	"github.com/iandees/marblecutter/pkg/geo"
)

// bufferPixels is the context margin, in source pixels per side, read
// around the target window before spline interpolation. Without it the
// surface fit shows edge artifacts on the outermost output pixels.
const bufferPixels = 2

// Read produces exactly shape pixels covering bounds from src, echoing the
// target bounds back. The source may be coarser or finer than the request;
// output shape is the same either way.
func Read(opener raster.Opener, src raster.Dataset, bounds geo.BoundingBox, crs geo.CRS, shape geo.Shape) (*geo.MaskedArray, geo.BoundingBox, error) {
	extent, err := geo.Extent(crs)
	if err != nil {
		return nil, geo.BoundingBox{}, err
	}
	if _, err := geo.NewShape(shape.Height, shape.Width); err != nil {
		return nil, geo.BoundingBox{}, err
	}

	meta := src.Metadata()

	var dstShape geo.Shape
	var resX, resY float64
	if crs == geo.WebMercator {
		// Align the destination grid with the standard tile pyramid:
		// the smallest power-of-two multiple of 256 whose resolution is
		// at least as fine as the source's native one.
		mx, my, err := geo.ResolutionMeters(meta.Bounds, meta.CRS, geo.Shape{Height: meta.Height, Width: meta.Width})
		if err != nil {
			return nil, geo.BoundingBox{}, err
		}
		zoom := geo.ZoomFor(math.Max(mx, my), math.Ceil)
		if zoom < 0 {
			// a source coarser than the zoom-0 reference still reads
			// from the full 256px world grid
			zoom = 0
		}
		dim := 256 << uint(zoom)
		dstShape = geo.Shape{Height: dim, Width: dim}
		resX = extent.Width() / float64(dim)
		resY = extent.Height() / float64(dim)
	} else {
		// Size the grid so its resolution matches the request exactly.
		resX, resY, err = geo.Resolution(bounds, shape)
		if err != nil {
			return nil, geo.BoundingBox{}, err
		}
		dstW := int(math.Round(extent.Width() / resX))
		dstH := int(math.Round(extent.Height() / resY))

		// Windowed reads round to integer pixel offsets, so odd request
		// dimensions get a doubled grid to land sub-pixel offsets on
		// whole destination pixels.
		if shape.Width%2 == 1 || shape.Height%2 == 1 {
			dstW *= 2
			dstH *= 2
			resX /= 2
			resY /= 2
		}
		dstShape = geo.Shape{Height: dstH, Width: dstW}
	}

	dstTransform := geo.Affine{A: resX, C: extent.Left, E: -resY, F: extent.Top}

	vrt, err := src.Warp(crs, dstShape, dstTransform, raster.Lanczos, meta.Nodata)
	if err != nil {
		metrics.SourceReadErrors.Inc()
		return nil, geo.BoundingBox{}, &raster.ReadError{Source: meta.Name, Err: err}
	}

	dstWindow := geo.WindowFromBounds(bounds, dstTransform)

	scaleX := dstWindow.Width / float64(shape.Width)
	scaleY := dstWindow.Height / float64(shape.Height)

	var out *geo.MaskedArray
	if vrt.Bands() == 1 && (scaleX < 1 || scaleY < 1) {
		// A naive decimated read would upsample; interpolate instead.
		out, err = readBuffered(vrt, bounds, shape, dstWindow, scaleX, scaleY)
	} else {
		out, err = readDirect(vrt, dstWindow, shape)
	}
	if err != nil {
		metrics.SourceReadErrors.Inc()
		return nil, geo.BoundingBox{}, &raster.ReadError{Source: meta.Name, Err: err}
	}

	applyCompanionMask(opener, meta, crs, dstShape, dstTransform, dstWindow, shape, out)

	return out, bounds, nil
}

// readDirect resamples the window straight into the target shape.
func readDirect(vrt raster.View, win geo.Window, shape geo.Shape) (*geo.MaskedArray, error) {
	data, err := vrt.Read(win, shape)
	if err != nil {
		return nil, err
	}

	out := geo.FromData(data, vrt.Bands(), shape.Height, shape.Width)
	if nd := vrt.Nodata(); nd != nil {
		out.MaskValues(*nd)
	}
	return out, nil
}

// readBuffered reads the native-resolution window expanded by a small
// context margin and fits a spline surface over it, evaluated at each
// output sample's precise source-pixel coordinate. Used when the source is
// coarser than the request.
func readBuffered(vrt raster.View, bounds geo.BoundingBox, shape geo.Shape, dstWindow geo.Window, scaleX, scaleY float64) (*geo.MaskedArray, error) {
	// individual destination pixel size in scaled pixels
	pixelX := 1 / scaleX
	pixelY := 1 / scaleY
	bufX := bufferPixels * pixelX
	bufY := bufferPixels * pixelY

	win := dstWindow.Expand(bufferPixels).Round()
	cols := int(win.Width)
	rows := int(win.Height)

	var xs, ys []float64
	if math.Mod(scaleX, 1) != 0 || math.Mod(scaleY, 1) != 0 {
		// Non-integer scale: derive the fractional alignment between the
		// buffered read and the ideal target window in scaled-pixel
		// space, so each output sample lands on its precise source
		// coordinate.
		scaled := vrt.Transform().Scale(scaleX, scaleY)

		target := geo.WindowFromBounds(bounds, scaled)
		tRow0 := target.RowOff - bufferPixels*scaleY
		tRow1 := target.RowOff + target.Height + bufferPixels*scaleY
		tCol0 := target.ColOff - bufferPixels*scaleX
		tCol1 := target.ColOff + target.Width + bufferPixels*scaleX

		// bounds actually covered by the buffered window
		dataBounds := win.Bounds(vrt.Transform())
		data := geo.WindowFromBounds(dataBounds, scaled)

		minx := data.RowOff - tRow0
		miny := data.ColOff - tCol0
		maxx := float64(shape.Width) + ((data.RowOff + data.Height) - tRow1)
		maxy := float64(shape.Height) + ((data.ColOff + data.Width) - tCol1)

		xs = floats.Span(make([]float64, cols), minx-bufX, maxx-bufX)
		ys = floats.Span(make([]float64, rows), miny-bufY, maxy-bufY)
	} else {
		xs = floats.Span(make([]float64, cols), -bufX, float64(cols)*pixelX-bufX)
		ys = floats.Span(make([]float64, rows), -bufY, float64(rows)*pixelY-bufY)
	}

	raw, err := vrt.Read(win, geo.Shape{Height: rows, Width: cols})
	if err != nil {
		return nil, err
	}
	grid := make([]float64, len(raw))
	for i, v := range raw {
		grid[i] = float64(v)
	}

	surface, err := newBivariateSpline(ys, xs, grid)
	if err != nil {
		return nil, err
	}

	vals, err := surface.EvalGrid(gridCoords(shape.Height), gridCoords(shape.Width))
	if err != nil {
		return nil, err
	}

	data := make([]float32, len(vals))
	for i, v := range vals {
		data[i] = float32(v)
	}

	out := geo.FromData(data, 1, shape.Height, shape.Width)
	// interpolation does not preserve masking; re-derive it
	if nd := vrt.Nodata(); nd != nil {
		out.MaskValues(*nd)
	}
	return out, nil
}

// gridCoords returns 0, 1, ..., n-1.
func gridCoords(n int) []float64 {
	c := make([]float64, n)
	for i := range c {
		c[i] = float64(i)
	}
	return c
}

// applyCompanionMask overrides the nodata-derived mask with the dataset's
// sidecar mask (same name, ".msk" suffix) warped to the same destination
// grid. The sidecar being missing or unreadable is not an error; the
// nodata-derived mask simply stands.
func applyCompanionMask(opener raster.Opener, meta raster.Metadata, crs geo.CRS, dstShape geo.Shape, dstTransform geo.Affine, dstWindow geo.Window, shape geo.Shape, out *geo.MaskedArray) {
	name := meta.Name + ".msk"

	fallback := func(err error) {
		metrics.MaskFallbacks.Inc()
		slog.Debug("companion mask unavailable", "mask", name, "error", err)
	}

	ds, err := opener.OpenWithCRS(name, meta.CRS)
	if err != nil {
		fallback(err)
		return
	}
	defer ds.Close()

	vrt, err := ds.Warp(crs, dstShape, dstTransform, raster.Nearest, nil)
	if err != nil {
		fallback(err)
		return
	}

	m, err := vrt.Read(dstWindow, shape)
	if err != nil {
		fallback(err)
		return
	}

	// nonzero sidecar samples mark valid pixels; invert for the validity
	// mask, broadcasting a single mask band across all data bands
	pixels := shape.Height * shape.Width
	maskBands := vrt.Bands()
	for b := 0; b < out.Bands; b++ {
		mb := b
		if mb >= maskBands {
			mb = maskBands - 1
		}
		for i := 0; i < pixels; i++ {
			out.Mask[b*pixels+i] = m[mb*pixels+i] == 0
		}
	}
}
