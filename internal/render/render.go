// Package render orchestrates one tile request end to end: buffering,
// extent clamping, mosaic compositing, an optional transformation, and
// buffer-aware cropping before the encoder hand-off.
package render

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iandees/marblecutter/internal/metrics"
	"github.com/iandees/marblecutter/internal/mosaic"
	"github.com/iandees/marblecutter/pkg/geo"
)

// Transformation is a pluggable post-read data transformation. Buffer
// declares how many extra context pixels per side it needs; the
// orchestrator reads them and crops them back off afterwards.
type Transformation interface {
	Apply(data *geo.MaskedArray, bounds geo.BoundingBox, crs geo.CRS) (*geo.MaskedArray, geo.DataFormat, error)
	Buffer() int
}

// Encoder turns rendered pixels into an output payload. For image formats
// the bounds are undefined.
type Encoder func(data *geo.MaskedArray, bounds geo.BoundingBox, crs geo.CRS, format geo.DataFormat) ([]byte, error)

// Options describe one render request.
type Options struct {
	Bounds    geo.BoundingBox
	CRS       geo.CRS
	Shape     geo.Shape
	TargetCRS geo.CRS
	Encoder   Encoder

	// Transformation is optional.
	Transformation Transformation

	// Buffer is the caller's own context margin in pixels per side. It
	// is never cropped off here; the caller asked for those pixels.
	Buffer int
}

// Renderer runs requests against a mosaic collaborator. One Renderer
// serves many requests; all per-request state is local.
type Renderer struct {
	mosaic mosaic.Mosaic
}

func New(m mosaic.Mosaic) *Renderer {
	return &Renderer{mosaic: m}
}

// Render produces the encoder's output for one request.
func (r *Renderer) Render(ctx context.Context, opts *Options) ([]byte, error) {
	timer := prometheus.NewTimer(metrics.RenderDuration)
	defer timer.ObserveDuration()
	metrics.RendersTotal.Inc()

	if opts.Encoder == nil {
		return nil, fmt.Errorf("render: no encoder")
	}

	resX, resY, err := geo.Resolution(opts.Bounds, opts.Shape)
	if err != nil {
		return nil, err
	}
	// the unbuffered request drives source-selection granularity
	mResX, mResY, err := geo.ResolutionMeters(opts.Bounds, opts.CRS, opts.Shape)
	if err != nil {
		return nil, err
	}

	effectiveBuffer := opts.Buffer
	offset := 0
	if opts.Transformation != nil {
		b := opts.Transformation.Buffer()
		effectiveBuffer += b
		offset = b
	}

	// expand the request by the effective buffer
	boundsOrig := opts.Bounds
	bounds := geo.BoundingBox{
		Left:   boundsOrig.Left - float64(effectiveBuffer)*resX,
		Bottom: boundsOrig.Bottom - float64(effectiveBuffer)*resY,
		Right:  boundsOrig.Right + float64(effectiveBuffer)*resX,
		Top:    boundsOrig.Top + float64(effectiveBuffer)*resY,
	}
	height := opts.Shape.Height + 2*effectiveBuffer
	width := opts.Shape.Width + 2*effectiveBuffer

	left, right, bottom, top := offset, offset, offset, offset

	// no padding past the edge of the world: clamp each buffered edge
	// back to its unbuffered value independently
	extent, err := geo.Extent(opts.CRS)
	if err != nil {
		return nil, err
	}

	if bounds.Left < extent.Left {
		width -= effectiveBuffer
		bounds.Left = boundsOrig.Left
		left = 0
	}
	if bounds.Right > extent.Right {
		width -= effectiveBuffer
		bounds.Right = boundsOrig.Right
		right = 0
	}
	if bounds.Bottom < extent.Bottom {
		height -= effectiveBuffer
		bounds.Bottom = boundsOrig.Bottom
		bottom = 0
	}
	if bounds.Top > extent.Top {
		height -= effectiveBuffer
		bounds.Top = boundsOrig.Top
		top = 0
	}

	sources, err := r.mosaic.GetSources(ctx, bounds, opts.CRS, [2]float64{mResX, mResY})
	if err != nil {
		return nil, err
	}

	data, dataBounds, dataCRS, err := r.mosaic.Composite(ctx, sources, bounds, opts.CRS, geo.Shape{Height: height, Width: width}, opts.TargetCRS)
	if err != nil {
		return nil, err
	}

	format := geo.FormatRaw
	if opts.Transformation != nil {
		data, format, err = opts.Transformation.Apply(data, dataBounds, dataCRS)
		if err != nil {
			return nil, err
		}
	}

	// crop only the transformation's share of the buffer
	if effectiveBuffer > opts.Buffer {
		data, dataBounds = Crop(data, dataBounds, format, Offsets{Left: left, Right: right, Bottom: bottom, Top: top})
	}

	return opts.Encoder(data, dataBounds, dataCRS, format)
}
