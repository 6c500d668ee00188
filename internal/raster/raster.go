// Package raster defines the raster-access capability the windowing engine
// delegates decode and warp work to, plus an in-memory driver used by tests
// and the demo commands. Production deployments plug a GDAL-backed driver
// in behind the same interfaces.
package raster

import (
	"fmt"

	"github.com/iandees/marblecutter/pkg/geo"
)

// Resampling selects the kernel a driver should use when warping.
type Resampling int

const (
	Nearest Resampling = iota
	Bilinear
	Lanczos
)

// Metadata describes an openable dataset. Handles are borrowed read-only
// per request and never mutated by the engine.
type Metadata struct {
	// Name identifies the dataset and locates its companion mask
	// (Name + ".msk").
	Name string

	CRS       geo.CRS
	Bounds    geo.BoundingBox
	Transform geo.Affine
	Width     int
	Height    int
	Bands     int

	// Nodata is the sentinel marking missing measurements, nil when the
	// dataset has none.
	Nodata *float64
}

// Opener resolves dataset names to open handles.
type Opener interface {
	Open(name string) (Dataset, error)

	// OpenWithCRS opens a dataset whose file carries no CRS of its own,
	// assigning it the given one. Used for companion mask sidecars.
	OpenWithCRS(name string, crs geo.CRS) (Dataset, error)
}

// Dataset is an open raster handle.
type Dataset interface {
	Metadata() Metadata

	// Warp returns a resampled view of the dataset on the destination
	// grid described by (crs, shape, transform).
	Warp(crs geo.CRS, shape geo.Shape, transform geo.Affine, resampling Resampling, srcNodata *float64) (View, error)

	Close() error
}

// View is a windowed readable view of a warped dataset.
type View interface {
	Transform() geo.Affine
	Bands() int
	Nodata() *float64

	// Read returns band-first pixels (Bands()*out.Height*out.Width) for
	// the window, resampled to the out shape. Fractional windows are
	// rounded to whole pixels here; reads past the view edge fill with
	// nodata.
	Read(window geo.Window, out geo.Shape) ([]float32, error)
}

// ReadError wraps a failed primary read so callers can tell which source
// was at fault.
type ReadError struct {
	Source string
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Source, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
