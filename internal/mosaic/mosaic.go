// Package mosaic selects and composites the raster sources covering a
// request. The engine treats the collaborator as opaque; Catalog is the
// built-in implementation, ranking sources by resolution proximity and
// compositing first-wins.
package mosaic

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/iandees/marblecutter/internal/raster"
	"github.com/iandees/marblecutter/internal/window"
	"github.com/iandees/marblecutter/pkg/geo"
)

// Source is one ranked candidate for a request.
type Source struct {
	Name    string
	Dataset raster.Dataset

	// Resolution is the source's native meter resolution per axis.
	Resolution [2]float64
}

// Mosaic selects sources for a request and composites them into one masked
// array covering it.
type Mosaic interface {
	// GetSources returns the sources intersecting bounds, ordered best
	// first for the requested meter resolution.
	GetSources(ctx context.Context, bounds geo.BoundingBox, crs geo.CRS, resolution [2]float64) ([]Source, error)

	// Composite reads each source over (bounds, shape) and merges the
	// results into a single array in the target CRS.
	Composite(ctx context.Context, sources []Source, bounds geo.BoundingBox, crs geo.CRS, shape geo.Shape, targetCRS geo.CRS) (*geo.MaskedArray, geo.BoundingBox, geo.CRS, error)
}

// Catalog is a Mosaic over a fixed set of registered datasets.
type Catalog struct {
	opener   raster.Opener
	datasets []raster.Dataset
}

func NewCatalog(opener raster.Opener, datasets ...raster.Dataset) *Catalog {
	return &Catalog{opener: opener, datasets: datasets}
}

func (c *Catalog) GetSources(ctx context.Context, bounds geo.BoundingBox, crs geo.CRS, resolution [2]float64) ([]Source, error) {
	want := math.Max(resolution[0], resolution[1])

	var sources []Source
	for _, ds := range c.datasets {
		meta := ds.Metadata()

		footprint, err := raster.ReprojectBounds(meta.Bounds, meta.CRS, crs)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", meta.Name, err)
		}
		if !bounds.Intersects(footprint) {
			continue
		}

		mx, my, err := geo.ResolutionMeters(meta.Bounds, meta.CRS, geo.Shape{Height: meta.Height, Width: meta.Width})
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", meta.Name, err)
		}

		sources = append(sources, Source{Name: meta.Name, Dataset: ds, Resolution: [2]float64{mx, my}})
	}

	// closest native resolution first
	sort.SliceStable(sources, func(i, j int) bool {
		ri := math.Max(sources[i].Resolution[0], sources[i].Resolution[1])
		rj := math.Max(sources[j].Resolution[0], sources[j].Resolution[1])
		return math.Abs(math.Log2(ri/want)) < math.Abs(math.Log2(rj/want))
	})

	return sources, nil
}

func (c *Catalog) Composite(ctx context.Context, sources []Source, bounds geo.BoundingBox, crs geo.CRS, shape geo.Shape, targetCRS geo.CRS) (*geo.MaskedArray, geo.BoundingBox, geo.CRS, error) {
	if crs != targetCRS {
		return nil, geo.BoundingBox{}, 0, fmt.Errorf("composite: request CRS %s differs from target CRS %s", crs, targetCRS)
	}
	if len(sources) == 0 {
		return geo.NewMaskedArray(1, shape.Height, shape.Width), bounds, crs, nil
	}

	var out *geo.MaskedArray
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, geo.BoundingBox{}, 0, err
		}

		data, _, err := window.Read(c.opener, src.Dataset, bounds, targetCRS, shape)
		if err != nil {
			return nil, geo.BoundingBox{}, 0, err
		}

		if out == nil {
			out = geo.NewMaskedArray(data.Bands, shape.Height, shape.Width)
		} else if data.Bands != out.Bands {
			return nil, geo.BoundingBox{}, 0, fmt.Errorf("composite: source %s has %d band(s), want %d", src.Name, data.Bands, out.Bands)
		}

		// first source wins; later sources only fill still-missing cells
		for i := range out.Data {
			if out.Mask[i] && !data.Mask[i] {
				out.Data[i] = data.Data[i]
				out.Mask[i] = false
			}
		}
	}

	return out, bounds, crs, nil
}
