package cmd

import (
	"math"

	"github.com/iandees/marblecutter/internal/mosaic"
	"github.com/iandees/marblecutter/internal/raster"
	"github.com/iandees/marblecutter/internal/render"
	"github.com/iandees/marblecutter/pkg/geo"
)

// demoNodata is the sentinel used by the synthetic datasets.
const demoNodata = -32768.0

// demoRenderer builds a renderer over synthetic in-memory terrain: a
// coarse global layer plus a finer north-west regional layer, so both
// source ranking and the spline upsampling path get exercised.
func demoRenderer() (*render.Renderer, error) {
	extent, err := geo.Extent(geo.WebMercator)
	if err != nil {
		return nil, err
	}

	opener := raster.NewMemoryOpener()

	global, err := syntheticTerrain("demo/global", extent, 512)
	if err != nil {
		return nil, err
	}
	opener.Register(global)

	nw := geo.BoundingBox{Left: extent.Left, Bottom: 0, Right: 0, Top: extent.Top}
	regional, err := syntheticTerrain("demo/nw", nw, 1024)
	if err != nil {
		return nil, err
	}
	opener.Register(regional)

	return render.New(mosaic.NewCatalog(opener, global, regional)), nil
}

// syntheticTerrain generates rolling single-band elevation over bounds.
func syntheticTerrain(name string, bounds geo.BoundingBox, size int) (*raster.MemoryDataset, error) {
	data := make([]float64, size*size)
	for r := 0; r < size; r++ {
		v := float64(r) / float64(size-1)
		for c := 0; c < size; c++ {
			u := float64(c) / float64(size-1)
			data[r*size+c] = 1200*math.Sin(3*math.Pi*u)*math.Cos(2*math.Pi*v) +
				600*math.Sin(11*math.Pi*u*v) + 1500
		}
	}

	nodata := demoNodata
	return raster.NewMemoryDataset(name, geo.WebMercator, bounds, geo.Shape{Height: size, Width: size}, 1, &nodata, data)
}
