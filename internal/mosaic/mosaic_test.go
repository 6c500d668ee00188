package mosaic

import (
	"context"
	"testing"

	"github.com/iandees/marblecutter/internal/raster"
	"github.com/iandees/marblecutter/pkg/geo"
)

func mercatorWorld(t *testing.T) geo.BoundingBox {
	t.Helper()
	world, err := geo.Extent(geo.WebMercator)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return world
}

func mustDataset(t *testing.T, name string, bounds geo.BoundingBox, shape geo.Shape, nodata *float64, data []float64) *raster.MemoryDataset {
	t.Helper()
	d, err := raster.NewMemoryDataset(name, geo.WebMercator, bounds, shape, 1, nodata, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return d
}

func constGrid(n int, v float64) []float64 {
	data := make([]float64, n)
	for i := range data {
		data[i] = v
	}
	return data
}

func TestGetSourcesFiltersAndRanks(t *testing.T) {
	world := mercatorWorld(t)
	swQuadrant := geo.BoundingBox{Left: world.Left, Bottom: world.Bottom, Right: world.Left / 2, Top: world.Bottom / 2}

	opener := raster.NewMemoryOpener()
	coarse := mustDataset(t, "coarse", world, geo.Shape{Height: 128, Width: 128}, nil, constGrid(128*128, 1))
	fine := mustDataset(t, "fine", world, geo.Shape{Height: 512, Width: 512}, nil, constGrid(512*512, 1))
	far := mustDataset(t, "far", swQuadrant, geo.Shape{Height: 64, Width: 64}, nil, constGrid(64*64, 1))
	for _, d := range []*raster.MemoryDataset{coarse, fine, far} {
		opener.Register(d)
	}

	c := NewCatalog(opener, coarse, fine, far)

	request := geo.BoundingBox{Left: 1000, Bottom: 1000, Right: 2000, Top: 2000}
	want := 2 * geo.OriginShift / 512

	sources, err := c.GetSources(context.Background(), request, geo.WebMercator, [2]float64{want, want})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	if sources[0].Name != "fine" || sources[1].Name != "coarse" {
		t.Errorf("order: got [%s, %s], want [fine, coarse]", sources[0].Name, sources[1].Name)
	}
}

func TestCompositeFirstWins(t *testing.T) {
	world := mercatorWorld(t)
	shape := geo.Shape{Height: 256, Width: 256}
	nodata := -9999.0

	// "a" only covers the left half; "b" fills the rest
	a := constGrid(256*256, nodata)
	for r := 0; r < 256; r++ {
		for c := 0; c < 128; c++ {
			a[r*256+c] = 1
		}
	}

	opener := raster.NewMemoryOpener()
	dsA := mustDataset(t, "a", world, shape, &nodata, a)
	dsB := mustDataset(t, "b", world, shape, nil, constGrid(256*256, 2))
	opener.Register(dsA)
	opener.Register(dsB)

	c := NewCatalog(opener, dsA, dsB)
	sources, err := c.GetSources(context.Background(), world, geo.WebMercator, [2]float64{2 * geo.OriginShift / 256, 2 * geo.OriginShift / 256})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, bounds, crs, err := c.Composite(context.Background(), sources, world, geo.WebMercator, shape, geo.WebMercator)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bounds != world || crs != geo.WebMercator {
		t.Errorf("echo: got %v in %v", bounds, crs)
	}

	if got := out.Data[10*256+10]; got != 1 {
		t.Errorf("left half: got %v, want 1", got)
	}
	if got := out.Data[10*256+200]; got != 2 {
		t.Errorf("right half: got %v, want 2", got)
	}
	for i, masked := range out.Mask {
		if masked {
			t.Fatalf("cell %d unexpectedly masked", i)
		}
	}
}

// Sources with differing band counts cannot be merged cell for cell; the
// mismatch is a configuration error, not something to paper over.
func TestCompositeBandMismatch(t *testing.T) {
	world := mercatorWorld(t)
	shape := geo.Shape{Height: 16, Width: 16}

	opener := raster.NewMemoryOpener()
	single := mustDataset(t, "single", world, shape, nil, constGrid(16*16, 1))
	double, err := raster.NewMemoryDataset("double", geo.WebMercator, world, shape, 2, nil, constGrid(2*16*16, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opener.Register(single)
	opener.Register(double)

	c := NewCatalog(opener, single, double)
	sources := []Source{
		{Name: "single", Dataset: single},
		{Name: "double", Dataset: double},
	}

	_, _, _, err = c.Composite(context.Background(), sources, world, geo.WebMercator, shape, geo.WebMercator)
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestCompositeNoSources(t *testing.T) {
	world := mercatorWorld(t)
	c := NewCatalog(raster.NewMemoryOpener())

	out, bounds, _, err := c.Composite(context.Background(), nil, world, geo.WebMercator, geo.Shape{Height: 4, Width: 4}, geo.WebMercator)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bounds != world {
		t.Errorf("bounds not echoed: %v", bounds)
	}
	for i, masked := range out.Mask {
		if !masked {
			t.Fatalf("cell %d unexpectedly valid", i)
		}
	}
}

func TestCompositeCRSMismatch(t *testing.T) {
	c := NewCatalog(raster.NewMemoryOpener())
	_, _, _, err := c.Composite(context.Background(), nil, mercatorWorld(t), geo.WebMercator, geo.Shape{Height: 4, Width: 4}, geo.WGS84)
	if err == nil {
		t.Fatal("expected an error")
	}
}
