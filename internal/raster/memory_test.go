package raster

import (
	"math"
	"testing"

	"github.com/iandees/marblecutter/pkg/geo"
)

func closeEnough(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

// ramp builds a single-band dataset whose value at (row, col) is
// row*width + col.
func ramp(t *testing.T, name string, crs geo.CRS, bounds geo.BoundingBox, size int, nodata *float64) *MemoryDataset {
	t.Helper()

	data := make([]float64, size*size)
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			data[r*size+c] = float64(r*size + c)
		}
	}

	ds, err := NewMemoryDataset(name, crs, bounds, geo.Shape{Height: size, Width: size}, 1, nodata, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ds
}

func TestOpenerRegistry(t *testing.T) {
	opener := NewMemoryOpener()
	ds := ramp(t, "dem", geo.WebMercator, geo.BoundingBox{Left: 0, Bottom: 0, Right: 16, Top: 16}, 4, nil)
	opener.Register(ds)

	if _, err := opener.Open("dem"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := opener.Open("missing"); err == nil {
		t.Fatal("expected an error for an unregistered dataset")
	}

	override, err := opener.OpenWithCRS("dem", geo.WGS84)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if override.Metadata().CRS != geo.WGS84 {
		t.Errorf("CRS override not applied: %s", override.Metadata().CRS)
	}
	// the original handle is untouched
	if ds.Metadata().CRS != geo.WebMercator {
		t.Errorf("original dataset mutated: %s", ds.Metadata().CRS)
	}
}

func TestReadIdentity(t *testing.T) {
	bounds := geo.BoundingBox{Left: 0, Bottom: 0, Right: 16, Top: 16}
	ds := ramp(t, "dem", geo.WebMercator, bounds, 4, nil)

	view, err := ds.Warp(geo.WebMercator, geo.Shape{Height: 4, Width: 4}, geo.AffineFromBounds(bounds, geo.Shape{Height: 4, Width: 4}), Nearest, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := view.Read(geo.Window{Width: 4, Height: 4}, geo.Shape{Height: 4, Width: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 16; i++ {
		if data[i] != float32(i) {
			t.Fatalf("cell %d: got %v, want %v", i, data[i], i)
		}
	}
}

func TestReadDecimated(t *testing.T) {
	bounds := geo.BoundingBox{Left: 0, Bottom: 0, Right: 16, Top: 16}
	ds := ramp(t, "dem", geo.WebMercator, bounds, 4, nil)

	view, _ := ds.Warp(geo.WebMercator, geo.Shape{Height: 4, Width: 4}, geo.AffineFromBounds(bounds, geo.Shape{Height: 4, Width: 4}), Nearest, nil)

	data, err := view.Read(geo.Window{Width: 4, Height: 4}, geo.Shape{Height: 2, Width: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 2x2 centers fall on source pixels (1,1) (1,3) (3,1) (3,3)
	want := []float32{5, 7, 13, 15}
	for i, w := range want {
		if data[i] != w {
			t.Errorf("cell %d: got %v, want %v", i, data[i], w)
		}
	}
}

func TestReadBoundlessFill(t *testing.T) {
	nodata := -9999.0
	bounds := geo.BoundingBox{Left: 0, Bottom: 0, Right: 16, Top: 16}
	ds := ramp(t, "dem", geo.WebMercator, bounds, 4, &nodata)

	view, _ := ds.Warp(geo.WebMercator, geo.Shape{Height: 4, Width: 4}, geo.AffineFromBounds(bounds, geo.Shape{Height: 4, Width: 4}), Nearest, nil)

	// window hanging one pixel past the left edge
	data, err := view.Read(geo.Window{ColOff: -1, Width: 2, Height: 1}, geo.Shape{Height: 1, Width: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if data[0] != float32(nodata) {
		t.Errorf("out-of-extent cell: got %v, want nodata", data[0])
	}
	if data[1] != 0 {
		t.Errorf("in-extent cell: got %v, want 0", data[1])
	}
}

func TestReproject(t *testing.T) {
	x, y, err := Reproject(1, 0, geo.WGS84, geo.WebMercator)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !closeEnough(x, 111319.49079327358, 1e-3) || !closeEnough(y, 0, 1e-6) {
		t.Errorf("(1, 0) projects to (%v, %v)", x, y)
	}

	lon, lat, err := Reproject(x, y, geo.WebMercator, geo.WGS84)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !closeEnough(lon, 1, 1e-9) || !closeEnough(lat, 0, 1e-9) {
		t.Errorf("round-trip gives (%v, %v)", lon, lat)
	}

	if _, _, err := Reproject(0, 0, geo.WGS84, geo.CRS(32633)); err == nil {
		t.Error("expected an error for an unsupported projection pair")
	}
}

func TestWarpReprojects(t *testing.T) {
	// a degree-gridded source read through a mercator view
	bounds := geo.BoundingBox{Left: 0, Bottom: 0, Right: 4, Top: 4}
	ds := ramp(t, "dem", geo.WGS84, bounds, 4, nil)

	left, bottom, _ := mustReproject(t, 0, 0)
	right, top, _ := mustReproject(t, 4, 4)
	vb := geo.BoundingBox{Left: left, Bottom: bottom, Right: right, Top: top}

	view, err := ds.Warp(geo.WebMercator, geo.Shape{Height: 4, Width: 4}, geo.AffineFromBounds(vb, geo.Shape{Height: 4, Width: 4}), Nearest, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := view.Read(geo.Window{Width: 4, Height: 4}, geo.Shape{Height: 4, Width: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// columns line up exactly; rows line up near the equator even though
	// mercator row spacing stretches with latitude
	if data[15] != 15 {
		t.Errorf("bottom-right cell: got %v, want 15", data[15])
	}
}

func mustReproject(t *testing.T, lon, lat float64) (float64, float64, error) {
	t.Helper()
	x, y, err := Reproject(lon, lat, geo.WGS84, geo.WebMercator)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return x, y, nil
}
