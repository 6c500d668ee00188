package encode

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/iandees/marblecutter/pkg/geo"
)

func decode(t *testing.T, payload []byte) func(x, y int) color.NRGBA {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return func(x, y int) color.NRGBA {
		return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	}
}

func TestPNGEncodesRGB(t *testing.T) {
	// 2x1 channel-last RGB with the second pixel masked
	data := geo.FromData([]float32{10, 20, 30, 40, 50, 60}, 3, 1, 2)
	data.Mask[3] = true
	data.Mask[4] = true
	data.Mask[5] = true

	payload, err := PNG(data, geo.BoundingBox{}, geo.WebMercator, geo.FormatRGB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	at := decode(t, payload)
	if got := at(0, 0); got != (color.NRGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("pixel 0: got %v", got)
	}
	if got := at(1, 0); got.A != 0 {
		t.Errorf("masked pixel not transparent: %v", got)
	}
}

func TestPNGEncodesRawGreyscale(t *testing.T) {
	data := geo.FromData([]float32{100, 300, -5, 42}, 1, 2, 2)
	data.Mask[3] = true

	payload, err := PNG(data, geo.BoundingBox{}, geo.WebMercator, geo.FormatRaw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	at := decode(t, payload)
	if got := at(0, 0); got != (color.NRGBA{R: 100, G: 100, B: 100, A: 255}) {
		t.Errorf("pixel (0,0): got %v", got)
	}
	// out-of-range values clamp to byte range
	if got := at(1, 0); got.R != 255 {
		t.Errorf("pixel (1,0): got %v, want clamped 255", got)
	}
	if got := at(0, 1); got.R != 0 {
		t.Errorf("pixel (0,1): got %v, want clamped 0", got)
	}
	if got := at(1, 1); got.A != 0 {
		t.Errorf("masked pixel not transparent: %v", got)
	}
}
