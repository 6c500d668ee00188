package xform

import (
	"fmt"
	"math"

	"github.com/iandees/marblecutter/pkg/geo"
)

// Terrarium encodes single-band elevation into the Terrarium RGB scheme:
// elevation = (R*256 + G + B/256) - 32768. Output is channel-last image
// data; missing cells encode as transparent zeros.
type Terrarium struct{}

func (Terrarium) Buffer() int {
	return 0
}

func (Terrarium) Apply(data *geo.MaskedArray, bounds geo.BoundingBox, crs geo.CRS) (*geo.MaskedArray, geo.DataFormat, error) {
	if data.Bands != 1 {
		return nil, geo.FormatRaw, fmt.Errorf("terrarium: want 1 band, got %d", data.Bands)
	}

	pixels := data.Height * data.Width
	out := &geo.MaskedArray{
		Data:  make([]float32, pixels*3),
		Mask:  make([]bool, pixels*3),
		Bands: 3, Height: data.Height, Width: data.Width,
	}

	for i := 0; i < pixels; i++ {
		o := i * 3
		if data.Mask[i] {
			out.Mask[o] = true
			out.Mask[o+1] = true
			out.Mask[o+2] = true
			continue
		}

		v := float64(data.Data[i]) + 32768
		if v < 0 {
			v = 0
		}
		out.Data[o] = float32(math.Floor(v / 256))
		out.Data[o+1] = float32(math.Mod(math.Floor(v), 256))
		out.Data[o+2] = float32(math.Floor(math.Mod(v, 1) * 256))
	}

	return out, geo.FormatRGB, nil
}
