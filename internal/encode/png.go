// Package encode holds the built-in output encoders.
package encode

import (
	"bytes"
	"image"
	"image/png"

	"github.com/iandees/marblecutter/pkg/geo"
)

// PNG encodes a rendered array as PNG. RGB/RGBA input maps channels
// directly; raw input is rendered greyscale from its first band. Values
// are expected in byte range already. Invalid cells come out fully
// transparent.
func PNG(data *geo.MaskedArray, bounds geo.BoundingBox, crs geo.CRS, format geo.DataFormat) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, data.Width, data.Height))

	for r := 0; r < data.Height; r++ {
		for c := 0; c < data.Width; c++ {
			dst := img.PixOffset(c, r)

			switch format {
			case geo.FormatRGB, geo.FormatRGBA:
				channels := format.Channels()
				src := (r*data.Width + c) * channels
				if data.Mask[src] {
					continue
				}
				img.Pix[dst] = clampByte(data.Data[src])
				img.Pix[dst+1] = clampByte(data.Data[src+1])
				img.Pix[dst+2] = clampByte(data.Data[src+2])
				if format == geo.FormatRGBA {
					img.Pix[dst+3] = clampByte(data.Data[src+3])
				} else {
					img.Pix[dst+3] = 255
				}
			default:
				src := data.Idx(0, r, c)
				if data.Mask[src] {
					continue
				}
				v := clampByte(data.Data[src])
				img.Pix[dst] = v
				img.Pix[dst+1] = v
				img.Pix[dst+2] = v
				img.Pix[dst+3] = 255
			}
		}
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func clampByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
