package render

import "github.com/iandees/marblecutter/pkg/geo"

// Offsets is a per-side pixel margin to remove.
type Offsets struct {
	Left, Right, Bottom, Top int
}

// Crop removes a pixel margin from a rendered array. Image formats
// (channel-last) lose their bounds, since the layout carries no implicit
// geotransform; raw (band-first) output gets its bounds recomputed from
// the original transform so geographic accuracy is preserved.
func Crop(data *geo.MaskedArray, bounds geo.BoundingBox, format geo.DataFormat, off Offsets) (*geo.MaskedArray, geo.BoundingBox) {
	height := data.Height
	width := data.Width
	newHeight := height - off.Top - off.Bottom
	newWidth := width - off.Left - off.Right

	if format.IsImage() {
		channels := data.Bands
		out := &geo.MaskedArray{
			Data:  make([]float32, newHeight*newWidth*channels),
			Mask:  make([]bool, newHeight*newWidth*channels),
			Bands: channels, Height: newHeight, Width: newWidth,
		}
		for r := 0; r < newHeight; r++ {
			for c := 0; c < newWidth; c++ {
				src := ((r+off.Top)*width + (c + off.Left)) * channels
				dst := (r*newWidth + c) * channels
				copy(out.Data[dst:dst+channels], data.Data[src:src+channels])
				copy(out.Mask[dst:dst+channels], data.Mask[src:src+channels])
			}
		}
		return out, geo.BoundingBox{}
	}

	t := geo.AffineFromBounds(bounds, geo.Shape{Height: height, Width: width})

	out := &geo.MaskedArray{
		Data:  make([]float32, data.Bands*newHeight*newWidth),
		Mask:  make([]bool, data.Bands*newHeight*newWidth),
		Bands: data.Bands, Height: newHeight, Width: newWidth,
	}
	for b := 0; b < data.Bands; b++ {
		for r := 0; r < newHeight; r++ {
			src := data.Idx(b, r+off.Top, off.Left)
			dst := out.Idx(b, r, 0)
			copy(out.Data[dst:dst+newWidth], data.Data[src:src+newWidth])
			copy(out.Mask[dst:dst+newWidth], data.Mask[src:src+newWidth])
		}
	}

	cropped := geo.Window{
		ColOff: float64(off.Left), RowOff: float64(off.Top),
		Width: float64(newWidth), Height: float64(newHeight),
	}
	return out, cropped.Bounds(t)
}
