package geo

import "math"

// DataFormat describes the pixel layout of a rendered array.
type DataFormat int

const (
	// FormatRaw is band-first numeric data carrying a geotransform.
	FormatRaw DataFormat = iota
	// FormatRGB is channel-last image data, produced only by a
	// transformation.
	FormatRGB
	// FormatRGBA is channel-last image data with alpha.
	FormatRGBA
)

func (f DataFormat) String() string {
	switch f {
	case FormatRGB:
		return "rgb"
	case FormatRGBA:
		return "rgba"
	default:
		return "raw"
	}
}

// IsImage reports whether the format is channel-last image data.
func (f DataFormat) IsImage() bool {
	return f == FormatRGB || f == FormatRGBA
}

// Channels returns the per-pixel channel count for image formats.
func (f DataFormat) Channels() int {
	switch f {
	case FormatRGB:
		return 3
	case FormatRGBA:
		return 4
	default:
		return 1
	}
}

// Tolerances used to match nodata sentinels after resampling, mirroring
// approximate floating-point equality.
const (
	maskRtol = 1e-5
	maskAtol = 1e-8
)

// MaskedArray is a (bands, height, width) float32 array where every cell
// carries a validity flag. Mask[i] == true marks cell i invalid; invalid
// cells hold no meaningful numeric content.
//
// The layout is band-first for FormatRaw. Transformations producing image
// data reuse the struct with channel-last layout ((height, width, bands));
// the pairing DataFormat decides which interpretation applies.
type MaskedArray struct {
	Data          []float32
	Mask          []bool
	Bands         int
	Height, Width int
}

// NewMaskedArray allocates an all-invalid array.
func NewMaskedArray(bands, height, width int) *MaskedArray {
	n := bands * height * width
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	return &MaskedArray{
		Data:  make([]float32, n),
		Mask:  mask,
		Bands: bands, Height: height, Width: width,
	}
}

// FromData wraps data (band-first, bands*height*width cells) with an
// all-valid mask.
func FromData(data []float32, bands, height, width int) *MaskedArray {
	return &MaskedArray{
		Data:  data,
		Mask:  make([]bool, bands*height*width),
		Bands: bands, Height: height, Width: width,
	}
}

// Idx returns the flat band-first index of (band, row, col).
func (m *MaskedArray) Idx(band, row, col int) int {
	return (band*m.Height+row)*m.Width + col
}

// MaskValues flags every cell approximately equal to nodata as invalid.
func (m *MaskedArray) MaskValues(nodata float64) {
	lim := maskAtol + maskRtol*math.Abs(nodata)
	for i, v := range m.Data {
		if math.Abs(float64(v)-nodata) <= lim {
			m.Mask[i] = true
		}
	}
}
