package window

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// bivariateSpline is a tensor-product cubic spline over gridded samples:
// one natural cubic per source row resampled along x, then one per output
// column along y. It is the smooth interpolating surface used to correct
// sub-pixel scale mismatches on continuous single-band data.
type bivariateSpline struct {
	ys, xs []float64
	values []float64 // rows*cols, row-major
}

// newBivariateSpline fits a surface to values sampled at the outer product
// of ys (row coordinates) and xs (column coordinates). Both coordinate
// slices must be strictly increasing with at least two entries.
func newBivariateSpline(ys, xs, values []float64) (*bivariateSpline, error) {
	if len(ys) < 2 || len(xs) < 2 {
		return nil, fmt.Errorf("spline: need at least a 2x2 grid, got %dx%d", len(ys), len(xs))
	}
	if len(values) != len(ys)*len(xs) {
		return nil, fmt.Errorf("spline: %d values for a %dx%d grid", len(values), len(ys), len(xs))
	}
	return &bivariateSpline{ys: ys, xs: xs, values: values}, nil
}

// EvalGrid evaluates the surface on the regular grid outYs x outXs,
// returning row-major values.
func (s *bivariateSpline) EvalGrid(outYs, outXs []float64) ([]float64, error) {
	rows := len(s.ys)
	cols := len(s.xs)

	// resample every source row along x
	var cubic interp.NaturalCubic
	inter := make([]float64, rows*len(outXs))
	for r := 0; r < rows; r++ {
		if err := cubic.Fit(s.xs, s.values[r*cols:(r+1)*cols]); err != nil {
			return nil, fmt.Errorf("spline: fit row %d: %w", r, err)
		}
		for j, x := range outXs {
			inter[r*len(outXs)+j] = cubic.Predict(x)
		}
	}

	// then every output column along y
	out := make([]float64, len(outYs)*len(outXs))
	column := make([]float64, rows)
	for j := range outXs {
		for r := 0; r < rows; r++ {
			column[r] = inter[r*len(outXs)+j]
		}
		if err := cubic.Fit(s.ys, column); err != nil {
			return nil, fmt.Errorf("spline: fit column %d: %w", j, err)
		}
		for i, y := range outYs {
			out[i*len(outXs)+j] = cubic.Predict(y)
		}
	}

	return out, nil
}
