package pitch

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Grid is a lattice of sample coordinates stored as two matrices of equal
// shape. Cell (i, j) sits at (X.At(i, j), Y.At(i, j)).
// A Grid is read-only once built.
type Grid struct {
	x, y *mat.Dense
}

// NewGrid builds a grid from paired coordinate matrices.
// The inputs are copied, so later changes by the caller do not leak in.
func NewGrid(x, y mat.Matrix) (Grid, error) {
	xr, xc := x.Dims()
	yr, yc := y.Dims()
	if xr != yr || xc != yc {
		return Grid{}, &ShapeMismatchError{XRows: xr, XCols: xc, YRows: yr, YCols: yc}
	}
	return Grid{x: mat.DenseCopyOf(x), y: mat.DenseCopyOf(y)}, nil
}

// Points builds a 1×n grid from parallel x and y coordinate lists.
func Points(xs, ys []float64) (Grid, error) {
	if len(xs) != len(ys) {
		return Grid{}, &ShapeMismatchError{XRows: 1, XCols: len(xs), YRows: 1, YCols: len(ys)}
	}
	if len(xs) == 0 {
		return Grid{}, fmt.Errorf("points: empty coordinate list")
	}
	x := mat.NewDense(1, len(xs), append([]float64(nil), xs...))
	y := mat.NewDense(1, len(ys), append([]float64(nil), ys...))
	return Grid{x: x, y: y}, nil
}

// Meshgrid builds a len(ys)×len(xs) grid where row i has y = ys[i] and
// column j has x = xs[j].
func Meshgrid(xs, ys []float64) (Grid, error) {
	if len(xs) == 0 || len(ys) == 0 {
		return Grid{}, fmt.Errorf("meshgrid: empty axis (%d x values, %d y values)", len(xs), len(ys))
	}
	rows, cols := len(ys), len(xs)
	x := mat.NewDense(rows, cols, nil)
	y := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		x.SetRow(i, xs)
		for j := 0; j < cols; j++ {
			y.Set(i, j, ys[i])
		}
	}
	return Grid{x: x, y: y}, nil
}

// NewPitchGrid samples the whole pitch with cols×rows evenly spaced points,
// edges included.
func NewPitchGrid(p Pitch, cols, rows int) (Grid, error) {
	if cols < 2 || rows < 2 {
		return Grid{}, fmt.Errorf("pitch grid needs at least 2x2 samples, got %dx%d", cols, rows)
	}
	minX, maxX, minY, maxY := p.Bounds()
	xs := floats.Span(make([]float64, cols), minX, maxX)
	ys := floats.Span(make([]float64, rows), minY, maxY)
	return Meshgrid(xs, ys)
}

// Dims returns the grid shape.
func (g Grid) Dims() (rows, cols int) {
	if g.x == nil {
		return 0, 0
	}
	return g.x.Dims()
}

// Len is the number of sample points.
func (g Grid) Len() int {
	r, c := g.Dims()
	return r * c
}

// At returns the coordinates of cell (i, j).
func (g Grid) At(i, j int) (x, y float64) {
	return g.x.At(i, j), g.y.At(i, j)
}

// X returns a read-only view of the x coordinates.
func (g Grid) X() mat.Matrix { return g.x }

// Y returns a read-only view of the y coordinates.
func (g Grid) Y() mat.Matrix { return g.y }
