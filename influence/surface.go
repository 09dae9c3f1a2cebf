package influence

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/pitchcontrol/pitch"
)

// Evaluate samples p over every grid point, divides by the density at the
// player's own position and rounds the result. The returned matrix has the
// grid's shape.
func Evaluate(p Params, g pitch.Grid) (*mat.Dense, error) {
	return EvaluateChunked(p, g, 1)
}

// EvaluateChunked is Evaluate with grid rows split across up to workers
// goroutines. Every cell is independent so no synchronization is needed
// beyond waiting for the chunks.
func EvaluateChunked(p Params, g pitch.Grid, workers int) (*mat.Dense, error) {
	rows, cols := g.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("evaluate influence: empty grid")
	}
	if p.Precision == nil {
		return nil, fmt.Errorf("evaluate influence: params not initialized")
	}

	ref := p.SelfDensity()
	if !(ref > 0) || math.IsInf(ref, 0) {
		return nil, &pitch.NumericalError{Op: "self density", Reason: fmt.Sprintf("reference density %v", ref)}
	}

	out := mat.NewDense(rows, cols, nil)
	fill := func(r0, r1 int) {
		for i := r0; i < r1; i++ {
			row := out.RawRowView(i)
			for j := range row {
				x, y := g.At(i, j)
				row[j] = p.normalized(ref, x, y)
			}
		}
	}

	if workers <= 1 || rows == 1 {
		fill(0, rows)
	} else {
		workers = min(workers, rows)
		chunk := (rows + workers - 1) / workers
		var wg sync.WaitGroup
		for start := 0; start < rows; start += chunk {
			end := min(start+chunk, rows)
			wg.Add(1)
			go func(r0, r1 int) {
				defer wg.Done()
				fill(r0, r1)
			}(start, end)
		}
		wg.Wait()
	}

	for _, v := range out.RawMatrix().Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &pitch.NumericalError{Op: "evaluate influence", Reason: fmt.Sprintf("non-finite value %v", v)}
		}
	}
	return out, nil
}

// At is the normalized influence at a single point.
func (p Params) At(x, y float64) float64 {
	return p.normalized(p.SelfDensity(), x, y)
}

func (p Params) normalized(ref, x, y float64) float64 {
	return Round(p.Density(x, y)/ref, p.decimals)
}

// Round rounds v to the given number of decimals, ties to even.
// A negative decimals leaves v untouched.
func Round(v float64, decimals int) float64 {
	if decimals < 0 {
		return v
	}
	scale := math.Pow10(decimals)
	return math.RoundToEven(v*scale) / scale
}
