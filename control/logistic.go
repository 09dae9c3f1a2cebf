package control

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/pitchcontrol/pitch"
)

var (
	minControl = math.Nextafter(0, 1)
	maxControl = math.Nextafter(1, 0)
)

// Logistic is 1/(1+e^-z), held inside the open interval (0, 1) even where
// float64 would otherwise round to an endpoint.
func Logistic(z float64) float64 {
	var v float64
	if z >= 0 {
		v = 1 / (1 + math.Exp(-z))
	} else {
		ez := math.Exp(z)
		v = ez / (1 + ez)
	}
	return min(max(v, minControl), maxControl)
}

// Transform applies Logistic to offense − defense elementwise.
func Transform(offense, defense mat.Matrix) (*mat.Dense, error) {
	or, oc := offense.Dims()
	dr, dc := defense.Dims()
	if or != dr || oc != dc {
		return nil, &pitch.ShapeMismatchError{XRows: or, XCols: oc, YRows: dr, YCols: dc}
	}
	var out mat.Dense
	out.Sub(offense, defense)
	out.Apply(func(_, _ int, v float64) float64 { return Logistic(v) }, &out)
	return &out, nil
}
