package influence

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/pitchcontrol/pitch"
)

// Rotation returns the 2D rotation matrix for angle theta.
func Rotation(theta float64) *mat.Dense {
	c, s := math.Cos(theta), math.Sin(theta)
	return mat.NewDense(2, 2, []float64{
		c, -s,
		s, c,
	})
}

// Scale returns the diagonal semi-axis matrix: half the radius stretched by
// (1+ratio) along the heading and squeezed by (1-ratio) across it.
func Scale(radius, ratio float64) *mat.DiagDense {
	return mat.NewDiagDense(2, []float64{
		0.5 * radius * (1 + ratio),
		0.5 * radius * (1 - ratio),
	})
}

// Covariance builds R·S·S·R⁻¹ for heading theta. The product is symmetric in
// exact arithmetic; the off-diagonal is averaged to drop rounding skew.
func Covariance(theta, radius, ratio float64) (*mat.SymDense, error) {
	r := Rotation(theta)
	s := Scale(radius, ratio)

	var rInv mat.Dense
	if err := rInv.Inverse(r); err != nil {
		return nil, &pitch.NumericalError{Op: "rotation inverse", Reason: err.Error()}
	}

	var rs, rss, cov mat.Dense
	rs.Mul(r, s)
	rss.Mul(&rs, s)
	cov.Mul(&rss, &rInv)

	off := 0.5 * (cov.At(0, 1) + cov.At(1, 0))
	return mat.NewSymDense(2, []float64{
		cov.At(0, 0), off,
		off, cov.At(1, 1),
	}), nil
}
