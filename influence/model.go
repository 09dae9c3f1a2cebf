// Package influence models a single player's territorial reach as an oriented
// 2D Gaussian and samples it over a grid, normalized so the player's own
// position has influence 1.
package influence

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/pitchcontrol/pitch"
)

// Model holds the constants that shape every player's reach distribution.
type Model struct {
	MaxSpeed        float64 // speed at which the distribution fully stretches (m/s)
	BaseRadius      float64 // radius of a player standing on the ball
	FarRadius       float64 // radius at or beyond RadiusThreshold
	RadiusThreshold float64 // ball distance where the radius snaps to FarRadius
	RadiusDivisor   float64 // cubic growth divisor below the threshold
	Lookahead       float64 // fraction of the velocity vector the mean is shifted by
	Decimals        int     // rounding of normalized influence; negative disables
}

// DefaultModel returns the standard model constants.
func DefaultModel() Model {
	return Model{
		MaxSpeed:        13,
		BaseRadius:      4,
		FarRadius:       10,
		RadiusThreshold: 15,
		RadiusDivisor:   560,
		Lookahead:       0.5,
		Decimals:        4,
	}
}

// Validate checks the constants can produce a positive definite covariance.
func (m Model) Validate() error {
	switch {
	case !(m.MaxSpeed > 0):
		return fmt.Errorf("max_speed must be positive, got %v", m.MaxSpeed)
	case !(m.BaseRadius > 0):
		return fmt.Errorf("base_radius must be positive, got %v", m.BaseRadius)
	case !(m.FarRadius > 0):
		return fmt.Errorf("far_radius must be positive, got %v", m.FarRadius)
	case !(m.RadiusDivisor > 0):
		return fmt.Errorf("radius_divisor must be positive, got %v", m.RadiusDivisor)
	case m.RadiusThreshold < 0:
		return fmt.Errorf("radius_threshold must not be negative, got %v", m.RadiusThreshold)
	}
	return nil
}

// Radius is the effective reach radius for a player d metres from the ball.
// Below the threshold it grows cubically from BaseRadius and overshoots
// FarRadius just before snapping to it at the threshold.
func (m Model) Radius(d float64) float64 {
	if d >= m.RadiusThreshold {
		return m.FarRadius
	}
	return m.BaseRadius + d*d*d/m.RadiusDivisor
}

// SpeedRatio is (speed/MaxSpeed)², deliberately unclamped.
func (m Model) SpeedRatio(speed float64) float64 {
	r := speed / m.MaxSpeed
	return r * r
}

// Params are the derived distribution parameters for one player.
type Params struct {
	Radius    float64
	Cov       *mat.SymDense
	Precision *mat.SymDense // Cov⁻¹
	Det       float64
	Mean      r2.Vec // half-step look-ahead along the heading
	Norm      float64
	Origin    r2.Vec // player's current position, the normalization reference

	decimals      int
	pxx, pxy, pyy float64
}

// Params derives the reach distribution of player p given the ball.
func (m Model) Params(p pitch.Player, b pitch.Ball) (Params, error) {
	for _, v := range [...]float64{p.X, p.Y, p.Speed, p.Theta, b.X, b.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Params{}, &pitch.NumericalError{
				Op:     "influence params",
				Reason: fmt.Sprintf("non-finite input %+v ball %+v", p, b),
			}
		}
	}

	radius := m.Radius(pitch.DistanceToBall(p, b))
	ratio := m.SpeedRatio(p.Speed)

	cov, err := Covariance(p.Theta, radius, ratio)
	if err != nil {
		return Params{}, err
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		return Params{}, &pitch.NumericalError{
			Op:     "covariance",
			Reason: fmt.Sprintf("not positive definite (radius=%.4g ratio=%.4g)", radius, ratio),
		}
	}
	det := chol.Det()
	if !(det > 0) || math.IsInf(det, 0) {
		return Params{}, &pitch.NumericalError{Op: "covariance", Reason: fmt.Sprintf("determinant %v", det)}
	}
	var prec mat.SymDense
	if err := chol.InverseTo(&prec); err != nil {
		return Params{}, &pitch.NumericalError{Op: "covariance inverse", Reason: err.Error()}
	}

	mean := r2.Add(p.Pos(), r2.Scale(p.Speed*m.Lookahead, p.Heading()))

	return Params{
		Radius:    radius,
		Cov:       cov,
		Precision: &prec,
		Det:       det,
		Mean:      mean,
		// Leading factor is π/2; it cancels in the self-normalized ratio.
		Norm:     math.Pi / 2 / math.Sqrt(det),
		Origin:   p.Pos(),
		decimals: m.Decimals,
		pxx:      prec.At(0, 0),
		pxy:      prec.At(0, 1),
		pyy:      prec.At(1, 1),
	}, nil
}

// Density is the unnormalized reach density at (x, y).
func (p Params) Density(x, y float64) float64 {
	dx, dy := x-p.Mean.X, y-p.Mean.Y
	q := p.pxx*dx*dx + 2*p.pxy*dx*dy + p.pyy*dy*dy
	return p.Norm * math.Exp(-0.5*q)
}

// SelfDensity is the density at the player's current position.
func (p Params) SelfDensity() float64 {
	return p.Density(p.Origin.X, p.Origin.Y)
}
