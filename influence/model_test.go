package influence

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/pitchcontrol/pitch"
)

func TestRadius(t *testing.T) {
	m := DefaultModel()
	tests := []struct {
		name string
		d    float64
		want float64
	}{
		{"on the ball", 0, 4},
		{"ten metres", 10, 4 + 1000.0/560},
		{"at threshold", 15, 10},
		{"beyond threshold", 15.0001, 10},
		{"far away", 80, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Radius(tt.d)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Radius(%v) = %v, want %v", tt.d, got, tt.want)
			}
		})
	}
}

func TestRadiusOvershootsBelowThreshold(t *testing.T) {
	m := DefaultModel()
	if r := m.Radius(14.99); r <= 10 {
		t.Errorf("Radius(14.99) = %v, expected to exceed 10 before the snap", r)
	}
	if r := m.Radius(14.5); r >= 10 {
		t.Errorf("Radius(14.5) = %v, expected below 10", r)
	}
}

func TestSpeedRatioUnclamped(t *testing.T) {
	m := DefaultModel()
	if got := m.SpeedRatio(6.5); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("SpeedRatio(6.5) = %v, want 0.25", got)
	}
	if got := m.SpeedRatio(26); math.Abs(got-4) > 1e-12 {
		t.Errorf("SpeedRatio(26) = %v, want 4", got)
	}
}

func TestCovarianceOrientation(t *testing.T) {
	tests := []struct {
		name   string
		theta  float64
		radius float64
		ratio  float64
		xx, xy float64
		yy     float64
	}{
		{"isotropic", 0, 4, 0, 4, 0, 4},
		{"isotropic rotated", math.Pi / 3, 4, 0, 4, 0, 4},
		{"stretched along x", 0, 4, 0.5, 9, 0, 1},
		{"stretched along y", math.Pi / 2, 4, 0.5, 1, 0, 9},
		{"diagonal heading", math.Pi / 4, 4, 0.5, 5, 4, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cov, err := Covariance(tt.theta, tt.radius, tt.ratio)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := [...]float64{cov.At(0, 0), cov.At(0, 1), cov.At(1, 1)}
			want := [...]float64{tt.xx, tt.xy, tt.yy}
			for i := range got {
				if math.Abs(got[i]-want[i]) > 1e-9 {
					t.Errorf("covariance = %v, want %v", got, want)
					break
				}
			}
		})
	}
}

func TestDeterminantPositive(t *testing.T) {
	m := DefaultModel()
	ball := pitch.Ball{X: 0, Y: 0}
	for _, speed := range []float64{0, 1, 5, 9.5, 12, 12.9} {
		for theta := 0.0; theta < 2*math.Pi; theta += 0.3 {
			for _, x := range []float64{0, 7, 14.99, 15, 40} {
				p := pitch.Player{X: x, Y: 0, Speed: speed, Theta: theta}
				params, err := m.Params(p, ball)
				if err != nil {
					t.Fatalf("Params(%+v): %v", p, err)
				}
				if params.Det <= 0 {
					t.Fatalf("Params(%+v): det = %v, want > 0", p, params.Det)
				}
				if params.Radius < 4 {
					t.Fatalf("Params(%+v): radius = %v, want >= 4", p, params.Radius)
				}
			}
		}
	}
}

func TestParamsMeanLooksAhead(t *testing.T) {
	m := DefaultModel()
	params, err := m.Params(pitch.Player{X: 1, Y: 2, Speed: 4, Theta: math.Pi / 2}, pitch.Ball{})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(params.Mean.X-1) > 1e-12 || math.Abs(params.Mean.Y-4) > 1e-12 {
		t.Errorf("mean = %+v, want (1, 4)", params.Mean)
	}
	if params.Origin.X != 1 || params.Origin.Y != 2 {
		t.Errorf("origin = %+v, want (1, 2)", params.Origin)
	}
}

func TestParamsSingularAtMaxSpeed(t *testing.T) {
	m := DefaultModel()
	_, err := m.Params(pitch.Player{Speed: 13, Theta: 0}, pitch.Ball{})
	if !errors.Is(err, pitch.ErrNumerical) {
		t.Fatalf("expected numerical error at max speed, got %v", err)
	}
}

func TestParamsRejectsNonFinite(t *testing.T) {
	m := DefaultModel()
	_, err := m.Params(pitch.Player{X: math.NaN()}, pitch.Ball{})
	if !errors.Is(err, pitch.ErrNumerical) {
		t.Fatalf("expected numerical error for NaN position, got %v", err)
	}
	var numErr *pitch.NumericalError
	if !errors.As(err, &numErr) || numErr.Op != "influence params" {
		t.Errorf("expected NumericalError from influence params, got %#v", err)
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultModel().Validate(); err != nil {
		t.Fatalf("default model invalid: %v", err)
	}
	m := DefaultModel()
	m.MaxSpeed = 0
	if err := m.Validate(); err == nil {
		t.Error("expected error for zero max speed")
	}
	m = DefaultModel()
	m.RadiusDivisor = -1
	if err := m.Validate(); err == nil {
		t.Error("expected error for negative divisor")
	}
}

func TestParamsAboveMaxSpeed(t *testing.T) {
	m := DefaultModel()
	for _, theta := range []float64{0, 0.8, math.Pi / 2, 3} {
		p := pitch.Player{X: 4, Y: -2, Speed: 20, Theta: theta}
		params, err := m.Params(p, pitch.Ball{})
		if err != nil {
			t.Fatalf("Params(%+v): %v", p, err)
		}
		if params.Det <= 0 {
			t.Errorf("Params(%+v): det = %v, want > 0", p, params.Det)
		}
		g, err := pitch.Points([]float64{p.X, p.X + 5}, []float64{p.Y, p.Y})
		if err != nil {
			t.Fatal(err)
		}
		surf, err := Evaluate(params, g)
		if err != nil {
			t.Fatalf("Evaluate(%+v): %v", p, err)
		}
		if surf.At(0, 0) != 1 {
			t.Errorf("self influence at speed 20 = %v, want 1", surf.At(0, 0))
		}
	}
}
