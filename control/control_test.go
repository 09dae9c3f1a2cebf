package control

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/pitchcontrol/influence"
	"github.com/pthm-cable/pitchcontrol/pitch"
)

func mustPoints(t testing.TB, xs, ys []float64) pitch.Grid {
	t.Helper()
	g, err := pitch.Points(xs, ys)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func mustPitchGrid(t testing.TB, cols, rows int) pitch.Grid {
	t.Helper()
	g, err := pitch.NewPitchGrid(pitch.Standard, cols, rows)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

// kickoff is a loose 11-v-11 frame with everyone moving.
func kickoff() (offense, defense []pitch.Player, ball pitch.Ball) {
	offense = []pitch.Player{
		{X: -48, Y: 0, Speed: 0.5, Theta: 0},
		{X: -30, Y: -20, Speed: 3, Theta: 0.3},
		{X: -32, Y: -6, Speed: 2, Theta: 0.1},
		{X: -32, Y: 6, Speed: 2, Theta: -0.1},
		{X: -30, Y: 20, Speed: 3, Theta: -0.3},
		{X: -12, Y: -22, Speed: 6, Theta: 0.5},
		{X: -14, Y: -5, Speed: 4, Theta: 0},
		{X: -14, Y: 5, Speed: 4, Theta: 0},
		{X: -12, Y: 22, Speed: 6, Theta: -0.5},
		{X: -1, Y: -8, Speed: 8, Theta: 0.9},
		{X: -0.5, Y: 0.5, Speed: 2, Theta: 0},
	}
	defense = []pitch.Player{
		{X: 48, Y: 0, Speed: 0.5, Theta: math.Pi},
		{X: 30, Y: -20, Speed: 2, Theta: math.Pi},
		{X: 32, Y: -6, Speed: 1, Theta: math.Pi},
		{X: 32, Y: 6, Speed: 1, Theta: math.Pi},
		{X: 30, Y: 20, Speed: 2, Theta: math.Pi},
		{X: 14, Y: -20, Speed: 5, Theta: 3.5},
		{X: 12, Y: -6, Speed: 5, Theta: math.Pi},
		{X: 12, Y: 6, Speed: 5, Theta: math.Pi},
		{X: 14, Y: 20, Speed: 5, Theta: 2.8},
		{X: 9.5, Y: -3, Speed: 7, Theta: 3.3},
		{X: 9.5, Y: 3, Speed: 7, Theta: 3},
	}
	return offense, defense, pitch.Ball{X: 0, Y: 0}
}

func TestEndToEndTwoPlayers(t *testing.T) {
	offense := []pitch.Player{{X: 0, Y: 0, Speed: 0, Theta: 0}}
	defense := []pitch.Player{{X: 50, Y: 30, Speed: 0, Theta: 0}}
	ball := pitch.Ball{X: 0, Y: 0}
	g := mustPoints(t, []float64{0, 5, 0, 50}, []float64{0, 0, 5, 30})

	ctl, err := ComputeControlSurface(offense, defense, ball, g)
	if err != nil {
		t.Fatal(err)
	}

	if got := ctl.At(0, 0); got < 0.7 {
		t.Errorf("control at offensive player = %v, want well above 0.5", got)
	}
	if got, want := ctl.At(0, 0), Logistic(1); math.Abs(got-want) > 1e-12 {
		t.Errorf("control at (0,0) = %v, want logistic(1) = %v", got, want)
	}
	if got := ctl.At(0, 3); got > 0.3 {
		t.Errorf("control at defensive player = %v, want well below 0.5", got)
	}
	if ctl.At(0, 1) <= 0.5 || ctl.At(0, 1) >= ctl.At(0, 0) {
		t.Errorf("control at (5,0) = %v, want between 0.5 and %v", ctl.At(0, 1), ctl.At(0, 0))
	}

	// Along the segment from the offensive to the defensive player.
	ts := []float64{0, 0.05, 0.1, 0.7, 0.8, 0.9, 1}
	xs := make([]float64, len(ts))
	ys := make([]float64, len(ts))
	for i, s := range ts {
		xs[i], ys[i] = 50*s, 30*s
	}
	line, err := ComputeControlSurface(offense, defense, ball, mustPoints(t, xs, ys))
	if err != nil {
		t.Fatal(err)
	}
	for j := 1; j < len(ts); j++ {
		if line.At(0, j) >= line.At(0, j-1) {
			t.Errorf("control not decreasing at t=%v: %v >= %v", ts[j], line.At(0, j), line.At(0, j-1))
		}
	}
}

func TestEmptyTeamsGiveHalf(t *testing.T) {
	g := mustPitchGrid(t, 11, 7)
	ctl, err := ComputeControlSurface(nil, nil, pitch.Ball{}, g)
	if err != nil {
		t.Fatal(err)
	}
	r, c := ctl.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if ctl.At(i, j) != 0.5 {
				t.Fatalf("control(%d,%d) = %v, want exactly 0.5", i, j, ctl.At(i, j))
			}
		}
	}
}

func TestEmptyTeamIsZero(t *testing.T) {
	e := NewEvaluator(influence.DefaultModel())
	g := mustPitchGrid(t, 9, 5)
	team, err := e.Team(nil, pitch.Ball{}, g)
	if err != nil {
		t.Fatal(err)
	}
	if r, c := team.Dims(); r != 5 || c != 9 {
		t.Fatalf("team dims = %dx%d, want 5x9", r, c)
	}
	if mat.Sum(team) != 0 {
		t.Errorf("empty team sum = %v, want 0", mat.Sum(team))
	}
}

func TestIdenticalTeamsGiveHalf(t *testing.T) {
	offense, _, ball := kickoff()
	g := mustPitchGrid(t, 22, 15)
	ctl, err := ComputeControlSurface(offense, offense, ball, g)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(ctl, constant(22, 15, 0.5), 0) {
		t.Error("identical teams should give exactly 0.5 everywhere")
	}
}

func constant(cols, rows int, v float64) *mat.Dense {
	m := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.Set(i, j, v)
		}
	}
	return m
}

func TestTeamOrderInvariant(t *testing.T) {
	offense, _, ball := kickoff()
	reversed := make([]pitch.Player, len(offense))
	for i, p := range offense {
		reversed[len(offense)-1-i] = p
	}

	e := NewEvaluator(influence.DefaultModel())
	g := mustPitchGrid(t, 53, 36)
	a, err := e.Team(offense, ball, g)
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Team(reversed, ball, g)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(a, b, 1e-9) {
		t.Error("team surface depends on player order")
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	offense, defense, ball := kickoff()
	g := mustPitchGrid(t, 106, 71)

	serial := &Evaluator{Model: influence.DefaultModel(), Workers: 1}
	parallel := &Evaluator{Model: influence.DefaultModel(), Workers: 4, Threshold: 16}

	want, err := serial.Evaluate(offense, defense, ball, g)
	if err != nil {
		t.Fatal(err)
	}
	got, err := parallel.Evaluate(offense, defense, ball, g)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(want.Control, got.Control) {
		t.Error("parallel control surface differs from serial")
	}

	// Single player path chunks cells instead of fanning out players.
	one, err := parallel.Team(offense[:1], ball, g)
	if err != nil {
		t.Fatal(err)
	}
	ref, err := serial.Team(offense[:1], ball, g)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(one, ref) {
		t.Error("chunked single player surface differs from serial")
	}
}

func TestControlBounded(t *testing.T) {
	offense, defense, ball := kickoff()
	g := mustPitchGrid(t, 53, 36)
	res, err := NewEvaluator(influence.DefaultModel()).Evaluate(offense, defense, ball, g)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range res.Control.RawMatrix().Data {
		if v <= 0 || v >= 1 {
			t.Fatalf("control value %v outside (0, 1)", v)
		}
	}
	// Each goalkeeper owns their own box.
	if res.Control.At(18, 2) <= 0.5 {
		t.Errorf("control near offensive keeper = %v, want > 0.5", res.Control.At(18, 2))
	}
	if res.Control.At(18, 50) >= 0.5 {
		t.Errorf("control near defensive keeper = %v, want < 0.5", res.Control.At(18, 50))
	}
}

func TestPlayerInfluenceSelfIsOne(t *testing.T) {
	p := pitch.Player{X: 12, Y: -7, Speed: 9, Theta: 2.2}
	g := mustPoints(t, []float64{12, 0}, []float64{-7, 0})
	surf, err := ComputePlayerInfluence(p, pitch.Ball{X: 3, Y: 3}, g)
	if err != nil {
		t.Fatal(err)
	}
	if surf.At(0, 0) != 1 {
		t.Errorf("self influence = %v, want 1", surf.At(0, 0))
	}
}

func TestNumericalErrorPropagates(t *testing.T) {
	bad := []pitch.Player{{X: 1, Y: 1}, {X: 0, Y: 0, Speed: 13, Theta: 0}}
	g := mustPitchGrid(t, 5, 5)
	for _, workers := range []int{1, 4} {
		e := &Evaluator{Model: influence.DefaultModel(), Workers: workers}
		_, err := e.Control(bad, nil, pitch.Ball{}, g)
		if !errors.Is(err, pitch.ErrNumerical) {
			t.Errorf("workers=%d: expected numerical error, got %v", workers, err)
		}
	}
}

func TestEmptyGridRejected(t *testing.T) {
	if _, err := ComputeControlSurface(nil, nil, pitch.Ball{}, pitch.Grid{}); err == nil {
		t.Error("expected error for empty grid")
	}
	if _, err := ComputePlayerInfluence(pitch.Player{}, pitch.Ball{}, pitch.Grid{}); err == nil {
		t.Error("expected error for empty grid")
	}
}
