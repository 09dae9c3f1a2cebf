package control

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/pitchcontrol/influence"
	"github.com/pthm-cable/pitchcontrol/pitch"
)

// outOfBoundsPenalty scales the squared distance outside the pitch added to
// the objective so the search stays on the field.
const outOfBoundsPenalty = 10.0

// Peak is the location on the pitch where offensive control is highest.
type Peak struct {
	X, Y    float64
	Control float64
	Evals   int
}

// Field precomputes every player's parameters so control can be read at any
// continuous point without building a grid.
type Field struct {
	offense []influence.Params
	defense []influence.Params
}

// NewField derives the parameters of both teams for one frame.
func (e *Evaluator) NewField(offense, defense []pitch.Player, b pitch.Ball) (*Field, error) {
	f := &Field{
		offense: make([]influence.Params, len(offense)),
		defense: make([]influence.Params, len(defense)),
	}
	for i, p := range offense {
		params, err := e.Model.Params(p, b)
		if err != nil {
			return nil, fmt.Errorf("offense player %d: %w", i, err)
		}
		f.offense[i] = params
	}
	for i, p := range defense {
		params, err := e.Model.Params(p, b)
		if err != nil {
			return nil, fmt.Errorf("defense player %d: %w", i, err)
		}
		f.defense[i] = params
	}
	return f, nil
}

// ControlAt returns offensive control at (x, y).
func (f *Field) ControlAt(x, y float64) float64 {
	var off, def float64
	for _, p := range f.offense {
		off += p.At(x, y)
	}
	for _, p := range f.defense {
		def += p.At(x, y)
	}
	return Logistic(off - def)
}

// Peak searches the pitch for the point of maximum offensive control.
// Control is flat at 0.5 wherever every influence rounds to zero, so a single
// start can stall; the search runs from each attacker and the offensive
// centroid (the pitch centre for an empty side) and keeps the best result.
func (e *Evaluator) Peak(offense, defense []pitch.Player, b pitch.Ball, field pitch.Pitch) (Peak, error) {
	f, err := e.NewField(offense, defense, b)
	if err != nil {
		return Peak{}, err
	}

	centroid, ok := pitch.Centroid(offense)
	if !ok {
		centroid = r2.Vec{}
	}
	starts := []r2.Vec{centroid}
	for _, p := range offense {
		starts = append(starts, p.Pos())
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			cx, cy := field.Clamp(x[0], x[1])
			dx, dy := x[0]-cx, x[1]-cy
			return -f.ControlAt(cx, cy) + outOfBoundsPenalty*(dx*dx+dy*dy)
		},
	}

	best := Peak{Control: -1}
	var evals int
	for _, s := range starts {
		sx, sy := field.Clamp(s.X, s.Y)
		result, err := optimize.Minimize(problem, []float64{sx, sy}, nil, &optimize.NelderMead{})
		if result == nil {
			return Peak{}, fmt.Errorf("peak search from (%v, %v): %w", sx, sy, err)
		}
		if err != nil {
			slog.Debug("peak search ended", "start_x", sx, "start_y", sy, "error", err)
		}
		evals += result.Stats.FuncEvaluations

		x, y := field.Clamp(result.X[0], result.X[1])
		if c := f.ControlAt(x, y); c > best.Control {
			best = Peak{X: x, Y: y, Control: c}
		}
	}
	best.Evals = evals
	return best, nil
}
