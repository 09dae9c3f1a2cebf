// Package control turns player and ball states into pitch control surfaces:
// per-team influence sums compressed through a logistic into the probability
// that the offense controls each grid point.
package control

import (
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/pitchcontrol/influence"
	"github.com/pthm-cable/pitchcontrol/pitch"
)

// DefaultThreshold is the minimum grid size for splitting a single player's
// surface across goroutines. Below this, a serial pass is faster.
const DefaultThreshold = 4096

// Evaluator runs the control pipeline with a fixed model and worker budget.
// It holds no per-call state and is safe for concurrent use.
type Evaluator struct {
	Model     influence.Model
	Workers   int // goroutine budget; values < 1 mean serial
	Threshold int // grid cells before rows are chunked
}

// NewEvaluator returns an evaluator using every available CPU.
func NewEvaluator(m influence.Model) *Evaluator {
	return &Evaluator{
		Model:     m,
		Workers:   runtime.GOMAXPROCS(0),
		Threshold: DefaultThreshold,
	}
}

// Result bundles the two team surfaces with the control surface built from them.
type Result struct {
	Offense *mat.Dense
	Defense *mat.Dense
	Control *mat.Dense
}

var defaultEvaluator = NewEvaluator(influence.DefaultModel())

// ComputeControlSurface evaluates offensive control over g with the default model.
func ComputeControlSurface(offense, defense []pitch.Player, b pitch.Ball, g pitch.Grid) (*mat.Dense, error) {
	return defaultEvaluator.Control(offense, defense, b, g)
}

// ComputePlayerInfluence evaluates one player's normalized influence over g
// with the default model.
func ComputePlayerInfluence(p pitch.Player, b pitch.Ball, g pitch.Grid) (*mat.Dense, error) {
	return defaultEvaluator.Player(p, b, g)
}

// Player returns the normalized influence surface of a single player.
func (e *Evaluator) Player(p pitch.Player, b pitch.Ball, g pitch.Grid) (*mat.Dense, error) {
	if g.Len() == 0 {
		return nil, fmt.Errorf("player influence: empty grid")
	}
	return e.player(p, b, g, e.cellWorkers(g))
}

func (e *Evaluator) player(p pitch.Player, b pitch.Ball, g pitch.Grid, workers int) (*mat.Dense, error) {
	params, err := e.Model.Params(p, b)
	if err != nil {
		return nil, err
	}
	return influence.EvaluateChunked(params, g, workers)
}

func (e *Evaluator) cellWorkers(g pitch.Grid) int {
	if e.Workers <= 1 || g.Len() < e.Threshold {
		return 1
	}
	return e.Workers
}

// Team sums the influence surfaces of every player on one side.
// An empty team yields an all-zero surface of the grid's shape.
func (e *Evaluator) Team(players []pitch.Player, b pitch.Ball, g pitch.Grid) (*mat.Dense, error) {
	rows, cols := g.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("team influence: empty grid")
	}

	surfaces := make([]*mat.Dense, len(players))
	if e.Workers <= 1 || len(players) <= 1 {
		workers := e.cellWorkers(g)
		for i, p := range players {
			s, err := e.player(p, b, g, workers)
			if err != nil {
				return nil, fmt.Errorf("player %d: %w", i, err)
			}
			surfaces[i] = s
		}
	} else {
		var eg errgroup.Group
		eg.SetLimit(e.Workers)
		for i, p := range players {
			i, p := i, p
			eg.Go(func() error {
				s, err := e.player(p, b, g, 1)
				if err != nil {
					return fmt.Errorf("player %d: %w", i, err)
				}
				surfaces[i] = s
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	// Summed in player order so repeated runs are bit-identical.
	team := mat.NewDense(rows, cols, nil)
	for _, s := range surfaces {
		team.Add(team, s)
	}

	slog.Debug("team influence", "players", len(players), "cells", rows*cols)
	return team, nil
}

// Evaluate runs the full pipeline and keeps the intermediate team surfaces.
func (e *Evaluator) Evaluate(offense, defense []pitch.Player, b pitch.Ball, g pitch.Grid) (*Result, error) {
	off, err := e.Team(offense, b, g)
	if err != nil {
		return nil, fmt.Errorf("offense: %w", err)
	}
	def, err := e.Team(defense, b, g)
	if err != nil {
		return nil, fmt.Errorf("defense: %w", err)
	}
	ctl, err := Transform(off, def)
	if err != nil {
		return nil, err
	}
	return &Result{Offense: off, Defense: def, Control: ctl}, nil
}

// Control returns only the control surface.
func (e *Evaluator) Control(offense, defense []pitch.Player, b pitch.Ball, g pitch.Grid) (*mat.Dense, error) {
	res, err := e.Evaluate(offense, defense, b, g)
	if err != nil {
		return nil, err
	}
	return res.Control, nil
}
