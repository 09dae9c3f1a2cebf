// Package pitch holds the inputs of a pitch control evaluation: player and
// ball states on the field plane and the coordinate grid they are sampled on.
package pitch

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Player is the instantaneous state of one player.
// Speed is in metres per second, Theta is the heading in radians.
type Player struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Speed float64 `yaml:"speed"`
	Theta float64 `yaml:"theta"`
}

// Pos returns the player's current position.
func (p Player) Pos() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// Heading returns the unit vector of the direction of travel.
func (p Player) Heading() r2.Vec {
	return r2.Vec{X: math.Cos(p.Theta), Y: math.Sin(p.Theta)}
}

// Ball is the ball position shared by every player in one evaluation.
type Ball struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Pos returns the ball position.
func (b Ball) Pos() r2.Vec { return r2.Vec{X: b.X, Y: b.Y} }

// DistanceToBall is the Euclidean distance between a player and the ball.
func DistanceToBall(p Player, b Ball) float64 {
	return r2.Norm(r2.Sub(p.Pos(), b.Pos()))
}

// Centroid returns the mean position of a set of players.
// ok is false for an empty set.
func Centroid(players []Player) (c r2.Vec, ok bool) {
	if len(players) == 0 {
		return r2.Vec{}, false
	}
	for _, p := range players {
		c = r2.Add(c, p.Pos())
	}
	return r2.Scale(1/float64(len(players)), c), true
}
