// Package scenario loads single frames of player and ball states from YAML
// for the command line tool and tests.
package scenario

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/pitchcontrol/pitch"
)

//go:embed kickoff.yaml
var kickoffYAML []byte

// Frame is one instant: the ball and both sides.
type Frame struct {
	Name    string         `yaml:"name"`
	Ball    pitch.Ball     `yaml:"ball"`
	Offense []pitch.Player `yaml:"offense"`
	Defense []pitch.Player `yaml:"defense"`
}

// Default returns the embedded kickoff frame.
func Default() (*Frame, error) {
	f, err := Parse(kickoffYAML)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded frame: %w", err)
	}
	return f, nil
}

// Load reads a frame from path, or the embedded frame if path is empty.
func Load(path string) (*Frame, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading frame: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML frame.
func Parse(data []byte) (*Frame, error) {
	f := &Frame{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parsing frame: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate rejects non-finite coordinates and negative speeds.
func (f *Frame) Validate() error {
	if !finite(f.Ball.X, f.Ball.Y) {
		return fmt.Errorf("ball: non-finite position (%v, %v)", f.Ball.X, f.Ball.Y)
	}
	sides := []struct {
		name    string
		players []pitch.Player
	}{
		{"offense", f.Offense},
		{"defense", f.Defense},
	}
	for _, side := range sides {
		for i, p := range side.players {
			if !finite(p.X, p.Y, p.Speed, p.Theta) {
				return fmt.Errorf("%s player %d: non-finite state %+v", side.name, i, p)
			}
			if p.Speed < 0 {
				return fmt.Errorf("%s player %d: negative speed %v", side.name, i, p.Speed)
			}
		}
	}
	return nil
}

// OffPitch returns "side:index" for every player outside the field.
func (f *Frame) OffPitch(field pitch.Pitch) []string {
	var out []string
	for i, p := range f.Offense {
		if !field.Contains(p.X, p.Y) {
			out = append(out, fmt.Sprintf("offense:%d", i))
		}
	}
	for i, p := range f.Defense {
		if !field.Contains(p.X, p.Y) {
			out = append(out, fmt.Sprintf("defense:%d", i))
		}
	}
	return out
}

// Select picks a player by "offense:N" or "defense:N".
func (f *Frame) Select(sel string) (pitch.Player, error) {
	side, idx, ok := strings.Cut(sel, ":")
	if !ok {
		return pitch.Player{}, fmt.Errorf("player selector %q: want side:index", sel)
	}
	n, err := strconv.Atoi(idx)
	if err != nil {
		return pitch.Player{}, fmt.Errorf("player selector %q: %w", sel, err)
	}

	var players []pitch.Player
	switch side {
	case "offense":
		players = f.Offense
	case "defense":
		players = f.Defense
	default:
		return pitch.Player{}, fmt.Errorf("player selector %q: unknown side %q", sel, side)
	}
	if n < 0 || n >= len(players) {
		return pitch.Player{}, fmt.Errorf("player selector %q: index out of range (%d players)", sel, len(players))
	}
	return players[n], nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
