package pitch

// Pitch is the fixed rectangular playing field, centred on the origin.
type Pitch struct {
	Length float64 // extent along x, metres
	Width  float64 // extent along y, metres
}

// Standard is a 105×70 m pitch.
var Standard = Pitch{Length: 105, Width: 70}

// Bounds returns the field rectangle.
func (p Pitch) Bounds() (minX, maxX, minY, maxY float64) {
	hl, hw := p.Length/2, p.Width/2
	return -hl, hl, -hw, hw
}

// Contains reports whether (x, y) lies on the pitch, lines included.
func (p Pitch) Contains(x, y float64) bool {
	minX, maxX, minY, maxY := p.Bounds()
	return x >= minX && x <= maxX && y >= minY && y <= maxY
}

// Clamp projects (x, y) onto the pitch rectangle.
func (p Pitch) Clamp(x, y float64) (float64, float64) {
	minX, maxX, minY, maxY := p.Bounds()
	return min(max(x, minX), maxX), min(max(y, minY), maxY)
}
