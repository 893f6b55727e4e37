package sim

// Unit is the integer type of arena coordinates.
type Unit = int32

// Global coordinate bounds. Set once at startup before any Coord is
// constructed; every Coord wraps itself into [0, maxX) x [0, maxY).
var (
	maxX Unit
	maxY Unit
)

// SetGlobalBounds sets the bounding box of all Coord values globally. Newly
// constructed Coords wrap their components to remain inside this box. It
// does not affect existing Coords, so it is called at init and never again.
func SetGlobalBounds(x, y Unit) {
	if x <= 0 || y <= 0 {
		panic("sim: coordinate bounds must be positive")
	}
	maxX = x
	maxY = y
}

// Coord is a toroidal cartesian coordinate with origin at the northwest
// corner. North decrements y, south increments y, east increments x, west
// decrements x; all derivations wrap.
type Coord struct {
	X Unit
	Y Unit
}

// NewCoord returns a Coord normalized into the global bounds.
func NewCoord(x, y Unit) Coord {
	if maxX <= 0 || maxY <= 0 {
		panic("sim: Coord constructed before SetGlobalBounds")
	}
	return Coord{X: wrap(x, maxX), Y: wrap(y, maxY)}
}

func wrap(v, max Unit) Unit {
	return ((v % max) + max) % max
}

func (c Coord) North() Coord { return NewCoord(c.X, c.Y-1) }
func (c Coord) South() Coord { return NewCoord(c.X, c.Y+1) }
func (c Coord) East() Coord  { return NewCoord(c.X+1, c.Y) }
func (c Coord) West() Coord  { return NewCoord(c.X-1, c.Y) }
