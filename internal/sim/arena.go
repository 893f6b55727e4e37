package sim

import "fmt"

// Arena is the toroidal grid all lifeforms live upon, plus the master roster
// of those lifeforms. The arena owns its living lifeforms; per-block
// occupant lists hold non-owning handles. One engine owns each arena and is
// the only writer.
type Arena struct {
	width  Unit
	height Unit

	// Dense row-major grid of blocks, indexed y*width + x.
	blocks []ArenaBlock

	// Master roster of living lifeforms in insertion order.
	roster []*Lifeform

	deadCount uint64

	rng *Random
}

// NewArena builds an empty arena. Every block starts with energy 1.0.
func NewArena(width, height Unit, rng *Random) *Arena {
	if width <= 0 || height <= 0 {
		panic("sim: arena dimensions must be positive")
	}
	a := &Arena{
		width:  width,
		height: height,
		blocks: make([]ArenaBlock, int(width)*int(height)),
		rng:    rng,
	}
	for i := range a.blocks {
		a.blocks[i].energy = 1.0
	}
	return a
}

func (a *Arena) Width() Unit  { return a.width }
func (a *Arena) Height() Unit { return a.height }

// At returns the block at the given coordinate.
func (a *Arena) At(c Coord) *ArenaBlock {
	return &a.blocks[c.Y*a.width+c.X]
}

// Lifeforms returns a copy of the roster. Handles stay live across arena
// mutations but membership does not.
func (a *Arena) Lifeforms() []*Lifeform {
	out := make([]*Lifeform, len(a.roster))
	copy(out, a.roster)
	return out
}

// LifeformCount returns the number of live lifeforms.
func (a *Arena) LifeformCount() int { return len(a.roster) }

// DeadCount returns the lifetime number of deaths on this arena.
func (a *Arena) DeadCount() uint64 { return a.deadCount }

// Add places the lifeform at c, appending it to the block and the roster.
func (a *Arena) Add(lf *Lifeform, c Coord) {
	lf.Coord = c
	a.At(c).Add(lf)
	a.roster = append(a.roster, lf)
}

// Move relocates the lifeform to c. Moving to the current coordinate is a
// no-op in effect.
func (a *Arena) Move(lf *Lifeform, c Coord) {
	a.At(lf.Coord).Remove(lf)
	lf.Coord = c
	a.At(c).Add(lf)
}

// LifeformsAt returns the occupants of the cell at c (borrowed slice).
func (a *Arena) LifeformsAt(c Coord) []*Lifeform {
	return a.At(c).Lifeforms()
}

// NumLifeformsAt returns the occupant count of the cell at c.
func (a *Arena) NumLifeformsAt(c Coord) int {
	return len(a.At(c).Lifeforms())
}

// AdjacentLifeforms returns all lifeforms in the 8 wrapped cells around c,
// excluding c itself.
func (a *Arena) AdjacentLifeforms(c Coord) []*Lifeform {
	var adjacent []*Lifeform
	for dx := Unit(-1); dx <= 1; dx++ {
		for dy := Unit(-1); dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			t := NewCoord(c.X+dx, c.Y+dy)
			adjacent = append(adjacent, a.At(t).Lifeforms()...)
		}
	}
	return adjacent
}

// AdjacentAny reports whether any of the 8 wrapped cells around c is
// occupied.
func (a *Arena) AdjacentAny(c Coord) bool {
	for dx := Unit(-1); dx <= 1; dx++ {
		for dy := Unit(-1); dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if a.NumLifeformsAt(NewCoord(c.X+dx, c.Y+dy)) > 0 {
				return true
			}
		}
	}
	return false
}

// Kill removes the lifeform from roster and block, marks it dead, and
// increments the death counter. The lifeform must be in the roster; asking
// to kill an absent one is a programming error.
func (a *Arena) Kill(lf *Lifeform) *Lifeform {
	if !a.detach(lf) {
		panic(fmt.Sprintf("sim: kill of lifeform %d which is not in the roster", lf.ID))
	}
	lf.Alive = false
	a.deadCount++
	return lf
}

// RemoveRandom detaches a uniformly selected roster member and returns it.
// The lifeform stays alive and the death counter is untouched; this is how
// passengers board the asteroid. Returns nil on an empty arena.
func (a *Arena) RemoveRandom() *Lifeform {
	if len(a.roster) == 0 {
		return nil
	}
	lf := a.roster[a.rng.Intn(len(a.roster))]
	a.detach(lf)
	return lf
}

// detach unlinks the lifeform from roster and block. Returns false if it was
// not in the roster.
func (a *Arena) detach(lf *Lifeform) bool {
	for i, member := range a.roster {
		if member.ID == lf.ID {
			a.roster = append(a.roster[:i], a.roster[i+1:]...)
			a.At(lf.Coord).Remove(lf)
			return true
		}
	}
	return false
}

// Energy returns the energy available at c.
func (a *Arena) Energy(c Coord) float64 {
	return a.At(c).Energy()
}

// RandomCoord returns a coordinate uniform over the grid.
func (a *Arena) RandomCoord() Coord {
	return NewCoord(a.rng.Int32(0, int32(a.width)-1), a.rng.Int32(0, int32(a.height)-1))
}
