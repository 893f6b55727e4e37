package sim

import "sync/atomic"

// nextLifeformID hands out ids unique across all engines.
var nextLifeformID atomic.Uint64

// Lifeform is an autonomous agent with identity, generation, energy, a
// coordinate, and a DNA program. A lifeform is mutated only by the engine
// that owns its arena; the id counter is the one piece of cross-engine
// shared state.
type Lifeform struct {
	ID     uint64
	Gen    uint64
	Alive  bool
	Energy float64
	Coord  Coord
	DNA    DNA

	rng *Random
}

// NewLifeform creates a lifeform at generation gen with the given program.
// Energy starts at 1.0.
func NewLifeform(gen uint64, dna DNA, rng *Random) *Lifeform {
	return &Lifeform{
		ID:     nextLifeformID.Add(1),
		Gen:    gen,
		Alive:  true,
		Energy: 1.0,
		DNA:    dna,
		rng:    rng,
	}
}

// NewSeedLifeform creates a generation-0 lifeform with the seeding program.
func NewSeedLifeform(rng *Random) *Lifeform {
	return NewLifeform(0, DNA{OpFinalMoveRandom}, rng)
}

// SetRandom rebinds the lifeform to a different engine's RNG. Used when a
// lifeform lands on a new arena.
func (lf *Lifeform) SetRandom(r *Random) {
	lf.rng = r
}

// MakeChild returns a new lifeform one generation down with a copy of the
// parent's DNA. The child shares the parent's RNG (both belong to the same
// engine thread).
func (lf *Lifeform) MakeChild() *Lifeform {
	return NewLifeform(lf.Gen+1, lf.DNA.Clone(), lf.rng)
}
