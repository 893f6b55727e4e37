package sim

// ArenaBlock is a single grid cell: a static energy value and the lifeforms
// currently standing on it. Elevation is carried for serialization but has
// no behavioral effect.
type ArenaBlock struct {
	energy    float64
	elevation int16
	lifeforms []*Lifeform
}

// Energy returns the energy available on the block.
func (b *ArenaBlock) Energy() float64 { return b.energy }

// SetEnergy replaces the block's energy value.
func (b *ArenaBlock) SetEnergy(e float64) { b.energy = e }

// Elevation returns the block's elevation.
func (b *ArenaBlock) Elevation() int16 { return b.elevation }

// SetElevation replaces the block's elevation.
func (b *ArenaBlock) SetElevation(e int16) { b.elevation = e }

// Lifeforms returns the block's occupant list. The slice is borrowed;
// callers must not retain it across arena mutations.
func (b *ArenaBlock) Lifeforms() []*Lifeform { return b.lifeforms }

// Add appends the lifeform to the block.
func (b *ArenaBlock) Add(lf *Lifeform) {
	b.lifeforms = append(b.lifeforms, lf)
}

// Remove takes the lifeform off the block, if it was there. Cell occupancy
// is small so the linear scan is fine.
func (b *ArenaBlock) Remove(victim *Lifeform) {
	for i, lf := range b.lifeforms {
		if lf.ID == victim.ID {
			b.lifeforms = append(b.lifeforms[:i], b.lifeforms[i+1:]...)
			return
		}
	}
}

// Contains reports whether the lifeform is on the block.
func (b *ArenaBlock) Contains(lf *Lifeform) bool {
	for _, occ := range b.lifeforms {
		if occ.ID == lf.ID {
			return true
		}
	}
	return false
}
