package sim

import (
	"github.com/evolsim/evol/internal/params"
)

// Mutate edits the lifeform's DNA in place by inserting, deleting, changing,
// or translating one or more opcode runs. Invoked only on a freshly born
// child, with the child's own RNG.
func (lf *Lifeform) Mutate() {
	mutations := 0
	die := lf.rng.Int32(0, params.MutationDieRoll)
	if die >= params.OneMutation {
		mutations = 1
	}
	if die >= params.TwoMutations {
		mutations = 2
	}

	for i := 0; i < mutations; i++ {
		size := int32(len(lf.DNA))
		start := lf.rng.Int32(0, size)
		// length is drawn so that start+length never passes the end of DNA,
		// which keeps every operator bounds-safe without branching
		length := lf.rng.Int32(0, min32(params.MaxMutationLength, size-start))
		if length < 1 || start == size {
			continue
		}
		switch kind := lf.rng.Int32(0, 3); kind {
		case 0:
			lf.mutateInsert(length, start)
		case 1:
			lf.mutateDelete(length, start)
		case 2:
			lf.mutateChange(length, start)
		case 3:
			lf.mutateTranslate(length, start)
		}
	}
}

// mutateInsert inserts length NOP opcodes at start.
func (lf *Lifeform) mutateInsert(length, start int32) {
	insert := make(DNA, length)
	lf.DNA = append(lf.DNA[:start], append(insert, lf.DNA[start:]...)...)
}

// mutateDelete erases length opcodes starting at start.
func (lf *Lifeform) mutateDelete(length, start int32) {
	lf.DNA = append(lf.DNA[:start], lf.DNA[start+length:]...)
}

// mutateChange overwrites length opcodes at start with uniformly random
// opcodes from the valid range.
func (lf *Lifeform) mutateChange(length, start int32) {
	for i := start; i < start+length; i++ {
		lf.DNA[i] = Opcode(lf.rng.Int32(OpcodeBegin, OpcodeEnd))
	}
}

// mutateTranslate swaps the length-run at start with a second random run of
// the same length. The runs are exchanged element by element (see
// translate), which also covers overlapping runs.
func (lf *Lifeform) mutateTranslate(length, start int32) {
	target := lf.rng.Int32(0, int32(len(lf.DNA))-length)
	if target == start {
		return
	}
	lf.translate(start, length, target)
}

// translate exchanges the runs element by element: each source opcode is
// written over its target slot and the saved target opcode back over the
// source slot. Doing it per element keeps the opcode multiset intact even
// when the runs overlap.
func (lf *Lifeform) translate(start, length, target int32) {
	for i := int32(0); i < length; i++ {
		lf.DNA[start+i], lf.DNA[target+i] = lf.DNA[target+i], lf.DNA[start+i]
	}
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
