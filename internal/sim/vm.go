package sim

import (
	"fmt"

	"github.com/evolsim/evol/internal/params"
)

// View is the narrow arena capability the DNA VM senses through. The arena
// implements it; the VM needs nothing else from the world.
type View interface {
	NumLifeformsAt(c Coord) int
	AdjacentAny(c Coord) bool
}

// RunDNA executes the lifeform's program against the given view and returns
// the selected action. Machine state is a program counter and a single cmp
// flag, both local to the run. All jumps are forward-only, so execution
// halts within len(DNA) dispatches.
//
// The only side effect a run may have on the lifeform, besides its returned
// action, is the RandomMoveCost deduction of FINAL_MOVE_RANDOM.
func (lf *Lifeform) RunDNA(view View) ActionType {
	if len(lf.DNA) == 0 {
		// A lifeform with no DNA dies
		return ActApoptosis
	}

	cmp := false

	for pc := 0; pc < len(lf.DNA); pc++ {
		switch op := lf.DNA[pc]; op {
		case OpNop:

		case OpApoptosis:
			return ActApoptosis

		case OpIsNorthOccupied:
			cmp = view.NumLifeformsAt(lf.Coord.North()) > 0
		case OpIsSouthOccupied:
			cmp = view.NumLifeformsAt(lf.Coord.South()) > 0
		case OpIsEastOccupied:
			cmp = view.NumLifeformsAt(lf.Coord.East()) > 0
		case OpIsWestOccupied:
			cmp = view.NumLifeformsAt(lf.Coord.West()) > 0

		case OpIsCrowded:
			cmp = view.NumLifeformsAt(lf.Coord) > 1
		case OpIsNeighbor:
			cmp = view.AdjacentAny(lf.Coord)

		case OpFinalMoveNorth:
			return ActMoveNorth
		case OpFinalMoveEast:
			return ActMoveEast
		case OpFinalMoveSouth:
			return ActMoveSouth
		case OpFinalMoveWest:
			return ActMoveWest
		case OpFinalMoveRandom:
			lf.Energy -= params.RandomMoveCost
			return ActionType(actionMoveBegin + int32(lf.rng.Int32(0, actionMoveEnd-actionMoveBegin)))

		case OpJmp1, OpJmp2, OpJmp3, OpJmp4, OpJmp5:
			pc += int(op - OpJmp1 + 1)
		case OpCjmp1, OpCjmp2, OpCjmp3, OpCjmp4, OpCjmp5:
			if cmp {
				pc += int(op - OpCjmp1 + 1)
			}

		default:
			// Opcodes are only ever generated inside the valid range;
			// anything else means corrupted state.
			panic(fmt.Sprintf("sim: invalid opcode byte %d at pc %d", op, pc))
		}
	}

	// DNA execution ended without a FINAL_* action
	return ActNothing
}
