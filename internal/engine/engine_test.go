package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolsim/evol/internal/params"
	"github.com/evolsim/evol/internal/sim"
)

func newTestEngine(t *testing.T, w, h sim.Unit, asteroid *Asteroid) *Engine {
	t.Helper()
	sim.SetGlobalBounds(w, h)
	return New(0, w, h, asteroid, nil)
}

func placeLifeform(e *Engine, dna sim.DNA, c sim.Coord, energy float64) *sim.Lifeform {
	lf := sim.NewLifeform(0, dna, sim.NewRandomSeeded(11))
	lf.Energy = energy
	e.arena.Add(lf, c)
	return lf
}

// assertArenaConsistent checks the roster/block invariants through the
// public arena surface.
func assertArenaConsistent(t *testing.T, a *sim.Arena) {
	t.Helper()

	total := 0
	for x := sim.Unit(0); x < a.Width(); x++ {
		for y := sim.Unit(0); y < a.Height(); y++ {
			total += a.NumLifeformsAt(sim.NewCoord(x, y))
		}
	}
	assert.Equal(t, a.LifeformCount(), total)

	for _, lf := range a.Lifeforms() {
		assert.True(t, a.At(lf.Coord).Contains(lf), "lifeform %d not in its block", lf.ID)
	}
}

func TestTick_EmptyDNAIsRemoved(t *testing.T) {
	e := newTestEngine(t, 4, 4, nil)
	lf := placeLifeform(e, sim.DNA{}, sim.NewCoord(1, 1), 100.0)

	e.Tick()

	assert.False(t, lf.Alive)
	assert.Equal(t, 0, e.arena.LifeformCount())
	assert.Equal(t, uint64(1), e.arena.DeadCount())
	assertArenaConsistent(t, e.arena)
}

func TestTick_FinalMoveNorth(t *testing.T) {
	e := newTestEngine(t, 4, 4, nil)
	lf := placeLifeform(e, sim.DNA{sim.OpFinalMoveNorth}, sim.NewCoord(2, 2), 100.0)

	e.Tick()

	assert.Equal(t, sim.NewCoord(2, 1), lf.Coord)
	assertArenaConsistent(t, e.arena)
}

func TestTick_FinalMoveNorthWraps(t *testing.T) {
	e := newTestEngine(t, 4, 4, nil)
	lf := placeLifeform(e, sim.DNA{sim.OpFinalMoveNorth}, sim.NewCoord(2, 0), 100.0)

	e.Tick()

	assert.Equal(t, sim.NewCoord(2, 3), lf.Coord)
	assertArenaConsistent(t, e.arena)
}

func TestTick_CrowdingSensor(t *testing.T) {
	e := newTestEngine(t, 3, 3, nil)

	// Two lifeforms share (1,1); the sensor sets cmp, CJMP1 skips
	// FINAL_MOVE_NORTH, and A walks south instead.
	a := placeLifeform(e,
		sim.DNA{sim.OpIsCrowded, sim.OpCjmp1, sim.OpFinalMoveNorth, sim.OpFinalMoveSouth},
		sim.NewCoord(1, 1), 100.0)
	placeLifeform(e, sim.DNA{sim.OpNop}, sim.NewCoord(1, 1), 100.0)

	e.Tick()

	assert.Equal(t, sim.NewCoord(1, 2), a.Coord)
	assertArenaConsistent(t, e.arena)
}

func TestSplitFat_EnergyAndGeneration(t *testing.T) {
	e := newTestEngine(t, 4, 4, nil)
	parent := placeLifeform(e, sim.DNA{sim.OpNop}, sim.NewCoord(0, 0), 210.0)

	// Reproduction step alone, no metabolism in between.
	e.splitFat()

	roster := e.arena.Lifeforms()
	require.Len(t, roster, 2)

	var child *sim.Lifeform
	for _, lf := range roster {
		if lf.ID != parent.ID {
			child = lf
		}
	}
	require.NotNil(t, child)

	assert.InDelta(t, (210.0-params.MeiosisCost)/2.0, parent.Energy, 1e-9)
	assert.InDelta(t, 92.5, child.Energy, 1e-9)
	assert.Equal(t, parent.Gen+1, child.Gen)
	assert.Equal(t, sim.NewCoord(0, 0), child.Coord)
	assertArenaConsistent(t, e.arena)
}

func TestSplitFat_NewbornsDoNotSplitSameTick(t *testing.T) {
	e := newTestEngine(t, 4, 4, nil)

	// Child energy after the split is (475-25)/2 = 225, above the meiosis
	// level, but the roster snapshot keeps it out of this round.
	placeLifeform(e, sim.DNA{sim.OpNop}, sim.NewCoord(0, 0), 475.0)

	e.splitFat()

	assert.Equal(t, 2, e.arena.LifeformCount())
}

func TestTick_Starvation(t *testing.T) {
	e := newTestEngine(t, 4, 4, nil)

	c := sim.NewCoord(1, 1)
	lf := placeLifeform(e, sim.DNA{sim.OpNop}, c, 1.0)
	e.arena.At(c).SetEnergy(0.5)
	// The 8 empty cells around c would otherwise hand their energy to the
	// lone lifeform; drain them so only the own-cell share arrives.
	for dx := sim.Unit(-1); dx <= 1; dx++ {
		for dy := sim.Unit(-1); dy <= 1; dy++ {
			if dx != 0 || dy != 0 {
				e.arena.At(sim.NewCoord(c.X+dx, c.Y+dy)).SetEnergy(0)
			}
		}
	}

	e.Tick()

	// Own-cell share of 0.5 lifts energy to 1.5; metabolism takes
	// 2.0 + 0.01, leaving -0.51; starvation removes the lifeform.
	assert.False(t, lf.Alive)
	assert.Equal(t, 0, e.arena.LifeformCount())
	assert.Equal(t, uint64(1), e.arena.DeadCount())
}

func TestTick_EnergySharedAmongOccupants(t *testing.T) {
	e := newTestEngine(t, 4, 4, nil)

	c := sim.NewCoord(1, 1)
	first := placeLifeform(e, sim.DNA{sim.OpNop}, c, 100.0)
	second := placeLifeform(e, sim.DNA{sim.OpNop}, c, 100.0)

	e.Tick()

	// Both split their own cell's 1.0, and each of the 8 empty cells around
	// (1,1) splits its energy between them. Shares are symmetric, so the
	// two stay at exactly equal energy.
	assert.InDelta(t, first.Energy, second.Energy, 1e-9)
	assert.Greater(t, first.Energy, 100.0-params.CostOfLiving-params.CostOfOpcode)
}

func TestTick_EmptyCellEnergyGoesToAdjacent(t *testing.T) {
	e := newTestEngine(t, 8, 8, nil)

	// One lifeform alone: it receives its own cell's energy plus the full
	// energy of each of the 8 cells around it (it is their only adjacent
	// occupant). 9.0 in, then metabolism.
	lf := placeLifeform(e, sim.DNA{sim.OpNop}, sim.NewCoord(4, 4), 100.0)

	e.Tick()

	want := 100.0 + 9.0 - params.CostOfLiving - params.CostOfOpcode*1
	assert.InDelta(t, want, lf.Energy, 1e-9)
}

func TestTick_ApoptosisOpcode(t *testing.T) {
	e := newTestEngine(t, 4, 4, nil)
	lf := placeLifeform(e, sim.DNA{sim.OpApoptosis}, sim.NewCoord(1, 1), 100.0)

	e.Tick()

	assert.False(t, lf.Alive)
	assert.Equal(t, uint64(1), e.arena.DeadCount())
}

func TestTick_MigrationRoundTrip(t *testing.T) {
	sim.SetGlobalBounds(4, 4)
	asteroid := NewAsteroid(1)

	e1 := New(1, 4, 4, asteroid, nil)
	e2 := New(2, 4, 4, asteroid, nil)

	lf := sim.NewLifeform(0, sim.DNA{sim.OpNop}, sim.NewRandomSeeded(3))
	lf.Energy = 100.0
	e1.arena.Add(lf, sim.NewCoord(0, 0))

	// Pin the turn counters so E1's tick hits only the launch interval and
	// E2's tick only the land interval. (Turn 0 sits on both intervals at
	// once, which would hand E1 its own lifeform straight back.)
	e1.turns = params.AsteroidLaunchInterval
	e2.turns = params.AsteroidLandInterval

	e1.Tick()
	assert.Equal(t, 0, e1.arena.LifeformCount())
	assert.Equal(t, 1, asteroid.NumWaiting())
	assert.Equal(t, uint64(1), asteroid.NumLaunched())
	assert.True(t, lf.Alive, "asteroid passengers stay alive")

	e2.Tick()
	assert.Equal(t, 0, asteroid.NumWaiting())
	assert.Equal(t, uint64(1), asteroid.NumLanded())

	roster := e2.arena.Lifeforms()
	require.Len(t, roster, 1)
	assert.Equal(t, lf.ID, roster[0].ID)
	assertArenaConsistent(t, e2.arena)
}

func TestTick_RosterEvolutionInvariant(t *testing.T) {
	e := newTestEngine(t, 8, 8, nil)
	e.Seed(10)

	for i := 0; i < 50; i++ {
		before := map[uint64]bool{}
		for _, lf := range e.arena.Lifeforms() {
			before[lf.ID] = true
		}
		beforeDead := e.arena.DeadCount()

		e.Tick()

		// Every survivor was present before or was born this tick (there is
		// no asteroid, so no landings).
		for _, lf := range e.arena.Lifeforms() {
			if !before[lf.ID] {
				assert.Greater(t, lf.Gen, uint64(0), "unexplained newcomer %d", lf.ID)
			}
		}
		assert.GreaterOrEqual(t, e.arena.DeadCount(), beforeDead)
		assertArenaConsistent(t, e.arena)
	}
}

func TestEngine_SnapshotAndSummary(t *testing.T) {
	e := newTestEngine(t, 4, 4, nil)
	placeLifeform(e, sim.DNA{sim.OpFinalMoveNorth}, sim.NewCoord(1, 1), 50.0)
	e.Tick()

	snap := e.Snapshot()
	assert.Equal(t, uint64(1), snap.Turns)
	assert.Equal(t, 1, snap.Population)
	require.Len(t, snap.Lifeforms, 1)
	assert.Equal(t, sim.DNA{sim.OpFinalMoveNorth}, snap.Lifeforms[0].DNA)

	sum := e.Summary()
	assert.Equal(t, snap.Population, sum.Population)
	assert.Equal(t, snap.Turns, sum.Turns)
	assert.Equal(t, 1, sum.Watermarks.PopulationLow)
	assert.Equal(t, 1, sum.Watermarks.PopulationHigh)
}

func TestEngine_StopEndsRun(t *testing.T) {
	e := newTestEngine(t, 4, 4, nil)
	e.Seed(3)

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	e.Stop()
	<-done
}
