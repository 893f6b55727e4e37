package engine

import (
	"sync"
	"sync/atomic"

	"github.com/evolsim/evol/internal/params"
	"github.com/evolsim/evol/internal/sim"
	"github.com/evolsim/evol/internal/utils"
)

// Watermarks tracks the lowest and highest live population an engine's
// arena has seen.
type Watermarks struct {
	PopulationLow  int
	PopulationHigh int
}

// Engine advances one arena tick by tick on its own goroutine. The engine
// mutex guards the arena, turn counter, and watermarks; it is held only for
// the mutating portion of a tick, and by observers taking a snapshot. The
// sense/decide pass runs without the lock since nothing else writes the
// arena.
type Engine struct {
	id     int
	doExit atomic.Bool

	rng      *sim.Random
	arena    *sim.Arena
	asteroid *Asteroid

	turns  uint64
	births uint64

	timer  *Timer
	logger *utils.Logger

	mu         sync.Mutex
	watermarks Watermarks
}

// New builds an engine with its own arena and RNG. The asteroid may be nil,
// which disables migration.
func New(id int, width, height sim.Unit, asteroid *Asteroid, logger *utils.Logger) *Engine {
	if logger == nil {
		logger = utils.DefaultLogger("engine")
	}
	rng := sim.NewRandom()
	e := &Engine{
		id:       id,
		rng:      rng,
		arena:    sim.NewArena(width, height, rng),
		asteroid: asteroid,
		timer:    NewTimer("Main loop"),
		logger:   logger,
		watermarks: Watermarks{
			PopulationLow: int(^uint(0) >> 1),
		},
	}
	return e
}

// ID returns the engine's index within its supervisor.
func (e *Engine) ID() int { return e.id }

// Seed loads the given number of generation-0 lifeforms at random
// coordinates.
func (e *Engine) Seed(numLifeforms int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := 0; i < numLifeforms; i++ {
		e.arena.Add(sim.NewSeedLifeform(e.rng), e.arena.RandomCoord())
	}
}

// Stop sets the exit flag; the engine leaves its loop at the next iteration
// boundary. In-flight ticks complete.
func (e *Engine) Stop() {
	e.doExit.Store(true)
}

// Run begins the simulation and does not return until Stop is called.
func (e *Engine) Run() {
	e.logger.Info("engine running", utils.Int("engine", e.id))
	for !e.doExit.Load() {
		e.Tick()
	}
	e.logger.Info("engine stopped",
		utils.Int("engine", e.id),
		utils.Uint64("turns", e.turns),
	)
}

// Tick advances the arena by one turn: decide, bucket, resolve, distribute
// energy, metabolize, starve, split, migrate.
func (e *Engine) Tick() {
	e.timer.Start()

	// Run each lifeform's DNA and collect its resulting action. These make
	// no change to the arena and are resolved later in the tick.
	roster := e.arena.Lifeforms()
	actions := make([]sim.Action, 0, len(roster))
	for _, lf := range roster {
		actions = append(actions, sim.Action{Actor: lf, Type: lf.RunDNA(e.arena)})
	}

	// Bucket actions by destination coordinate. Bucket order is arbitrary;
	// order within a bucket is preserved.
	buckets := make(map[sim.Coord][]sim.Action)
	for _, act := range actions {
		dest := act.Destination()
		buckets[dest] = append(buckets[dest], act)
	}

	// Time to update the arena and birth/kill lifeforms; take the lock.
	e.mu.Lock()
	defer e.mu.Unlock()

	e.resolve(buckets)
	e.distributeEnergy()
	e.metabolize()
	e.killStarved()
	e.splitFat()
	e.migrate()

	pop := e.arena.LifeformCount()
	if pop < e.watermarks.PopulationLow {
		e.watermarks.PopulationLow = pop
	}
	if pop > e.watermarks.PopulationHigh {
		e.watermarks.PopulationHigh = pop
	}

	e.timer.End()
	e.turns++
}

// resolve commits the bucketed actions. There is no collision rejection:
// any number of lifeforms may end up on the same cell.
func (e *Engine) resolve(buckets map[sim.Coord][]sim.Action) {
	for dest, acts := range buckets {
		for _, act := range acts {
			switch act.Type {
			case sim.ActApoptosis:
				e.arena.Kill(act.Actor)
			case sim.ActNothing:
			default:
				e.arena.Move(act.Actor, dest)
			}
		}
	}
}

// distributeEnergy apportions each cell's energy: occupied cells split it
// among their occupants, empty cells among the occupants of the 8 wrapped
// neighbor cells; energy of an empty cell with no adjacent occupants is
// lost this turn.
//
// Shares are computed against occupancy as observed at the start of the
// pass: deltas are collected first and applied afterwards, so cell
// iteration order cannot affect what any lifeform receives.
func (e *Engine) distributeEnergy() {
	type share struct {
		lf    *sim.Lifeform
		delta float64
	}
	var shares []share

	width := e.arena.Width()
	height := e.arena.Height()
	for x := sim.Unit(0); x < width; x++ {
		for y := sim.Unit(0); y < height; y++ {
			c := sim.NewCoord(x, y)
			available := e.arena.Energy(c)

			occupants := e.arena.LifeformsAt(c)
			if len(occupants) > 0 {
				per := available / float64(len(occupants))
				for _, lf := range occupants {
					shares = append(shares, share{lf, per})
				}
				continue
			}

			adjacent := e.arena.AdjacentLifeforms(c)
			if len(adjacent) == 0 {
				continue
			}
			per := available / float64(len(adjacent))
			for _, lf := range adjacent {
				shares = append(shares, share{lf, per})
			}
		}
	}

	for _, s := range shares {
		s.lf.Energy += s.delta
	}
}

// metabolize deducts the cost of living plus the per-opcode upkeep.
func (e *Engine) metabolize() {
	for _, lf := range e.arena.Lifeforms() {
		lf.Energy -= params.CostOfLiving + params.CostOfOpcode*float64(len(lf.DNA))
	}
}

// killStarved removes every lifeform whose energy has run out.
func (e *Engine) killStarved() {
	for _, lf := range e.arena.Lifeforms() {
		if lf.Energy <= 0.0 {
			e.arena.Kill(lf)
		}
	}
}

// splitFat reproduces every lifeform at or above the meiosis level: the
// child copies the parent's DNA, mutates, and parent and child each take
// half the parent's post-cost energy. Iterating a roster snapshot keeps
// newborns from reproducing in the same turn.
func (e *Engine) splitFat() {
	for _, lf := range e.arena.Lifeforms() {
		if lf.Energy < params.MeiosisLevel {
			continue
		}
		child := lf.MakeChild()
		child.Mutate()
		remaining := lf.Energy - params.MeiosisCost
		lf.Energy = remaining / 2.0
		child.Energy = remaining / 2.0
		e.arena.Add(child, lf.Coord)
		e.births++
	}
}

// migrate launches a random lifeform to the asteroid and/or lands one from
// it on this arena's configured intervals.
func (e *Engine) migrate() {
	if e.asteroid == nil {
		return
	}

	if params.AsteroidLaunchInterval != 0 && e.turns%params.AsteroidLaunchInterval == 0 {
		if lf := e.arena.RemoveRandom(); lf != nil {
			e.asteroid.Launch(lf)
		}
	}

	if params.AsteroidLandInterval != 0 && e.turns%params.AsteroidLandInterval == 0 {
		if lf := e.asteroid.Land(); lf != nil {
			// The immigrant draws from this engine's RNG from now on.
			lf.SetRandom(e.rng)
			e.arena.Add(lf, e.arena.RandomCoord())
		}
	}
}
