package engine

import "github.com/evolsim/evol/internal/sim"

// LifeformRecord is the value-copy of one lifeform exposed to observers.
type LifeformRecord struct {
	ID     uint64
	Gen    uint64
	Alive  bool
	Energy float64
	DNA    sim.DNA
}

// Snapshot is a consistent value-copy of an engine's observable state.
type Snapshot struct {
	EngineID   int
	Turns      uint64
	Births     uint64
	Population int
	Dead       uint64
	Watermarks Watermarks
	Timer      TimerStats
	Lifeforms  []LifeformRecord
}

// Summary is a Snapshot without the per-lifeform records; cheap enough for
// high-frequency observers.
type Summary struct {
	EngineID   int
	Turns      uint64
	Births     uint64
	Population int
	Dead       uint64
	Watermarks Watermarks
	Timer      TimerStats
}

// Summary copies the engine's counters under the engine mutex, skipping the
// lifeform records.
func (e *Engine) Summary() Summary {
	e.mu.Lock()
	sum := Summary{
		EngineID:   e.id,
		Turns:      e.turns,
		Births:     e.births,
		Population: e.arena.LifeformCount(),
		Dead:       e.arena.DeadCount(),
		Watermarks: e.watermarks,
	}
	e.mu.Unlock()

	sum.Timer = e.timer.Stats()
	return sum
}

// Snapshot copies the engine's observable state under the engine mutex.
// Formatting and serialization belong to the caller, after release; the
// lock is held only while values are copied out.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()

	roster := e.arena.Lifeforms()
	records := make([]LifeformRecord, len(roster))
	for i, lf := range roster {
		records[i] = LifeformRecord{
			ID:     lf.ID,
			Gen:    lf.Gen,
			Alive:  lf.Alive,
			Energy: lf.Energy,
			DNA:    lf.DNA.Clone(),
		}
	}

	snap := Snapshot{
		EngineID:   e.id,
		Turns:      e.turns,
		Births:     e.births,
		Population: e.arena.LifeformCount(),
		Dead:       e.arena.DeadCount(),
		Watermarks: e.watermarks,
		Lifeforms:  records,
	}

	e.mu.Unlock()

	// Timer has its own short lock; taking its stats outside the engine
	// mutex keeps the two locks independent.
	snap.Timer = e.timer.Stats()
	return snap
}
