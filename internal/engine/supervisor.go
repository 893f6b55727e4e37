package engine

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/evolsim/evol/internal/params"
	"github.com/evolsim/evol/internal/sim"
	"github.com/evolsim/evol/internal/utils"
)

// SupervisorState is the lifecycle state of the supervisor.
type SupervisorState int32

const (
	StateIdle SupervisorState = iota
	StateRunning
	StateStopping
	StateStopped
)

var stateNames = map[SupervisorState]string{
	StateIdle:     "IDLE",
	StateRunning:  "RUNNING",
	StateStopping: "STOPPING",
	StateStopped:  "STOPPED",
}

func (s SupervisorState) String() string { return stateNames[s] }

// Supervisor spawns one engine per worker, wires them to a shared asteroid,
// and joins them on shutdown.
type Supervisor struct {
	state atomic.Int32

	engines  []*Engine
	asteroid *Asteroid

	logger *utils.Logger
	wg     sync.WaitGroup
}

// NewSupervisor builds the engine fleet. numEngines <= 0 autodetects
// hardware concurrency, with a minimum of one engine. Coordinate bounds
// must already be set.
func NewSupervisor(cfg params.Config, logger *utils.Logger) *Supervisor {
	if logger == nil {
		logger = utils.DefaultLogger("supervisor")
	}

	numEngines := cfg.NumEngines
	if numEngines < 1 {
		numEngines = runtime.NumCPU()
		if numEngines < 1 {
			numEngines = 1
		}
	}

	s := &Supervisor{
		asteroid: NewAsteroid(cfg.AsteroidSize),
		logger:   logger,
	}

	s.engines = make([]*Engine, numEngines)
	for i := range s.engines {
		e := New(i, sim.Unit(cfg.Width), sim.Unit(cfg.Height), s.asteroid, logger.Named("engine"))
		e.Seed(cfg.StartingLifeforms)
		s.engines[i] = e
	}

	return s
}

// Engines returns the supervised engines for observers.
func (s *Supervisor) Engines() []*Engine { return s.engines }

// Asteroid returns the shared asteroid for observers.
func (s *Supervisor) Asteroid() *Asteroid { return s.asteroid }

// State returns the current lifecycle state.
func (s *Supervisor) State() SupervisorState {
	return SupervisorState(s.state.Load())
}

// Start launches every engine on its own goroutine and returns.
func (s *Supervisor) Start() {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return
	}

	s.logger.Info("starting engines", utils.Int("count", len(s.engines)))
	for _, e := range s.engines {
		s.wg.Add(1)
		go func(e *Engine) {
			defer s.wg.Done()
			e.Run()
		}(e)
	}
}

// Stop sets every engine's exit flag and waits for the fleet to drain.
// In-flight ticks complete; nothing is cancelled mid-tick.
func (s *Supervisor) Stop() error {
	if !s.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return nil
	}

	s.logger.Info("stopping engines", utils.Int("count", len(s.engines)))
	for _, e := range s.engines {
		e.Stop()
	}
	s.wg.Wait()
	s.state.Store(int32(StateStopped))
	s.logger.Info("all engines stopped")
	return nil
}
