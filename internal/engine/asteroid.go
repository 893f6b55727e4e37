package engine

import (
	"sync"

	"github.com/evolsim/evol/internal/sim"
)

// Asteroid is the container that shares lifeforms between engines: every so
// often an engine offers up one of its lifeforms, and every so often an
// engine grabs one back. This spreads genes between otherwise isolated
// arenas (panspermia).
//
// Capacity is fixed. Launching onto a full asteroid overwrites a uniformly
// random resident, which is destroyed; that load-shedding is part of the
// contract, not an error.
type Asteroid struct {
	maxSize int

	mu        sync.Mutex
	lifeforms []*sim.Lifeform
	rng       *sim.Random

	launched uint64
	landed   uint64
}

// NewAsteroid returns an asteroid holding at most maxSize lifeforms.
func NewAsteroid(maxSize int) *Asteroid {
	return &Asteroid{
		maxSize:   maxSize,
		lifeforms: make([]*sim.Lifeform, 0, maxSize),
		rng:       sim.NewRandom(),
	}
}

// Launch puts the lifeform on the asteroid, displacing a random resident if
// the asteroid is full.
func (a *Asteroid) Launch(lf *sim.Lifeform) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.lifeforms) >= a.maxSize {
		a.lifeforms[a.rng.Intn(len(a.lifeforms))] = lf
	} else {
		a.lifeforms = append(a.lifeforms, lf)
	}
	a.launched++
}

// Land extracts a uniformly random lifeform, or nil if the asteroid is
// empty. Order is irrelevant so removal is by swap with the tail.
func (a *Asteroid) Land() *sim.Lifeform {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.lifeforms) == 0 {
		return nil
	}

	i := a.rng.Intn(len(a.lifeforms))
	lf := a.lifeforms[i]
	last := len(a.lifeforms) - 1
	a.lifeforms[i] = a.lifeforms[last]
	a.lifeforms = a.lifeforms[:last]
	a.landed++
	return lf
}

// NumWaiting returns the number of lifeforms currently aboard.
func (a *Asteroid) NumWaiting() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.lifeforms)
}

// NumLaunched returns the lifetime launch count.
func (a *Asteroid) NumLaunched() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.launched
}

// NumLanded returns the lifetime landing count.
func (a *Asteroid) NumLanded() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.landed
}
