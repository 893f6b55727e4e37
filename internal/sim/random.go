package sim

import (
	crand "crypto/rand"
	"encoding/binary"

	"golang.org/x/exp/rand"
)

// Random is a uniform integer source. Each engine owns one and hands it to
// the lifeforms it spawns; it is not safe for concurrent use, which is fine
// because only the owning engine thread ever draws from it.
type Random struct {
	rng *rand.Rand
}

// NewRandom returns a Random seeded from the OS entropy source.
func NewRandom() *Random {
	var buf [8]byte
	seed := uint64(0)
	if _, err := crand.Read(buf[:]); err == nil {
		seed = binary.LittleEndian.Uint64(buf[:])
	}
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

// NewRandomSeeded returns a Random with a fixed seed, for tests.
func NewRandomSeeded(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

// Int32 returns a uniform int32 in the inclusive range [min, max].
func (r *Random) Int32(min, max int32) int32 {
	if max < min {
		panic("sim: Int32 range inverted")
	}
	return min + int32(r.rng.Int63n(int64(max)-int64(min)+1))
}

// Intn returns a uniform int in [0, n).
func (r *Random) Intn(n int) int {
	return r.rng.Intn(n)
}
