package observe

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/evolsim/evol/internal/sim"
)

// GenomeCensus estimates how many distinct genomes the run has produced. A
// bloom filter keeps the membership test cheap at the cost of a small
// false-positive rate, which undercounts novelty slightly; for a census
// that is the right trade.
type GenomeCensus struct {
	mu       sync.Mutex
	seen     *bloom.BloomFilter
	distinct uint64
	observed uint64
}

// NewGenomeCensus sizes the filter for the expected number of distinct
// genomes at a 1% false-positive rate.
func NewGenomeCensus(expected uint) *GenomeCensus {
	if expected == 0 {
		expected = 100000
	}
	return &GenomeCensus{
		seen: bloom.NewWithEstimates(expected, 0.01),
	}
}

// Observe records a genome and reports whether it was novel.
func (gc *GenomeCensus) Observe(dna sim.DNA) bool {
	key := make([]byte, len(dna))
	for i, op := range dna {
		key[i] = byte(op)
	}

	gc.mu.Lock()
	defer gc.mu.Unlock()

	gc.observed++
	if gc.seen.TestAndAdd(key) {
		return false
	}
	gc.distinct++
	return true
}

// Distinct returns the estimated count of distinct genomes seen.
func (gc *GenomeCensus) Distinct() uint64 {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.distinct
}

// Observed returns the total number of genomes recorded.
func (gc *GenomeCensus) Observed() uint64 {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.observed
}
