package observe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolsim/evol/internal/sim"
)

func TestGenomeFeatures(t *testing.T) {
	dna := sim.DNA{
		sim.OpIsCrowded,
		sim.OpCjmp1,
		sim.OpFinalMoveNorth,
		sim.OpFinalMoveSouth,
	}
	features := GenomeFeatures(dna)

	require.Len(t, features, genomeFeatureCount)
	assert.Equal(t, 4.0, features[0])
	assert.InDelta(t, 0.25, features[1], 1e-9) // one sensor
	assert.InDelta(t, 0.25, features[2], 1e-9) // one jump
	assert.InDelta(t, 0.5, features[3], 1e-9)  // two finals
}

func TestGenomeFeatures_Empty(t *testing.T) {
	features := GenomeFeatures(sim.DNA{})
	require.Len(t, features, genomeFeatureCount)
	assert.Equal(t, 0.0, features[0])
}

func TestNoveltyScorer_ScoreInRange(t *testing.T) {
	ns := NewNoveltyScorer(4)

	score, err := ns.Score(sim.DNA{sim.OpFinalMoveRandom})
	require.NoError(t, err)
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, 1.0)
}

func TestNoveltyScorer_RetrainAfterObservations(t *testing.T) {
	ns := NewNoveltyScorer(2)

	for i := 0; i < 20; i++ {
		dna := make(sim.DNA, i+1)
		_, err := ns.Score(dna)
		require.NoError(t, err)
	}
	assert.NoError(t, ns.Retrain())
}
