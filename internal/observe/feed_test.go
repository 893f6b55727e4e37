package observe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_CollectFrame(t *testing.T) {
	s := testSupervisor(t)
	f := NewFeed(s, nil)

	frame, summaries := f.collect()

	require.Len(t, frame.Engines, 2)
	require.Len(t, summaries, 2)
	for _, es := range frame.Engines {
		assert.Equal(t, 4, es.Population)
	}
	assert.Equal(t, 0, frame.AsteroidWaiting)
}

func TestFeed_AnalyticsSeeTheWholePopulation(t *testing.T) {
	s := testSupervisor(t)
	f := NewFeed(s, nil)

	f.updateAnalytics()

	// All seeded lifeforms share one genome.
	assert.Equal(t, uint64(1), f.Census().Distinct())
	assert.Equal(t, uint64(8), f.Census().Observed())
}

func TestFeed_StartStopWithoutServer(t *testing.T) {
	s := testSupervisor(t)
	f := NewFeed(s, nil)

	f.Start("")
	require.NoError(t, f.Stop())
}
