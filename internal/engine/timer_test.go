package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimer_NoSamples(t *testing.T) {
	timer := NewTimer("idle")
	stats := timer.Stats()
	assert.Equal(t, int64(0), stats.SampleCount)
	assert.Equal(t, "idle", stats.Description)
}

func TestTimer_CollectsSamples(t *testing.T) {
	timer := NewTimer("loop")

	for i := 0; i < 5; i++ {
		timer.Start()
		time.Sleep(time.Millisecond)
		timer.End()
	}

	stats := timer.Stats()
	assert.Equal(t, int64(5), stats.SampleCount)
	assert.GreaterOrEqual(t, stats.MinMicros, int64(0))
	assert.GreaterOrEqual(t, stats.MaxMicros, stats.MinMicros)
	assert.GreaterOrEqual(t, stats.AvgMicros, stats.MinMicros)
	assert.LessOrEqual(t, stats.AvgMicros, stats.MaxMicros)
}

func TestTimer_SampleCountCapsAtBuffer(t *testing.T) {
	timer := NewTimer("loop")

	for i := 0; i < timerBufferSamples+100; i++ {
		timer.Start()
		timer.End()
	}

	stats := timer.Stats()
	assert.Equal(t, int64(timerBufferSamples), stats.SampleCount)
}

func TestTimer_StatsDuringCollection(t *testing.T) {
	timer := NewTimer("loop")

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				timer.Start()
				timer.End()
			}
		}
	}()

	for i := 0; i < 100; i++ {
		_ = timer.Stats()
	}
	close(stop)
	wg.Wait()
}
