package observe

import (
	"sync"
	"time"

	"github.com/evolsim/evol/internal/engine"
)

// HistorySample is one population reading for one engine.
type HistorySample struct {
	Elapsed    time.Duration
	Population int
}

// History accumulates per-engine population samples for later charting.
type History struct {
	mu      sync.Mutex
	start   time.Time
	samples map[int][]HistorySample
	maxLen  int
}

// NewHistory returns a recorder keeping at most maxLen samples per engine.
func NewHistory(maxLen int) *History {
	if maxLen <= 0 {
		maxLen = 4096
	}
	return &History{
		start:   time.Now(),
		samples: make(map[int][]HistorySample),
		maxLen:  maxLen,
	}
}

// Record appends one sample per engine summary.
func (h *History) Record(summaries []engine.Summary) {
	now := time.Since(h.start)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sum := range summaries {
		s := h.samples[sum.EngineID]
		s = append(s, HistorySample{Elapsed: now, Population: sum.Population})
		if len(s) > h.maxLen {
			s = s[len(s)-h.maxLen:]
		}
		h.samples[sum.EngineID] = s
	}
}

// Samples returns a copy of the recorded series keyed by engine id.
func (h *History) Samples() map[int][]HistorySample {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[int][]HistorySample, len(h.samples))
	for id, s := range h.samples {
		cp := make([]HistorySample, len(s))
		copy(cp, s)
		out[id] = cp
	}
	return out
}
