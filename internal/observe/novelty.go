package observe

import (
	"math"
	"sync"

	"github.com/cdipaolo/goml/cluster"

	"github.com/evolsim/evol/internal/sim"
)

// genomeFeatureCount is the dimensionality of the genome feature vector:
// program length plus the densities of sensing, jump, and terminal opcodes.
const genomeFeatureCount = 4

// NoveltyScorer scores how far a genome sits from the population's known
// genome clusters. Scores near 1 mean the program shape is unlike anything
// clustered so far.
type NoveltyScorer struct {
	mu    sync.Mutex
	model *cluster.KMeans

	observations [][]float64
	maxObs       int
}

// NewNoveltyScorer creates a scorer clustering genome features into the
// given number of clusters.
func NewNoveltyScorer(clusters int) *NoveltyScorer {
	seed := make([][]float64, clusters)
	for i := range seed {
		seed[i] = make([]float64, genomeFeatureCount)
	}

	return &NoveltyScorer{
		model:        cluster.NewKMeans(clusters, 10, seed),
		observations: make([][]float64, 0, 1000),
		maxObs:       1000,
	}
}

// GenomeFeatures reduces a program to its feature vector.
func GenomeFeatures(dna sim.DNA) []float64 {
	features := make([]float64, genomeFeatureCount)
	features[0] = float64(len(dna))
	if len(dna) == 0 {
		return features
	}

	var sense, jump, final int
	for _, op := range dna {
		switch {
		case op >= sim.OpIsNorthOccupied && op <= sim.OpIsNeighbor:
			sense++
		case op >= sim.OpJmp1 && op <= sim.OpCjmp5:
			jump++
		case op >= sim.OpFinalMoveNorth && op <= sim.OpFinalMoveRandom:
			final++
		}
	}
	n := float64(len(dna))
	features[1] = float64(sense) / n
	features[2] = float64(jump) / n
	features[3] = float64(final) / n
	return features
}

// Score returns a novelty score in (0, 1) for the genome: the sigmoid-mapped
// distance from the nearest cluster centroid.
func (ns *NoveltyScorer) Score(dna sim.DNA) (float64, error) {
	features := GenomeFeatures(dna)

	ns.mu.Lock()
	defer ns.mu.Unlock()

	if len(ns.observations) < ns.maxObs {
		ns.observations = append(ns.observations, features)
	}

	centroid, err := ns.model.Predict(features)
	if err != nil {
		return 0, err
	}

	dist := euclideanDistance(features, centroid)
	return 1.0 - 1.0/(1.0+math.Exp(dist-2.0)), nil
}

// Retrain refits the clusters on the accumulated observations.
func (ns *NoveltyScorer) Retrain() error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if len(ns.observations) < 10 {
		return nil
	}

	if err := ns.model.UpdateTrainingSet(ns.observations); err != nil {
		return err
	}
	return ns.model.Learn()
}

func euclideanDistance(a, b []float64) float64 {
	sum := 0.0
	limit := len(a)
	if len(b) < limit {
		limit = len(b)
	}
	for i := 0; i < limit; i++ {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
