package ensemble

import (
	"testing"
)

func TestSpawnSeedsDeterministic(t *testing.T) {
	a := spawnSeeds(42, 16)
	b := spawnSeeds(42, 16)

	if len(a) != 16 {
		t.Fatalf("expected 16 seeds, got %d", len(a))
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("seed %d differs between identical roots: %d vs %d", i, a[i], b[i])
		}
	}

	c := spawnSeeds(43, 16)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different roots should produce different seed sequences")
	}
}

func TestSpawnSeedsPrefixStable(t *testing.T) {
	// Growing the ensemble must not change the seeds of earlier members.
	short := spawnSeeds(7, 4)
	long := spawnSeeds(7, 8)

	for i := range short {
		if short[i] != long[i] {
			t.Fatalf("seed %d changed with ensemble size: %d vs %d", i, short[i], long[i])
		}
	}
}

func TestBootstrapIndicesInRange(t *testing.T) {
	rng := memberRand(99)
	indices := bootstrapIndices(rng, 50)

	if len(indices) != 50 {
		t.Fatalf("expected 50 indices, got %d", len(indices))
	}
	for _, i := range indices {
		if i < 0 || i >= 50 {
			t.Fatalf("index %d out of range [0, 50)", i)
		}
	}
}

func TestBootstrapIndicesDeterministic(t *testing.T) {
	a := bootstrapIndices(memberRand(5), 20)
	b := bootstrapIndices(memberRand(5), 20)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("index %d differs for identical seeds: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestWeightedIndicesFollowsDistribution(t *testing.T) {
	// All mass on index 2: every draw must return 2.
	weights := []float64{0, 0, 1, 0}
	indices := weightedIndices(weights, memberRand(1), 100)

	for _, i := range indices {
		if i != 2 {
			t.Fatalf("zero-weight index %d was drawn", i)
		}
	}
}

func TestWeightedIndicesDoesNotMutateWeights(t *testing.T) {
	weights := []float64{0.25, 0.25, 0.25, 0.25}
	weightedIndices(weights, memberRand(3), 50)

	for i, w := range weights {
		if w != 0.25 {
			t.Errorf("weights[%d] mutated to %v", i, w)
		}
	}
}
