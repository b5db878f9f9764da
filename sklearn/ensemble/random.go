package ensemble

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// seedStream is the PCG stream constant used when deriving member generators,
// so a seed of 0 still yields a usable stream.
const seedStream = 0x9e3779b97f4a7c15

// spawnSeeds derives n independent member seeds from one root seed. The
// seeds are drained from a single stream into an ordered slice before any
// dispatch, so sequential and parallel execution consume identical seeds.
func spawnSeeds(rootSeed int64, n int) []uint64 {
	src := rand.New(rand.NewPCG(uint64(rootSeed), uint64(rootSeed)^seedStream))
	seeds := make([]uint64, n)
	for i := range seeds {
		seeds[i] = src.Uint64()
	}
	return seeds
}

// memberRand returns the deterministic generator for one spawned seed.
func memberRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^seedStream))
}

// bootstrapIndices draws n indices independently and uniformly with
// replacement from [0, n).
func bootstrapIndices(rng *rand.Rand, n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = rng.IntN(n)
	}
	return indices
}

// weightedIndices draws n indices with replacement according to the given
// weight distribution (inverse-CDF weighted choice via distuv.Categorical).
// The weights are copied; the caller's slice is not retained.
func weightedIndices(weights []float64, rng *rand.Rand, n int) []int {
	w := make([]float64, len(weights))
	copy(w, weights)

	dist := distuv.NewCategorical(w, rng)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = int(dist.Rand())
	}
	return indices
}
