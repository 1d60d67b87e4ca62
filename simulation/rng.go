package simulation

import (
	"hash/fnv"
	"math/rand"
)

// newCircuitRand builds the "cheap deterministic generator seeded per
// (circuit, process)" spec §4.F calls for: a circuit's own PRNG stream is
// derived from its id and lives for the engine's lifetime, so repeated
// ticks advance the same deterministic sequence rather than re-seeding
// every call.
func newCircuitRand(processSeed int64, circuitID string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(circuitID))
	seed := int64(h.Sum64()) ^ processSeed
	return rand.New(rand.NewSource(seed))
}

// variationDraw returns a uniform draw in [-variation, +variation]. A
// variation of zero always returns exactly zero without consuming entropy
// from r, keeping zero-variation templates perfectly deterministic (spec
// S5 relies on this).
func variationDraw(r *rand.Rand, variation float64) float64 {
	if variation <= 0 {
		return 0
	}
	return (r.Float64()*2 - 1) * variation
}
