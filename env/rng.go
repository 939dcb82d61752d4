package env

import (
	"encoding/binary"

	"lukechampine.com/frand"
)

// rng wraps a deterministically seeded generator. Every stochastic
// decision of the environment draws from here, so a fixed seed and
// action sequence replays bit-exactly.
type rng struct {
	*frand.RNG
}

func newRNG(seed uint64) *rng {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	return &rng{frand.NewCustom(key[:], 1024, 12)}
}

// uniform draws an integer in [lo, hi], both ends inclusive.
func (r *rng) uniform(lo, hi int) int {
	return lo + r.Intn(hi-lo+1)
}

// weighted draws an index with probability proportional to the given
// integer weights.
func (r *rng) weighted(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	x := r.Intn(total)
	for i, w := range weights {
		if x < w {
			return i
		}
		x -= w
	}
	return len(weights) - 1
}
