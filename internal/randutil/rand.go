// Package randutil derives reproducible PCG streams from integer seeds.
package randutil

import rand "math/rand/v2"

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from seed.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Derive returns an independent stream for (seed, stream), e.g. one per
// worker task or per training iteration, so results do not depend on
// scheduling order.
func Derive(seed int64, stream uint64) *rand.Rand {
	return New(int64(mix(uint64(seed) ^ mix(stream+goldenRatio64))))
}

// SeedFor hashes a key into a seed, for computations that must be a pure
// function of their input.
func SeedFor(key uint64) int64 {
	return int64(mix(key))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
