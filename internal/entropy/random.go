// Package entropy provides the seeded random source shared by the
// generation stages. Every draw comes from one explicit Source that is
// reseeded at fixed pipeline points.
package entropy

import (
	"log/slog"
	"math/rand"
)

// Source is a reseedable deterministic random number generator.
// It is not safe for concurrent use.
type Source struct {
	seed int64
	rng  *rand.Rand
}

// New returns a Source seeded with seed.
func New(seed int64) *Source {
	return &Source{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

// Reseed restarts the sequence from seed.
func (s *Source) Reseed(seed int64) {
	s.seed = seed
	s.rng.Seed(seed)
	slog.Debug("entropy reseeded", "seed", seed)
}

// Seed returns the seed of the current sequence.
func (s *Source) Seed() int64 { return s.seed }

// Intn returns an int in [0, n). It returns 0 when n <= 0.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return s.rng.Intn(n)
}

// Float64 returns a float64 in [0, 1).
func (s *Source) Float64() float64 {
	return s.rng.Float64()
}

// Coin returns true or false with equal probability.
func (s *Source) Coin() bool {
	return s.rng.Intn(2) == 0
}
