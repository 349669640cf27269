package testutil

import (
	"math/rand/v2"
	"sync"
)

// DeterministicRand hands out random generators for tests.
//
// Every generator returned after a Reset replays the same stream, so the
// same scenario builds byte-identical tensors on every run.
//
// Thread-safety: Rand and Reset are safe for concurrent use; the returned
// *rand.Rand is not.
type DeterministicRand struct {
	mu   sync.Mutex
	seed uint64
	n    uint64
}

// NewDeterministicRand creates a generator source for seed.
func NewDeterministicRand(seed uint64) *DeterministicRand {
	return &DeterministicRand{seed: seed}
}

// Rand returns the next generator. The i-th call after a Reset always
// yields the same stream.
func (d *DeterministicRand) Rand() *rand.Rand {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.n++
	return rand.New(rand.NewPCG(d.seed, d.n))
}

// Reset rewinds to the first generator.
func (d *DeterministicRand) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.n = 0
}

// Rand returns a generator seeded with seed.
func Rand(seed uint64) *rand.Rand {
	return NewDeterministicRand(seed).Rand()
}
