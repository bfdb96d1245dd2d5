package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey and identical inputs
// MUST produce bit-for-bit identical results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// SubsystemCandidate returns the stream name for the candidate at position idx.
func SubsystemCandidate(idx int) string {
	return fmt.Sprintf("candidate_%d", idx)
}

// === PartitionedRNG ===

// PartitionedRNG derives deterministic, isolated random streams from one key.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName).
//
// Unlike a cached per-subsystem map, ForSubsystem builds a fresh *rand.Rand on
// every call and holds no mutable state, so it may be called from any goroutine.
// The returned *rand.Rand itself is not safe for concurrent use.
type PartitionedRNG struct {
	key SimulationKey
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{key: key}
}

// ForSubsystem returns a new RNG positioned at the start of the named stream.
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	return newRandFromSeed(int64(p.key) ^ fnv1a64(name))
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// TrialSeeds draws n seeds from rng, one per Monte Carlo trial. Each trial
// then owns an independent generator built with newRandFromSeed.
func TrialSeeds(rng *rand.Rand, n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}
	return seeds
}

func newRandFromSeed(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
