// Package rng provides the deterministic random source used throughout the
// simulation. The generator is xoshiro128** seeded via splitmix32; its entire
// state is four 32-bit words, so it can be captured into a snapshot and
// restored on any instance to continue the identical sequence.
package rng

import "math"

// Source is a seeded xoshiro128** generator.
type Source struct {
	s [4]uint32
}

// New creates a source seeded via splitmix32 so that nearby seeds still
// produce uncorrelated state words.
func New(seed uint32) *Source {
	src := &Source{}
	sm := seed
	for i := range src.s {
		sm += 0x9E3779B9
		z := sm
		z ^= z >> 16
		z *= 0x21F0AAAD
		z ^= z >> 15
		z *= 0x735A2D97
		z ^= z >> 15
		src.s[i] = z
	}
	return src
}

// State returns the four state words.
func (r *Source) State() [4]uint32 {
	return r.s
}

// SetState overwrites the generator state. A source restored from another
// instance's state continues that instance's sequence exactly.
func (r *Source) SetState(s [4]uint32) {
	r.s = s
}

func rotl(x uint32, k uint) uint32 {
	return x<<k | x>>(32-k)
}

// Uint32 advances the generator and returns the next 32-bit value.
func (r *Source) Uint32() uint32 {
	result := rotl(r.s[1]*5, 7) * 9
	t := r.s[1] << 9

	r.s[2] ^= r.s[0]
	r.s[3] ^= r.s[1]
	r.s[1] ^= r.s[2]
	r.s[0] ^= r.s[3]
	r.s[2] ^= t
	r.s[3] = rotl(r.s[3], 11)

	return result
}

// Float64 returns a uniform value in [0, 1).
func (r *Source) Float64() float64 {
	return float64(r.Uint32()) / (1 << 32)
}

// Range returns a uniform value in [min, max).
func (r *Source) Range(min, max float64) float64 {
	return min + r.Float64()*(max-min)
}

// IntRange returns a uniform integer in [min, max], inclusive on both ends.
func (r *Source) IntRange(min, max int) int {
	if max <= min {
		return min
	}
	return min + int(r.Float64()*float64(max-min+1))
}

// NormFloat64 returns a standard Gaussian sample via Box-Muller. The uniform
// draw is retried on exactly zero so log never sees 0.
func (r *Source) NormFloat64() float64 {
	u1 := r.Float64()
	for u1 == 0 {
		u1 = r.Float64()
	}
	u2 := r.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// Chance returns true with probability p.
func (r *Source) Chance(p float64) bool {
	return r.Float64() < p
}

// Pick returns a uniformly chosen element of items. Items must be non-empty.
func Pick[T any](r *Source, items []T) T {
	return items[r.IntRange(0, len(items)-1)]
}
