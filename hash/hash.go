/*
Package hash provides the hashing primitives shared by the filters and
sketches: a murmur3-128 digest, the (h1, h2) base pairs used for double
hashing, and the double-hash index derivation.
*/
package hash

import (
	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-metro"
	"github.com/twmb/murmur3"
)

const pairSeed = 1373

// HashPair returns the two 32-bit base hashes used for double hashing.
// The first is a murmur3 hash of the data, the second an xxhash of the
// same data seeded with the first, so the two are decorrelated while
// staying fully deterministic.
func HashPair(data []byte) (uint32, uint32) {
	h1 := murmur3.Sum32(data)
	d := xxhash.NewWithSeed(uint64(h1))
	d.Write(data)
	return h1, uint32(d.Sum64())
}

// Pair64 splits a single 64-bit hash of data into two 32-bit halves,
// forcing the second one odd. The odd step keeps i*h2 from collapsing
// onto a small cycle when the column count is even.
func Pair64(data []byte) (uint32, uint32) {
	h := metro.Hash64(data, pairSeed)
	return uint32(h >> 32), uint32(h) | 1
}

// DoubleHashIndex derives the i-th probe position (h1 + i*h2) mod m.
// The arithmetic wraps in 64 bits before the reduction.
func DoubleHashIndex(h1, h2 uint32, i, m uint) uint {
	return uint((uint64(h1) + uint64(i)*uint64(h2)) % uint64(m))
}
