/*
Package bitset implements the bit-array and counting-bit-array
backings shared by the filters. Plain bitsets come in two flavors
behind the IBitSet interface: in-memory, built on
github.com/bits-and-blooms/bitset, and redis-backed, built on the
redis bit operations. Counting bitsets pack fixed-width counters into
64-bit words.
*/
package bitset

// IBitSet is the seam between a filter and its backing bit array.
type IBitSet interface {
	// Size returns the number of bits in the bitset.
	Size() uint

	// Has returns true if the bit at index is set.
	Has(index uint) (bool, error)

	// HasMulti returns one boolean per queried index.
	HasMulti(indexes []uint) ([]bool, error)

	// Insert sets the bit at index.
	Insert(index uint) (bool, error)

	// InsertMulti sets the bits at all passed indexes.
	InsertMulti(indexes []uint) (bool, error)

	// Remove clears the bit at index.
	Remove(index uint) (bool, error)

	// Toggle flips the bit at index.
	Toggle(index uint) (bool, error)

	// BitCount returns the total number of set bits.
	BitCount() (uint, error)

	// Equals checks if two bitsets hold the same bits.
	Equals(other IBitSet) (bool, error)
}

// IsBitSetMem reports whether t is an in-memory bitset.
func IsBitSetMem(t IBitSet) bool {
	switch t.(type) {
	case *BitSetMem:
		return true
	default:
		return false
	}
}
