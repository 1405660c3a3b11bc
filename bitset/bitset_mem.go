package bitset

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/caiocdcs/probz"
)

// BitSetMem is an in-memory bitset of a fixed number of bits. The
// backing library grows on out-of-range writes, so every access is
// range-checked against the declared size first.
type BitSetMem struct {
	set  *bitset.BitSet
	size uint
}

// NewBitSetMem creates a bitset of size bits, all zero.
func NewBitSetMem(size uint) *BitSetMem {
	return &BitSetMem{bitset.New(size), size}
}

// FromDataMem creates a bitset from the passed 64-bit words.
func FromDataMem(data []uint64) *BitSetMem {
	return &BitSetMem{bitset.From(data), uint(len(data) * 64)}
}

func (b *BitSetMem) Size() uint {
	return b.size
}

func (b *BitSetMem) checkRange(index uint) error {
	if index >= b.size {
		return fmt.Errorf("probz: index %d out of bitset range %d: %w", index, b.size, probz.ErrIndexOutOfRange)
	}
	return nil
}

func (b *BitSetMem) Has(index uint) (bool, error) {
	if err := b.checkRange(index); err != nil {
		return false, err
	}
	return b.set.Test(index), nil
}

func (b *BitSetMem) HasMulti(indexes []uint) ([]bool, error) {
	result := make([]bool, len(indexes))
	for i, index := range indexes {
		ok, err := b.Has(index)
		if err != nil {
			return nil, err
		}
		result[i] = ok
	}
	return result, nil
}

func (b *BitSetMem) Insert(index uint) (bool, error) {
	if err := b.checkRange(index); err != nil {
		return false, err
	}
	b.set.Set(index)
	return true, nil
}

func (b *BitSetMem) InsertMulti(indexes []uint) (bool, error) {
	for _, index := range indexes {
		if _, err := b.Insert(index); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (b *BitSetMem) Remove(index uint) (bool, error) {
	if err := b.checkRange(index); err != nil {
		return false, err
	}
	b.set.Clear(index)
	return true, nil
}

func (b *BitSetMem) Toggle(index uint) (bool, error) {
	if err := b.checkRange(index); err != nil {
		return false, err
	}
	b.set.Flip(index)
	return true, nil
}

// BitCount returns the number of set bits. The backing library masks
// the unused tail of the final word, so bits beyond Size never count.
func (b *BitSetMem) BitCount() (uint, error) {
	return b.set.Count(), nil
}

// Union ORs the other bitset into this one. Both must have the same
// size.
func (b *BitSetMem) Union(other *BitSetMem) error {
	if b.size != other.size {
		return fmt.Errorf("probz: can't union bitsets of sizes %d and %d: %w", b.size, other.size, probz.ErrInvalidParameters)
	}
	b.set.InPlaceUnion(other.set)
	return nil
}

func (b *BitSetMem) Equals(other IBitSet) (bool, error) {
	second, ok := other.(*BitSetMem)
	if !ok {
		return false, fmt.Errorf("probz: can't compare bitsets of different backings: %w", probz.ErrInvalidParameters)
	}
	return b.set.Equal(second.set), nil
}
