package bitset

import (
	"fmt"

	"github.com/caiocdcs/probz"
)

// CountingBitSet is an array of fixed-width unsigned counters packed
// into 64-bit words. Supported widths are 4, 8, 16 and 32 bits, which
// all divide the word size so counters never straddle words.
type CountingBitSet struct {
	words []uint64
	size  uint
	width uint
}

// NewCountingBitSet creates a counting bitset of size counters, each
// width bits wide and starting at zero.
func NewCountingBitSet(size, width uint) (*CountingBitSet, error) {
	switch width {
	case 4, 8, 16, 32:
	default:
		return nil, fmt.Errorf("probz: unsupported counter width %d: %w", width, probz.ErrInvalidParameters)
	}
	perWord := 64 / width
	words := make([]uint64, (size+perWord-1)/perWord)
	return &CountingBitSet{words, size, width}, nil
}

func (c *CountingBitSet) Size() uint {
	return c.size
}

// Width returns the counter width in bits.
func (c *CountingBitSet) Width() uint {
	return c.width
}

// MaxValue returns the largest value a counter can hold, 2^width - 1.
func (c *CountingBitSet) MaxValue() uint64 {
	return (1 << c.width) - 1
}

func (c *CountingBitSet) checkRange(index uint) error {
	if index >= c.size {
		return fmt.Errorf("probz: index %d out of counter range %d: %w", index, c.size, probz.ErrIndexOutOfRange)
	}
	return nil
}

func (c *CountingBitSet) locate(index uint) (word uint, shift uint) {
	perWord := 64 / c.width
	return index / perWord, (index % perWord) * c.width
}

// Get returns the counter value at index.
func (c *CountingBitSet) Get(index uint) (uint64, error) {
	if err := c.checkRange(index); err != nil {
		return 0, err
	}
	word, shift := c.locate(index)
	return (c.words[word] >> shift) & c.MaxValue(), nil
}

// Increment adds one to the counter at index, failing with
// ErrCounterOverflow if the counter already holds its maximum value.
func (c *CountingBitSet) Increment(index uint) error {
	if err := c.checkRange(index); err != nil {
		return err
	}
	word, shift := c.locate(index)
	value := (c.words[word] >> shift) & c.MaxValue()
	if value == c.MaxValue() {
		return fmt.Errorf("probz: counter %d at maximum %d: %w", index, c.MaxValue(), probz.ErrCounterOverflow)
	}
	c.words[word] += 1 << shift
	return nil
}

// Decrement subtracts one from the counter at index, failing with
// ErrCounterUnderflow if the counter is zero.
func (c *CountingBitSet) Decrement(index uint) error {
	if err := c.checkRange(index); err != nil {
		return err
	}
	word, shift := c.locate(index)
	value := (c.words[word] >> shift) & c.MaxValue()
	if value == 0 {
		return fmt.Errorf("probz: counter %d already zero: %w", index, probz.ErrCounterUnderflow)
	}
	c.words[word] -= 1 << shift
	return nil
}

// DecrementUnchecked subtracts one from the counter at index without
// the zero check. The caller must have verified the counter is
// positive; decrementing a zero counter corrupts its word.
func (c *CountingBitSet) DecrementUnchecked(index uint) error {
	if err := c.checkRange(index); err != nil {
		return err
	}
	word, shift := c.locate(index)
	c.words[word] -= 1 << shift
	return nil
}

// IsSet returns true if the counter at index is positive.
func (c *CountingBitSet) IsSet(index uint) (bool, error) {
	value, err := c.Get(index)
	if err != nil {
		return false, err
	}
	return value > 0, nil
}

// NonZeroCount returns the number of positive counters.
func (c *CountingBitSet) NonZeroCount() (uint, error) {
	count := uint(0)
	for i := uint(0); i < c.size; i++ {
		word, shift := c.locate(i)
		if (c.words[word]>>shift)&c.MaxValue() > 0 {
			count++
		}
	}
	return count, nil
}

func (c *CountingBitSet) Equals(other *CountingBitSet) bool {
	if c.size != other.size || c.width != other.width {
		return false
	}
	for i := range c.words {
		if c.words[i] != other.words[i] {
			return false
		}
	}
	return true
}
