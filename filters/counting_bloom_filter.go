package filters

import (
	"fmt"
	"math"

	"github.com/caiocdcs/probz"
	"github.com/caiocdcs/probz/bitset"
	"github.com/caiocdcs/probz/hash"
	"github.com/caiocdcs/probz/internal/util"
)

// CountingBloomFilter replaces the bloom filter's bits with
// fixed-width counters so items can be removed again. Insert
// increments the k probed counters, Remove decrements them. False
// positives remain possible; an item whose k counters are all
// positive is never reported absent.
type CountingBloomFilter struct {
	size      uint
	numHashes uint
	counters  *bitset.CountingBitSet
}

// NewCountingBloomFilter creates a counting bloom filter sized for
// numItems entries at the target false positive rate, with counters
// of the given width (4, 8, 16 or 32 bits). Callers must size the
// width for the expected number of duplicate insertions.
func NewCountingBloomFilter(numItems uint, errorRate float64, width uint) (*CountingBloomFilter, error) {
	if numItems == 0 || errorRate <= 0 || errorRate >= 1 {
		return nil, fmt.Errorf("probz: need numItems > 0 and errorRate in (0, 1): %w", probz.ErrInvalidParameters)
	}
	size := util.Max(util.CalculateFilterSize(numItems, errorRate), 1)
	numHashes := util.Max(util.CalculateNumHashes(size, numItems), 1)
	counters, err := bitset.NewCountingBitSet(size, width)
	if err != nil {
		return nil, err
	}
	return &CountingBloomFilter{size, numHashes, counters}, nil
}

func (cbf *CountingBloomFilter) getIndexes(data []byte) []uint {
	h1, h2 := hash.HashPair(data)
	indexes := make([]uint, cbf.numHashes)
	for i := uint(0); i < cbf.numHashes; i++ {
		indexes[i] = hash.DoubleHashIndex(h1, h2, i, cbf.size)
	}
	return indexes
}

// Insert increments the k probed counters for data. A counter at its
// maximum surfaces ErrCounterOverflow; counters incremented before
// the failing one keep their new values.
func (cbf *CountingBloomFilter) Insert(data []byte) error {
	for _, index := range cbf.getIndexes(data) {
		if err := cbf.counters.Increment(index); err != nil {
			return err
		}
	}
	return nil
}

// InsertString inserts a string value.
func (cbf *CountingBloomFilter) InsertString(data string) error {
	return cbf.Insert([]byte(data))
}

// Lookup returns true if all k probed counters for data are positive.
func (cbf *CountingBloomFilter) Lookup(data []byte) (bool, error) {
	for _, index := range cbf.getIndexes(data) {
		ok, err := cbf.counters.IsSet(index)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// LookupString looks up a string value.
func (cbf *CountingBloomFilter) LookupString(data string) (bool, error) {
	return cbf.Lookup([]byte(data))
}

// Remove decrements the k probed counters for data. If the filter
// doesn't contain data it returns false and leaves the counters
// untouched. The Lookup beforehand guarantees every counter is
// positive, so the decrements skip the underflow check.
func (cbf *CountingBloomFilter) Remove(data []byte) (bool, error) {
	ok, err := cbf.Lookup(data)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	for _, index := range cbf.getIndexes(data) {
		if err := cbf.counters.DecrementUnchecked(index); err != nil {
			return false, err
		}
	}
	return true, nil
}

// RemoveString removes a string value.
func (cbf *CountingBloomFilter) RemoveString(data string) (bool, error) {
	return cbf.Remove([]byte(data))
}

// RemoveSafe verifies all k counters are positive before any of them
// is decremented. A zero counter fails the whole removal with
// ErrCounterUnderflow and no counter is touched.
func (cbf *CountingBloomFilter) RemoveSafe(data []byte) error {
	indexes := cbf.getIndexes(data)
	for _, index := range indexes {
		value, err := cbf.counters.Get(index)
		if err != nil {
			return err
		}
		if value == 0 {
			return fmt.Errorf("probz: item not present, counter %d is zero: %w", index, probz.ErrCounterUnderflow)
		}
	}
	for _, index := range indexes {
		if err := cbf.counters.DecrementUnchecked(index); err != nil {
			return err
		}
	}
	return nil
}

// RemoveSafeString safely removes a string value.
func (cbf *CountingBloomFilter) RemoveSafeString(data string) error {
	return cbf.RemoveSafe([]byte(data))
}

// GetCap returns the number of counters.
func (cbf *CountingBloomFilter) GetCap() uint {
	return cbf.size
}

// GetNumHashes returns the number of hash functions.
func (cbf *CountingBloomFilter) GetNumHashes() uint {
	return cbf.numHashes
}

// EstimatedSize estimates the number of distinct items from the count
// of non-zero counters, with the same clamp as the plain bloom
// filter.
func (cbf *CountingBloomFilter) EstimatedSize() (uint64, error) {
	count, err := cbf.counters.NonZeroCount()
	if err != nil {
		return 0, err
	}
	m := float64(cbf.size)
	x := float64(count)
	if x >= m {
		return 0, nil
	}
	estimate := -(m / float64(cbf.numHashes)) * math.Log(1-x/m)
	return uint64(math.Floor(estimate)), nil
}

// Equals checks if two counting bloom filters hold the same
// parameters and counters.
func (aFilter *CountingBloomFilter) Equals(bFilter *CountingBloomFilter) bool {
	if aFilter.size != bFilter.size || aFilter.numHashes != bFilter.numHashes {
		return false
	}
	return aFilter.counters.Equals(bFilter.counters)
}
