/*
Package filters provides the membership filters: Bloom, Counting
Bloom, Scalable Bloom, Quotient and Cuckoo. All of them key on opaque
byte strings and answer approximate membership with a bounded false
positive rate. Inserted keys are never reported absent unless keys
that were never inserted are removed from the filters that support
removal.
*/
package filters

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"

	"github.com/caiocdcs/probz"
	"github.com/caiocdcs/probz/bitset"
	"github.com/caiocdcs/probz/hash"
	"github.com/caiocdcs/probz/internal/util"
)

// BloomFilter is the classic bit-array filter. Insert only ever sets
// bits, so the structure is monotonic and Remove is not offered. The
// backing bit array is either in-memory or redis-based behind the
// bitset.IBitSet seam.
type BloomFilter struct {
	size        uint
	numHashes   uint
	filter      bitset.IBitSet
	metadataKey string
}

// NewBloomFilterWithBitSet creates a BloomFilter over a caller-built
// bit array. metadataKey is required for redis-backed bit arrays and
// ignored otherwise.
func NewBloomFilterWithBitSet(size, numHashes uint, filter bitset.IBitSet, metadataKey string) (*BloomFilter, error) {
	if !bitset.IsBitSetMem(filter) && metadataKey == "" {
		return nil, fmt.Errorf("probz: metadataKey is blank for redis-backed filter: %w", probz.ErrInvalidParameters)
	}
	if filter.Size() != size {
		return nil, fmt.Errorf("probz: bitset size %v doesn't match filter size %v: %w", filter.Size(), size, probz.ErrInvalidParameters)
	}
	return &BloomFilter{
		size:        util.Max(size, 1),
		numHashes:   util.Max(numHashes, 1),
		filter:      filter,
		metadataKey: metadataKey,
	}, nil
}

// NewMemBloomFilter creates an in-memory BloomFilter sized for
// numItems entries at the target false positive rate.
func NewMemBloomFilter(numItems uint, errorRate float64) (*BloomFilter, error) {
	if numItems == 0 || errorRate <= 0 || errorRate >= 1 {
		return nil, fmt.Errorf("probz: need numItems > 0 and errorRate in (0, 1): %w", probz.ErrInvalidParameters)
	}
	size := util.CalculateFilterSize(numItems, errorRate)
	numHashes := util.CalculateNumHashes(size, numItems)
	return NewBloomFilterWithBitSet(util.Max(size, 1), util.Max(numHashes, 1), bitset.NewBitSetMem(util.Max(size, 1)), "")
}

// NewRedisBloomFilter creates a redis-backed BloomFilter sized for
// numItems entries at the target false positive rate. The filter
// parameters are stored in a redis hash under a fresh metadata key so
// the filter can be reopened with NewRedisBloomFilterFromKey.
func NewRedisBloomFilter(numItems uint, errorRate float64) (*BloomFilter, error) {
	if numItems == 0 || errorRate <= 0 || errorRate >= 1 {
		return nil, fmt.Errorf("probz: need numItems > 0 and errorRate in (0, 1): %w", probz.ErrInvalidParameters)
	}
	size := util.Max(util.CalculateFilterSize(numItems, errorRate), 1)
	numHashes := util.Max(util.CalculateNumHashes(size, numItems), 1)
	filter := bitset.NewBitSetRedis(size)
	metadataKey := uuid.New().String()
	metadata := map[string]interface{}{
		"size":      size,
		"numHashes": numHashes,
		"bitsetKey": filter.Key(),
	}
	err := probz.GetRedisClient().HSet(context.Background(), metadataKey, metadata).Err()
	if err != nil {
		return nil, fmt.Errorf("probz: error while saving bloom filter metadata: %v", err)
	}
	return NewBloomFilterWithBitSet(size, numHashes, filter, metadataKey)
}

// NewRedisBloomFilterFromKey reopens a redis-backed BloomFilter from
// its metadata key.
func NewRedisBloomFilterFromKey(metadataKey string) (*BloomFilter, error) {
	values, err := probz.GetRedisClient().HGetAll(context.Background(), metadataKey).Result()
	if err != nil {
		return nil, fmt.Errorf("probz: error while fetching bloom filter metadata: %v", err)
	}
	size, err := strconv.Atoi(values["size"])
	if err != nil {
		return nil, fmt.Errorf("probz: malformed bloom filter metadata at %q: %v", metadataKey, err)
	}
	numHashes, err := strconv.Atoi(values["numHashes"])
	if err != nil {
		return nil, fmt.Errorf("probz: malformed bloom filter metadata at %q: %v", metadataKey, err)
	}
	filter := bitset.FromRedisKey(values["bitsetKey"], uint(size))
	return NewBloomFilterWithBitSet(uint(size), uint(numHashes), filter, metadataKey)
}

func (bloomFilter *BloomFilter) getIndexes(data []byte) []uint {
	h1, h2 := hash.HashPair(data)
	indexes := make([]uint, bloomFilter.numHashes)
	for i := uint(0); i < bloomFilter.numHashes; i++ {
		indexes[i] = hash.DoubleHashIndex(h1, h2, i, bloomFilter.size)
	}
	return indexes
}

// Insert writes data into the filter.
func (bloomFilter *BloomFilter) Insert(data []byte) error {
	_, err := bloomFilter.filter.InsertMulti(bloomFilter.getIndexes(data))
	return err
}

// InsertString writes a string value into the filter.
func (bloomFilter *BloomFilter) InsertString(data string) error {
	return bloomFilter.Insert([]byte(data))
}

// Lookup returns true if every probed bit for data is set.
func (bloomFilter *BloomFilter) Lookup(data []byte) (bool, error) {
	results, err := bloomFilter.filter.HasMulti(bloomFilter.getIndexes(data))
	if err != nil {
		return false, err
	}
	for _, ok := range results {
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// LookupString looks up a string value.
func (bloomFilter *BloomFilter) LookupString(data string) (bool, error) {
	return bloomFilter.Lookup([]byte(data))
}

// GetCap returns the size of the filter in bits.
func (bloomFilter *BloomFilter) GetCap() uint {
	return bloomFilter.size
}

// GetNumHashes returns the number of hash functions.
func (bloomFilter *BloomFilter) GetNumHashes() uint {
	return bloomFilter.numHashes
}

// GetBitSet returns the backing bit array.
func (bloomFilter *BloomFilter) GetBitSet() bitset.IBitSet {
	return bloomFilter.filter
}

// GetMetadataKey returns the redis metadata key, blank for in-memory
// filters.
func (bloomFilter *BloomFilter) GetMetadataKey() string {
	return bloomFilter.metadataKey
}

// EstimatedSize returns the approximate number of distinct items
// inserted, floor(-(m/k) * ln(1 - X/m)) with X the popcount. A
// saturated bit array would push the estimate to infinity, so X >= m
// clamps to zero.
func (bloomFilter *BloomFilter) EstimatedSize() (uint64, error) {
	count, err := bloomFilter.filter.BitCount()
	if err != nil {
		return 0, err
	}
	m := float64(bloomFilter.size)
	x := float64(count)
	if x >= m {
		return 0, nil
	}
	estimate := -(m / float64(bloomFilter.numHashes)) * math.Log(1-x/m)
	return uint64(math.Floor(estimate)), nil
}

// BloomPositiveRate returns the current false positive probability of
// the filter, (X/m)^k with X the number of set bits.
func (bloomFilter *BloomFilter) BloomPositiveRate() float64 {
	length, _ := bloomFilter.filter.BitCount()
	return math.Pow(float64(length)/float64(bloomFilter.size), float64(bloomFilter.numHashes))
}

// Union ORs the other filter's bits into this one. The filters must
// share size and hash count and both be in-memory. Every key present
// in either input filter is present in the union.
func (aFilter *BloomFilter) Union(bFilter *BloomFilter) error {
	if aFilter.size != bFilter.size || aFilter.numHashes != bFilter.numHashes {
		return fmt.Errorf("probz: can't union filters of sizes (%d, %d) and (%d, %d): %w",
			aFilter.size, aFilter.numHashes, bFilter.size, bFilter.numHashes, probz.ErrInvalidParameters)
	}
	first, ok1 := aFilter.filter.(*bitset.BitSetMem)
	second, ok2 := bFilter.filter.(*bitset.BitSetMem)
	if !ok1 || !ok2 {
		return fmt.Errorf("probz: union needs in-memory filters: %w", probz.ErrInvalidParameters)
	}
	return first.Union(second)
}

// Equals checks if two BloomFilters hold the same parameters and
// bits.
func (aFilter *BloomFilter) Equals(bFilter *BloomFilter) (bool, error) {
	if aFilter.size != bFilter.size || aFilter.numHashes != bFilter.numHashes {
		return false, nil
	}
	return aFilter.filter.Equals(bFilter.filter)
}
