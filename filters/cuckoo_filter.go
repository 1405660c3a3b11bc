package filters

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"

	"github.com/dgryski/go-metro"

	"github.com/caiocdcs/probz"
	"github.com/caiocdcs/probz/buckets"
	"github.com/caiocdcs/probz/hash"
	"github.com/caiocdcs/probz/internal/util"
)

const (
	cuckooFingerprintSeed = 1373
	defaultMaxKicks       = 500
)

// CuckooFilter stores short fingerprints of its keys in an array of
// small buckets. A fingerprint lives in one of two candidate buckets
// related by b2 = b1 XOR (hash(fingerprint) mod size), so either
// bucket yields the other and removal is supported. When both
// candidates are full, resident fingerprints are kicked to their
// alternate buckets until a slot frees up or the kick budget runs
// out.
type CuckooFilter[F buckets.Fingerprint] struct {
	buckets    []*buckets.Bucket[F]
	size       uint64
	bucketSize uint64
	length     uint64
	retries    uint64
	rand       *rand.Rand
}

// NewCuckooFilter creates a cuckoo filter for roughly capacity items
// in buckets of bucketSize slots, with the default kick budget of
// 500.
func NewCuckooFilter[F buckets.Fingerprint](capacity, bucketSize uint64) (*CuckooFilter[F], error) {
	return NewCuckooFilterWithRetries[F](capacity, bucketSize, defaultMaxKicks)
}

// NewCuckooFilterWithRetries creates a cuckoo filter with an explicit
// kick budget.
func NewCuckooFilterWithRetries[F buckets.Fingerprint](capacity, bucketSize, retries uint64) (*CuckooFilter[F], error) {
	if capacity == 0 || bucketSize == 0 || retries == 0 {
		return nil, fmt.Errorf("probz: need capacity, bucketSize and retries > 0: %w", probz.ErrInvalidParameters)
	}
	size := util.NextPowerOfTwo((capacity + bucketSize - 1) / bucketSize)
	filter := make([]*buckets.Bucket[F], size)
	for i := range filter {
		filter[i] = buckets.NewBucket[F](bucketSize)
	}
	return &CuckooFilter[F]{
		buckets:    filter,
		size:       size,
		bucketSize: bucketSize,
		retries:    retries,
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Seed replaces the filter's eviction PRNG, for reproducible runs.
func (cf *CuckooFilter[F]) Seed(seed int64) {
	cf.rand = rand.New(rand.NewSource(seed))
}

func (cf *CuckooFilter[F]) fingerprint(data []byte) F {
	fingerprint := F(metro.Hash64(data, cuckooFingerprintSeed))
	if fingerprint == 0 {
		fingerprint = 1
	}
	return fingerprint
}

func (cf *CuckooFilter[F]) primaryIndex(data []byte) uint64 {
	h1, _ := hash.Sum128(data)
	return h1 & (cf.size - 1)
}

// altIndex is symmetric: applying it to the result with the same
// fingerprint yields the original index back.
func (cf *CuckooFilter[F]) altIndex(index uint64, fingerprint F) uint64 {
	bytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(bytes, uint32(fingerprint))
	return index ^ (metro.Hash64(bytes, cuckooFingerprintSeed) & (cf.size - 1))
}

func (cf *CuckooFilter[F]) getPositions(data []byte) (F, uint64, uint64) {
	fingerprint := cf.fingerprint(data)
	firstIndex := cf.primaryIndex(data)
	secondIndex := cf.altIndex(firstIndex, fingerprint)
	return fingerprint, firstIndex, secondIndex
}

type evictionEntry[F buckets.Fingerprint] struct {
	bucketIndex uint64
	slotIndex   uint64
	fingerprint F
}

// Insert writes data into the filter. When both candidate buckets are
// full it enters the eviction loop; if the kick budget is exhausted
// the evicted chain is rolled back and ErrFilterFull is returned.
func (cf *CuckooFilter[F]) Insert(data []byte) error {
	fingerprint, firstIndex, secondIndex := cf.getPositions(data)
	if cf.buckets[firstIndex].Add(fingerprint) || cf.buckets[secondIndex].Add(fingerprint) {
		cf.length++
		return nil
	}
	index := firstIndex
	current := fingerprint
	var trail []evictionEntry[F]
	for i := uint64(0); i < cf.retries; i++ {
		slot := uint64(cf.rand.Int63n(int64(cf.bucketSize)))
		evicted := cf.buckets[index].Swap(slot, current)
		trail = append(trail, evictionEntry[F]{index, slot, evicted})
		index = cf.altIndex(index, evicted)
		current = evicted
		if cf.buckets[index].Add(current) {
			cf.length++
			return nil
		}
	}
	for i := len(trail) - 1; i >= 0; i-- {
		entry := trail[i]
		cf.buckets[entry.bucketIndex].Set(entry.slotIndex, entry.fingerprint)
	}
	return fmt.Errorf("probz: exhausted %d kicks: %w", cf.retries, probz.ErrFilterFull)
}

// InsertString inserts a string value.
func (cf *CuckooFilter[F]) InsertString(data string) error {
	return cf.Insert([]byte(data))
}

// Lookup returns true if either candidate bucket holds data's
// fingerprint.
func (cf *CuckooFilter[F]) Lookup(data []byte) bool {
	fingerprint, firstIndex, secondIndex := cf.getPositions(data)
	return cf.buckets[firstIndex].Lookup(fingerprint) ||
		cf.buckets[secondIndex].Lookup(fingerprint)
}

// LookupString looks up a string value.
func (cf *CuckooFilter[F]) LookupString(data string) bool {
	return cf.Lookup([]byte(data))
}

// Remove clears the first matching slot across the two candidate
// buckets and returns whether a removal happened. Removing more
// copies of a fingerprint than were inserted can produce false
// negatives for colliding keys; callers must not do that.
func (cf *CuckooFilter[F]) Remove(data []byte) bool {
	fingerprint, firstIndex, secondIndex := cf.getPositions(data)
	if cf.buckets[firstIndex].Remove(fingerprint) {
		cf.length--
		return true
	}
	if cf.buckets[secondIndex].Remove(fingerprint) {
		cf.length--
		return true
	}
	return false
}

// RemoveString removes a string value.
func (cf *CuckooFilter[F]) RemoveString(data string) bool {
	return cf.Remove([]byte(data))
}

// Length returns the exact number of occupied slots.
func (cf *CuckooFilter[F]) Length() uint64 {
	return cf.length
}

// EstimatedSize returns the exact count of non-empty slots; for the
// cuckoo filter the size bookkeeping is not approximate.
func (cf *CuckooFilter[F]) EstimatedSize() uint64 {
	return cf.length
}

// Size returns the number of buckets.
func (cf *CuckooFilter[F]) Size() uint64 {
	return cf.size
}

// BucketSize returns the number of slots per bucket.
func (cf *CuckooFilter[F]) BucketSize() uint64 {
	return cf.bucketSize
}

// CellSize returns the total number of slots.
func (cf *CuckooFilter[F]) CellSize() uint64 {
	return cf.size * cf.bucketSize
}

// Retries returns the kick budget.
func (cf *CuckooFilter[F]) Retries() uint64 {
	return cf.retries
}

// Equals compares two cuckoo filters bucket by bucket.
func (aFilter *CuckooFilter[F]) Equals(bFilter *CuckooFilter[F]) bool {
	if aFilter.size != bFilter.size || aFilter.bucketSize != bFilter.bucketSize {
		return false
	}
	for i := range aFilter.buckets {
		if !aFilter.buckets[i].Equals(bFilter.buckets[i]) {
			return false
		}
	}
	return true
}
