package filters

import (
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/caiocdcs/probz"
)

const (
	occupiedBit     = uint64(1)
	continuationBit = uint64(2)
	shiftedBit      = uint64(4)
	metaBits        = uint64(7)
)

// QuotientFilter stores, for each key, the low r bits of its hash in
// a table of 2^q slots indexed by the next q bits. Each slot packs
// the remainder with the occupied, continuation and shifted metadata
// bits. Collisions shift entries linearly past their canonical slot
// with the metadata bits marking the displacement, so a lookup scans
// from the canonical slot to the next gap.
type QuotientFilter struct {
	quotientBits  uint
	remainderBits uint
	slots         []uint64
	length        uint64
}

// NewQuotientFilter creates a quotient filter with 2^quotientBits
// slots holding remainderBits-bit remainders.
func NewQuotientFilter(quotientBits, remainderBits uint) (*QuotientFilter, error) {
	if quotientBits < 1 || quotientBits > 31 {
		return nil, fmt.Errorf("probz: quotient bits %d outside [1, 31]: %w", quotientBits, probz.ErrInvalidParameters)
	}
	if remainderBits < 1 || remainderBits > 61 {
		return nil, fmt.Errorf("probz: remainder bits %d outside [1, 61]: %w", remainderBits, probz.ErrInvalidParameters)
	}
	return &QuotientFilter{
		quotientBits:  quotientBits,
		remainderBits: remainderBits,
		slots:         make([]uint64, uint64(1)<<quotientBits),
	}, nil
}

func (qf *QuotientFilter) positions(data []byte) (uint64, uint64) {
	h := xxh3.Hash(data)
	quotient := (h >> qf.remainderBits) & (uint64(len(qf.slots)) - 1)
	remainder := h & ((uint64(1) << qf.remainderBits) - 1)
	return quotient, remainder
}

func (qf *QuotientFilter) isEmpty(index uint64) bool {
	return qf.slots[index]&metaBits == 0
}

func (qf *QuotientFilter) remainderAt(index uint64) uint64 {
	return qf.slots[index] >> 3
}

// Insert writes data into the filter. The canonical slot is used when
// free; otherwise the remainder is placed in the next gap with the
// continuation and shifted bits set and the canonical slot marked
// occupied. A re-insert of an already present remainder is a no-op.
func (qf *QuotientFilter) Insert(data []byte) error {
	quotient, remainder := qf.positions(data)
	if qf.isEmpty(quotient) {
		qf.slots[quotient] = remainder<<3 | occupiedBit
		qf.length++
		return nil
	}
	mask := uint64(len(qf.slots)) - 1
	index := quotient
	for probes := 0; probes < len(qf.slots); probes++ {
		if qf.isEmpty(index) {
			qf.slots[index] = remainder<<3 | continuationBit | shiftedBit
			qf.slots[quotient] |= occupiedBit
			qf.length++
			return nil
		}
		if qf.remainderAt(index) == remainder && (index == quotient || qf.slots[index]&continuationBit != 0) {
			qf.slots[quotient] |= occupiedBit
			return nil
		}
		index = (index + 1) & mask
	}
	return fmt.Errorf("probz: no free slot in quotient filter: %w", probz.ErrFilterFull)
}

// InsertString inserts a string value.
func (qf *QuotientFilter) InsertString(data string) error {
	return qf.Insert([]byte(data))
}

// Lookup returns true if data's remainder is found between its
// canonical slot and the next gap. The occupied bit on the canonical
// slot gates the scan, so keys whose canonical bucket was never
// inserted into resolve without probing.
func (qf *QuotientFilter) Lookup(data []byte) bool {
	quotient, remainder := qf.positions(data)
	if qf.slots[quotient]&occupiedBit == 0 {
		return false
	}
	mask := uint64(len(qf.slots)) - 1
	index := quotient
	for probes := 0; probes < len(qf.slots); probes++ {
		if qf.isEmpty(index) {
			return false
		}
		if qf.remainderAt(index) == remainder && (index == quotient || qf.slots[index]&(continuationBit|shiftedBit) != 0) {
			return true
		}
		index = (index + 1) & mask
	}
	return false
}

// LookupString looks up a string value.
func (qf *QuotientFilter) LookupString(data string) bool {
	return qf.Lookup([]byte(data))
}

// Length returns the number of stored remainders.
func (qf *QuotientFilter) Length() uint64 {
	return qf.length
}

// Capacity returns the number of slots, 2^quotientBits.
func (qf *QuotientFilter) Capacity() uint64 {
	return uint64(len(qf.slots))
}

// QuotientBits returns q.
func (qf *QuotientFilter) QuotientBits() uint {
	return qf.quotientBits
}

// RemainderBits returns r.
func (qf *QuotientFilter) RemainderBits() uint {
	return qf.remainderBits
}
