package filters

import (
	"fmt"
	"math"

	"github.com/caiocdcs/probz"
)

// ScalableBloomFilter grows by appending bloom filters with
// geometrically increasing capacities and geometrically tightening
// false positive rates, so the compounded rate over the whole series
// stays bounded while the capacity is unbounded. Lookup is the OR
// across all component filters.
type ScalableBloomFilter struct {
	initialCapacity uint
	errorRate       float64
	growth          uint
	tightening      float64
	filters         []*BloomFilter
	capacities      []uint
	length          uint64
}

// NewScalableBloomFilter creates a scalable bloom filter whose first
// component holds capacity items at the target errorRate. Each new
// component multiplies the capacity by growth and the error rate by
// tightening.
func NewScalableBloomFilter(capacity uint, errorRate float64, growth uint, tightening float64) (*ScalableBloomFilter, error) {
	if capacity == 0 || errorRate <= 0 || errorRate >= 1 {
		return nil, fmt.Errorf("probz: need capacity > 0 and errorRate in (0, 1): %w", probz.ErrInvalidParameters)
	}
	if growth < 2 || tightening <= 0 || tightening >= 1 {
		return nil, fmt.Errorf("probz: need growth >= 2 and tightening in (0, 1): %w", probz.ErrInvalidParameters)
	}
	sbf := &ScalableBloomFilter{
		initialCapacity: capacity,
		errorRate:       errorRate,
		growth:          growth,
		tightening:      tightening,
	}
	if err := sbf.addFilter(); err != nil {
		return nil, err
	}
	return sbf, nil
}

// NewDefaultScalableBloomFilter creates a scalable bloom filter with
// growth 2 and tightening ratio 0.5.
func NewDefaultScalableBloomFilter(capacity uint, errorRate float64) (*ScalableBloomFilter, error) {
	return NewScalableBloomFilter(capacity, errorRate, 2, 0.5)
}

func (sbf *ScalableBloomFilter) addFilter() error {
	i := len(sbf.filters)
	capacity := uint(float64(sbf.initialCapacity) * math.Pow(float64(sbf.growth), float64(i)))
	errorRate := sbf.errorRate * math.Pow(sbf.tightening, float64(i))
	filter, err := NewMemBloomFilter(capacity, errorRate)
	if err != nil {
		return err
	}
	sbf.filters = append(sbf.filters, filter)
	sbf.capacities = append(sbf.capacities, capacity)
	return nil
}

// Insert writes data into the active filter, first appending a new
// tighter filter if the active one has reached its capacity.
func (sbf *ScalableBloomFilter) Insert(data []byte) error {
	active := len(sbf.filters) - 1
	estimate, err := sbf.filters[active].EstimatedSize()
	if err != nil {
		return err
	}
	if estimate >= uint64(sbf.capacities[active]) {
		if err := sbf.addFilter(); err != nil {
			return err
		}
		active = len(sbf.filters) - 1
	}
	if err := sbf.filters[active].Insert(data); err != nil {
		return err
	}
	sbf.length++
	return nil
}

// InsertString inserts a string value.
func (sbf *ScalableBloomFilter) InsertString(data string) error {
	return sbf.Insert([]byte(data))
}

// Lookup returns true if any component filter reports data present.
func (sbf *ScalableBloomFilter) Lookup(data []byte) (bool, error) {
	for _, filter := range sbf.filters {
		ok, err := filter.Lookup(data)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// LookupString looks up a string value.
func (sbf *ScalableBloomFilter) LookupString(data string) (bool, error) {
	return sbf.Lookup([]byte(data))
}

// EstimatedSize returns the number of Insert calls, duplicates
// included.
func (sbf *ScalableBloomFilter) EstimatedSize() uint64 {
	return sbf.length
}

// FilterCount returns the number of component filters.
func (sbf *ScalableBloomFilter) FilterCount() uint {
	return uint(len(sbf.filters))
}

// PositiveRate returns the compounded false positive probability over
// the component filters.
func (sbf *ScalableBloomFilter) PositiveRate() float64 {
	rate := 1.0
	for _, filter := range sbf.filters {
		rate *= 1 - filter.BloomPositiveRate()
	}
	return 1 - rate
}
