/*
Package count provides the frequency and cardinality estimators: the
Count-Min sketch and HyperLogLog.
*/
package count

import (
	"fmt"
	"math"

	"github.com/caiocdcs/probz"
	"github.com/caiocdcs/probz/hash"
)

// Counter is the set of unsigned types a sketch cell can hold.
type Counter interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// CountMinSketch is a rows x columns counter matrix. Every update
// increments one cell per row at a double-hashed column; an estimate
// is the minimum over the rows, so it never undercounts an item
// inserted through Update.
type CountMinSketch[C Counter] struct {
	rows    uint
	columns uint
	allSum  uint64
	matrix  [][]C
}

// NewCountMinSketch creates a sketch with the given dimensions.
func NewCountMinSketch[C Counter](rows, columns uint) (*CountMinSketch[C], error) {
	if rows == 0 || columns == 0 {
		return nil, fmt.Errorf("probz: rows and columns should be greater than 0: %w", probz.ErrInvalidParameters)
	}
	matrix := make([][]C, rows)
	for i := range matrix {
		matrix[i] = make([]C, columns)
	}
	return &CountMinSketch[C]{rows: rows, columns: columns, matrix: matrix}, nil
}

// NewCountMinSketchFromEstimates derives the dimensions from the
// target estimation error errorRate (epsilon) and failure probability
// delta: columns = ceil(e/epsilon), rows = ceil(ln(1/delta)).
func NewCountMinSketchFromEstimates[C Counter](errorRate, delta float64) (*CountMinSketch[C], error) {
	if errorRate <= 0 || errorRate >= 1 || delta <= 0 || delta >= 1 {
		return nil, fmt.Errorf("probz: errorRate and delta should be in (0, 1): %w", probz.ErrInvalidParameters)
	}
	columns := uint(math.Ceil(math.E / errorRate))
	rows := uint(math.Ceil(math.Log(1 / delta)))
	return NewCountMinSketch[C](rows, columns)
}

// GetRows returns the sketch depth.
func (cms *CountMinSketch[C]) GetRows() uint {
	return cms.rows
}

// GetColumns returns the sketch width.
func (cms *CountMinSketch[C]) GetColumns() uint {
	return cms.columns
}

// TotalCount returns the sum of all counts passed to Update.
func (cms *CountMinSketch[C]) TotalCount() uint64 {
	return cms.allSum
}

func (cms *CountMinSketch[C]) getPositions(data []byte) []uint {
	positions := make([]uint, cms.rows)
	h1, h2 := hash.Pair64(data)
	for r := range positions {
		positions[r] = hash.DoubleHashIndex(h1, h2, uint(r), cms.columns)
	}
	return positions
}

func (cms *CountMinSketch[C]) maxCell() uint64 {
	return uint64(^C(0))
}

// Update adds count to data's cell in every row. All touched cells
// are verified against the counter maximum before any is written, so
// a rejected update leaves the sketch unchanged.
func (cms *CountMinSketch[C]) Update(data []byte, count uint64) error {
	positions := cms.getPositions(data)
	for r, c := range positions {
		if count > cms.maxCell()-uint64(cms.matrix[r][c]) {
			return fmt.Errorf("probz: cell (%d, %d) can't absorb %d: %w", r, c, count, probz.ErrCounterOverflow)
		}
	}
	for r, c := range positions {
		cms.matrix[r][c] += C(count)
	}
	cms.allSum += count
	return nil
}

// UpdateOnce adds a single observation of data.
func (cms *CountMinSketch[C]) UpdateOnce(data []byte) error {
	return cms.Update(data, 1)
}

// UpdateString adds count observations of a string value.
func (cms *CountMinSketch[C]) UpdateString(data string, count uint64) error {
	return cms.Update([]byte(data), count)
}

// Count estimates the frequency of data as the minimum over the rows.
func (cms *CountMinSketch[C]) Count(data []byte) uint64 {
	var min uint64
	for r, c := range cms.getPositions(data) {
		if r == 0 || uint64(cms.matrix[r][c]) < min {
			min = uint64(cms.matrix[r][c])
		}
	}
	return min
}

// CountString estimates the frequency of a string value.
func (cms *CountMinSketch[C]) CountString(data string) uint64 {
	return cms.Count([]byte(data))
}

// Merge sums the other sketch into this one cell-wise. The dimensions
// must match and no cell may overflow; a rejected merge leaves the
// sketch unchanged.
func (cms *CountMinSketch[C]) Merge(other *CountMinSketch[C]) error {
	if cms.rows != other.rows || cms.columns != other.columns {
		return fmt.Errorf("probz: can't merge sketches of dimensions (%d, %d) and (%d, %d): %w",
			cms.rows, cms.columns, other.rows, other.columns, probz.ErrIncompatibleDimensions)
	}
	for i := range cms.matrix {
		for j := range cms.matrix[i] {
			if uint64(other.matrix[i][j]) > cms.maxCell()-uint64(cms.matrix[i][j]) {
				return fmt.Errorf("probz: cell (%d, %d) overflows on merge: %w", i, j, probz.ErrCounterOverflow)
			}
		}
	}
	for i := range cms.matrix {
		for j := range cms.matrix[i] {
			cms.matrix[i][j] += other.matrix[i][j]
		}
	}
	cms.allSum += other.allSum
	return nil
}

// Equals compares two sketches cell by cell.
func (cms *CountMinSketch[C]) Equals(other *CountMinSketch[C]) bool {
	if cms.rows != other.rows || cms.columns != other.columns {
		return false
	}
	for i := range cms.matrix {
		for j := range cms.matrix[i] {
			if cms.matrix[i][j] != other.matrix[i][j] {
				return false
			}
		}
	}
	return true
}
