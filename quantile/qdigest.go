package quantile

import (
	"fmt"
	"math"
	"sort"

	"github.com/caiocdcs/probz"
	"github.com/caiocdcs/probz/internal/util"
)

type qdigestNode struct {
	left  uint64
	right uint64
	count uint64
}

// QDigest summarizes integer values from the universe [0, U) as a
// list of (range, count) nodes. Low-count nodes are folded into
// contiguous neighbors whenever their count drops under
// total/compressionFactor, bounding the node count while keeping the
// rank error proportional to the merged ranges.
type QDigest struct {
	compressionFactor uint64
	universe          uint64
	nodes             []qdigestNode
	total             uint64
}

// NewQDigest creates a digest over the universe [0, universe) with
// the given compression factor. The factor must be in [1, 1000] and
// the universe a positive power of two.
func NewQDigest(compressionFactor, universe uint64) (*QDigest, error) {
	if compressionFactor < 1 || compressionFactor > 1000 {
		return nil, fmt.Errorf("probz: compression factor %d outside [1, 1000]: %w", compressionFactor, probz.ErrInvalidCompression)
	}
	if !util.IsPowerOfTwo(universe) {
		return nil, fmt.Errorf("probz: universe size %d is not a positive power of two: %w", universe, probz.ErrInvalidUniverseSize)
	}
	return &QDigest{compressionFactor: compressionFactor, universe: universe}, nil
}

// CompressionFactor returns the compression factor.
func (q *QDigest) CompressionFactor() uint64 {
	return q.compressionFactor
}

// Universe returns the exclusive upper bound on added values.
func (q *QDigest) Universe() uint64 {
	return q.universe
}

// Size returns the total count of added values.
func (q *QDigest) Size() uint64 {
	return q.total
}

// NodeCount returns the current number of range nodes.
func (q *QDigest) NodeCount() int {
	return len(q.nodes)
}

// Add folds a single value into the digest. Values at or beyond the
// universe bound are rejected.
func (q *QDigest) Add(value uint64) error {
	return q.addCount(value, 1)
}

func (q *QDigest) addCount(value, count uint64) error {
	if value >= q.universe {
		return fmt.Errorf("probz: value %d outside universe [0, %d): %w", value, q.universe, probz.ErrInvalidParameters)
	}
	if count == 0 {
		return nil
	}
	placed := false
	for i := range q.nodes {
		if q.nodes[i].left <= value && value <= q.nodes[i].right {
			q.nodes[i].count += count
			placed = true
			break
		}
	}
	if !placed {
		q.nodes = append(q.nodes, qdigestNode{value, value, count})
	}
	q.total += count
	q.compress()
	return nil
}

// compress folds light nodes into their contiguous neighbors. After
// it returns, no two adjacent contiguous nodes remain where either
// count is below total/compressionFactor.
func (q *QDigest) compress() {
	if len(q.nodes) < 2 {
		return
	}
	threshold := q.total / q.compressionFactor
	sort.Slice(q.nodes, func(i, j int) bool {
		return q.nodes[i].left < q.nodes[j].left
	})
	merged := make([]qdigestNode, 0, len(q.nodes))
	current := q.nodes[0]
	for _, next := range q.nodes[1:] {
		contiguous := current.right+1 == next.left
		if contiguous && (current.count < threshold || next.count < threshold) {
			current.right = next.right
			current.count += next.count
		} else {
			merged = append(merged, current)
			current = next
		}
	}
	q.nodes = append(merged, current)
}

// Quantile returns the approximate value at percentile p in [0, 1],
// accumulating node counts to the target rank and interpolating
// linearly inside the node that reaches it.
func (q *QDigest) Quantile(p float64) (float64, error) {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0, fmt.Errorf("probz: percentile %v outside [0, 1]: %w", p, probz.ErrInvalidParameters)
	}
	if q.total == 0 {
		return 0, fmt.Errorf("probz: quantile of an empty digest: %w", probz.ErrEmptyDigest)
	}
	sort.Slice(q.nodes, func(i, j int) bool {
		return q.nodes[i].left < q.nodes[j].left
	})
	target := uint64(math.Round(p * float64(q.total)))
	cumulative := uint64(0)
	for _, node := range q.nodes {
		cumulative += node.count
		if cumulative >= target {
			within := node.count - (cumulative - target)
			fraction := float64(within) / float64(node.count)
			return float64(node.left) + fraction*float64(node.right-node.left), nil
		}
	}
	last := q.nodes[len(q.nodes)-1]
	return float64(last.right), nil
}

// Rank returns the approximate fraction of added values strictly
// below value, with a linear-proportion contribution from the node
// containing it.
func (q *QDigest) Rank(value uint64) float64 {
	if q.total == 0 {
		return 0
	}
	below := 0.0
	for _, node := range q.nodes {
		switch {
		case node.right < value:
			below += float64(node.count)
		case node.left <= value && value <= node.right:
			width := float64(node.right - node.left + 1)
			below += float64(node.count) * float64(value-node.left) / width
		}
	}
	return below / float64(q.total)
}

// Merge folds the other digest into this one by re-inserting each
// node at its range midpoint with its full count. The compression
// factors and universes must match.
func (q *QDigest) Merge(other *QDigest) error {
	if q.compressionFactor != other.compressionFactor || q.universe != other.universe {
		return fmt.Errorf("probz: digests of factor/universe (%d, %d) and (%d, %d) don't merge: %w",
			q.compressionFactor, q.universe, other.compressionFactor, other.universe, probz.ErrIncompatibleDimensions)
	}
	for _, node := range other.nodes {
		midpoint := node.left + (node.right-node.left)/2
		if err := q.addCount(midpoint, node.count); err != nil {
			return err
		}
	}
	return nil
}
