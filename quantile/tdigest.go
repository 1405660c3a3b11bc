/*
Package quantile provides the approximate quantile digests: t-digest
for floating point samples and q-digest for bounded integer values.
*/
package quantile

import (
	"fmt"
	"math"
	"sort"

	"github.com/caiocdcs/probz"
)

const maxDiscrete = 25

// Centroid summarizes a cluster of samples by its mean and total
// weight.
type Centroid struct {
	Mean   float64
	Weight uint64
}

// TDigest keeps an ordered set of centroids summarizing the observed
// distribution. Adjacent centroids are merged under a size rule
// driven by the compression parameter, so the digest stays small
// while quantiles near the tails keep high resolution.
type TDigest struct {
	compression float64
	centroids   []Centroid
	totalWeight uint64
}

// NewTDigest creates a digest with the given compression, which must
// be in [10, 1000]. Larger values keep more centroids and give more
// accurate quantiles.
func NewTDigest(compression float64) (*TDigest, error) {
	if compression < 10 || compression > 1000 {
		return nil, fmt.Errorf("probz: compression %v outside [10, 1000]: %w", compression, probz.ErrInvalidCompression)
	}
	return &TDigest{compression: compression}, nil
}

// NewDefaultTDigest creates a digest with compression 100.
func NewDefaultTDigest() *TDigest {
	digest, _ := NewTDigest(100)
	return digest
}

// Compression returns the compression parameter.
func (t *TDigest) Compression() float64 {
	return t.compression
}

// Size returns the total weight of all added samples.
func (t *TDigest) Size() uint64 {
	return t.totalWeight
}

// CentroidCount returns the current number of centroids.
func (t *TDigest) CentroidCount() int {
	return len(t.centroids)
}

// Add folds a single sample into the digest.
func (t *TDigest) Add(value float64) error {
	return t.AddWeighted(value, 1)
}

// AddWeighted folds a sample with the given weight into the digest.
// The digest compresses itself once the centroid count grows past the
// discrete threshold.
func (t *TDigest) AddWeighted(value float64, weight uint64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || weight == 0 {
		return fmt.Errorf("probz: need a finite value and weight > 0: %w", probz.ErrInvalidParameters)
	}
	t.centroids = append(t.centroids, Centroid{value, weight})
	t.totalWeight += weight
	if len(t.centroids) > maxDiscrete {
		t.Compress()
	}
	return nil
}

// Compress sorts the centroids by mean and merges adjacent pairs that
// are close together and jointly light enough. After it returns, no
// adjacent pair satisfies both merge conditions.
func (t *TDigest) Compress() {
	if len(t.centroids) < 2 {
		return
	}
	sort.Slice(t.centroids, func(i, j int) bool {
		return t.centroids[i].Mean < t.centroids[j].Mean
	})
	meanGap := 100.0 / t.compression
	weightLimit := float64(t.totalWeight) * 2.0 / t.compression
	merged := make([]Centroid, 0, len(t.centroids))
	current := t.centroids[0]
	for _, next := range t.centroids[1:] {
		combined := current.Weight + next.Weight
		if next.Mean-current.Mean < meanGap && float64(combined) < weightLimit {
			current.Mean = (current.Mean*float64(current.Weight) + next.Mean*float64(next.Weight)) / float64(combined)
			current.Weight = combined
		} else {
			merged = append(merged, current)
			current = next
		}
	}
	t.centroids = append(merged, current)
}

// sorted returns the centroids ordered by mean, together with the
// running half-weight center of each centroid in weight units.
func (t *TDigest) sorted() ([]Centroid, []float64) {
	sort.Slice(t.centroids, func(i, j int) bool {
		return t.centroids[i].Mean < t.centroids[j].Mean
	})
	centers := make([]float64, len(t.centroids))
	cumulative := 0.0
	for i, c := range t.centroids {
		centers[i] = cumulative + float64(c.Weight)/2
		cumulative += float64(c.Weight)
	}
	return t.centroids, centers
}

// Quantile returns the approximate value at percentile p in [0, 1].
// The target weight is located between two centroid centers and the
// value interpolated linearly between their means; targets outside
// the first and last centers map to the first and last means.
func (t *TDigest) Quantile(p float64) (float64, error) {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0, fmt.Errorf("probz: percentile %v outside [0, 1]: %w", p, probz.ErrInvalidParameters)
	}
	if t.totalWeight == 0 {
		return 0, fmt.Errorf("probz: quantile of an empty digest: %w", probz.ErrEmptyDigest)
	}
	centroids, centers := t.sorted()
	target := p * float64(t.totalWeight)
	if target <= centers[0] {
		return centroids[0].Mean, nil
	}
	last := len(centroids) - 1
	if target >= centers[last] {
		return centroids[last].Mean, nil
	}
	for i := 0; i < last; i++ {
		if target <= centers[i+1] {
			gap := centers[i+1] - centers[i]
			if gap == 0 {
				return centroids[i+1].Mean, nil
			}
			fraction := (target - centers[i]) / gap
			return centroids[i].Mean + fraction*(centroids[i+1].Mean-centroids[i].Mean), nil
		}
	}
	return centroids[last].Mean, nil
}

// CDF returns the approximate fraction of the total weight at or
// below value, interpolating linearly between centroid centers.
func (t *TDigest) CDF(value float64) (float64, error) {
	if math.IsNaN(value) {
		return 0, fmt.Errorf("probz: cdf of NaN: %w", probz.ErrInvalidParameters)
	}
	if t.totalWeight == 0 {
		return 0, fmt.Errorf("probz: cdf of an empty digest: %w", probz.ErrEmptyDigest)
	}
	centroids, centers := t.sorted()
	if value < centroids[0].Mean {
		return 0, nil
	}
	last := len(centroids) - 1
	if value > centroids[last].Mean {
		return 1, nil
	}
	if len(centroids) == 1 {
		return 0.5, nil
	}
	for i := 0; i < last; i++ {
		if value <= centroids[i+1].Mean {
			gap := centroids[i+1].Mean - centroids[i].Mean
			if gap == 0 {
				return centers[i+1] / float64(t.totalWeight), nil
			}
			fraction := (value - centroids[i].Mean) / gap
			weight := centers[i] + fraction*(centers[i+1]-centers[i])
			return weight / float64(t.totalWeight), nil
		}
	}
	return 1, nil
}

// Merge folds every centroid of the other digest into this one as a
// weighted sample.
func (t *TDigest) Merge(other *TDigest) error {
	for _, c := range other.centroids {
		if err := t.AddWeighted(c.Mean, c.Weight); err != nil {
			return err
		}
	}
	return nil
}
