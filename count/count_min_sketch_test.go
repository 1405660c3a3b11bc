package count

import (
	"errors"
	"testing"

	"github.com/caiocdcs/probz"
)

func TestCountMinSketchDimensionsFromEstimates(t *testing.T) {
	cms, err := NewCountMinSketchFromEstimates[uint32](0.01, 0.01)
	if err != nil {
		t.Fatalf("error creating sketch: %v", err)
	}
	if cms.GetColumns() != 272 {
		t.Errorf("columns should be 272, got %d", cms.GetColumns())
	}
	if cms.GetRows() != 5 {
		t.Errorf("rows should be 5, got %d", cms.GetRows())
	}
}

func TestCountMinSketchBasic(t *testing.T) {
	cms, _ := NewCountMinSketchFromEstimates[uint32](0.01, 0.01)
	cms.UpdateString("banana", 3)
	cms.UpdateOnce([]byte("apple"))
	if count := cms.CountString("banana"); count < 3 {
		t.Errorf("count of banana should be at least 3, got %d", count)
	}
	if count := cms.CountString("apple"); count < 1 {
		t.Errorf("count of apple should be at least 1, got %d", count)
	}
	if count := cms.CountString("never"); count != 0 {
		t.Errorf("count of never should be 0, got %d", count)
	}
}

func TestCountMinSketchNeverUndercounts(t *testing.T) {
	cms, _ := NewCountMinSketchFromEstimates[uint64](0.001, 0.001)
	exact := map[string]uint64{"foo": 12, "bar": 3, "baz": 40, "qux": 1}
	for key, count := range exact {
		cms.UpdateString(key, count)
	}
	for key, count := range exact {
		if estimate := cms.CountString(key); estimate < count {
			t.Errorf("estimate of %s should be at least %d, got %d", key, count, estimate)
		}
	}
}

func TestCountMinSketchMerge(t *testing.T) {
	cms1, _ := NewCountMinSketchFromEstimates[uint32](0.01, 0.01)
	cms2, _ := NewCountMinSketchFromEstimates[uint32](0.01, 0.01)
	cms1.UpdateString("banana", 3)
	cms2.UpdateString("banana", 2)
	if err := cms1.Merge(cms2); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if count := cms1.CountString("banana"); count < 5 {
		t.Errorf("merged count of banana should be at least 5, got %d", count)
	}
}

func TestCountMinSketchMergeAssociative(t *testing.T) {
	build := func(items map[string]uint64) *CountMinSketch[uint32] {
		cms, _ := NewCountMinSketch[uint32](5, 272)
		for key, count := range items {
			cms.UpdateString(key, count)
		}
		return cms
	}
	itemsA := map[string]uint64{"foo": 1, "bar": 2}
	itemsB := map[string]uint64{"bar": 3, "baz": 4}
	itemsC := map[string]uint64{"baz": 5, "qux": 6}

	left := build(itemsA)
	ab := build(itemsB)
	left.Merge(ab)
	left.Merge(build(itemsC))

	bc := build(itemsB)
	bc.Merge(build(itemsC))
	right := build(itemsA)
	right.Merge(bc)

	if !left.Equals(right) {
		t.Error("merge should be associative cell by cell")
	}
}

func TestCountMinSketchMergeDimensionMismatch(t *testing.T) {
	cms1, _ := NewCountMinSketch[uint32](5, 272)
	cms2, _ := NewCountMinSketch[uint32](4, 272)
	if err := cms1.Merge(cms2); !errors.Is(err, probz.ErrIncompatibleDimensions) {
		t.Errorf("merge of mismatched rows should fail, got %v", err)
	}
	cms3, _ := NewCountMinSketch[uint32](5, 100)
	if err := cms1.Merge(cms3); !errors.Is(err, probz.ErrIncompatibleDimensions) {
		t.Errorf("merge of mismatched columns should fail, got %v", err)
	}
}

func TestCountMinSketchOverflow(t *testing.T) {
	cms, _ := NewCountMinSketch[uint8](2, 16)
	if err := cms.UpdateString("foo", 255); err != nil {
		t.Fatalf("update to the counter maximum should succeed: %v", err)
	}
	if err := cms.UpdateString("foo", 1); !errors.Is(err, probz.ErrCounterOverflow) {
		t.Errorf("update past the counter maximum should overflow, got %v", err)
	}
	if count := cms.CountString("foo"); count != 255 {
		t.Errorf("count should stay at 255 after rejected update, got %d", count)
	}
	if err := cms.UpdateString("foo", 256); !errors.Is(err, probz.ErrCounterOverflow) {
		t.Errorf("count wider than the cell type should overflow, got %v", err)
	}
}

func TestCountMinSketchInvalidParameters(t *testing.T) {
	if _, err := NewCountMinSketch[uint32](0, 100); !errors.Is(err, probz.ErrInvalidParameters) {
		t.Errorf("zero rows should be rejected, got %v", err)
	}
	if _, err := NewCountMinSketch[uint32](5, 0); !errors.Is(err, probz.ErrInvalidParameters) {
		t.Errorf("zero columns should be rejected, got %v", err)
	}
	if _, err := NewCountMinSketchFromEstimates[uint32](0, 0.01); !errors.Is(err, probz.ErrInvalidParameters) {
		t.Errorf("zero error rate should be rejected, got %v", err)
	}
	if _, err := NewCountMinSketchFromEstimates[uint32](0.01, 1); !errors.Is(err, probz.ErrInvalidParameters) {
		t.Errorf("delta of 1 should be rejected, got %v", err)
	}
}

func TestCountMinSketchTotalCount(t *testing.T) {
	cms, _ := NewCountMinSketch[uint64](5, 272)
	cms.UpdateString("foo", 3)
	cms.UpdateString("bar", 4)
	if cms.TotalCount() != 7 {
		t.Errorf("total count should be 7, got %d", cms.TotalCount())
	}
}
