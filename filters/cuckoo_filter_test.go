package filters

import (
	"errors"
	"fmt"
	"testing"

	"github.com/caiocdcs/probz"
)

func TestCuckooFilterBasic(t *testing.T) {
	filter, err := NewCuckooFilter[uint16](1000, 4)
	if err != nil {
		t.Fatalf("error creating filter: %v", err)
	}
	filter.InsertString("apple")
	filter.InsertString("banana")
	filter.InsertString("cherry")
	if !filter.LookupString("banana") {
		t.Error("banana should be in the filter")
	}
	if !filter.RemoveString("banana") {
		t.Error("remove of banana should succeed")
	}
	if filter.LookupString("banana") {
		t.Error("banana should be gone after remove")
	}
	if filter.EstimatedSize() != 2 {
		t.Errorf("estimated size should be 2, got %d", filter.EstimatedSize())
	}
}

func TestCuckooFilterRemoveAbsent(t *testing.T) {
	filter, _ := NewCuckooFilter[uint16](100, 4)
	filter.InsertString("apple")
	if filter.RemoveString("grape") {
		t.Error("remove of absent item should return false")
	}
	if filter.Length() != 1 {
		t.Errorf("length should stay 1, got %d", filter.Length())
	}
}

func TestCuckooFilterInsertAfterRemove(t *testing.T) {
	filter, _ := NewCuckooFilter[uint16](100, 4)
	filter.InsertString("apple")
	filter.RemoveString("apple")
	if err := filter.InsertString("apple"); err != nil {
		t.Fatalf("re-insert should succeed: %v", err)
	}
	if !filter.LookupString("apple") {
		t.Error("apple should be back in the filter")
	}
}

func TestCuckooFilterAltIndexSymmetry(t *testing.T) {
	filter, _ := NewCuckooFilter[uint16](1000, 4)
	for i := 0; i < 50; i++ {
		data := []byte(fmt.Sprintf("item-%d", i))
		fingerprint, firstIndex, secondIndex := filter.getPositions(data)
		if filter.altIndex(secondIndex, fingerprint) != firstIndex {
			t.Fatalf("alternate of the alternate should be the primary for %s", data)
		}
	}
}

func TestCuckooFilterFingerprintNonZero(t *testing.T) {
	filter, _ := NewCuckooFilter[uint8](100, 4)
	for i := 0; i < 1000; i++ {
		if filter.fingerprint([]byte(fmt.Sprintf("item-%d", i))) == 0 {
			t.Fatal("fingerprints must never be zero")
		}
	}
}

func TestCuckooFilterFull(t *testing.T) {
	filter, err := NewCuckooFilterWithRetries[uint16](4, 1, 5)
	if err != nil {
		t.Fatalf("error creating filter: %v", err)
	}
	filter.Seed(42)
	var inserted []string
	var full error
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("item-%d", i)
		if err := filter.InsertString(key); err != nil {
			full = err
			break
		}
		inserted = append(inserted, key)
	}
	if !errors.Is(full, probz.ErrFilterFull) {
		t.Fatalf("4-slot filter should fill up, got %v", full)
	}
	// the failed insert must roll its evictions back
	for _, key := range inserted {
		if !filter.LookupString(key) {
			t.Errorf("%s should survive the failed insert", key)
		}
	}
	if filter.Length() != uint64(len(inserted)) {
		t.Errorf("length should be %d, got %d", len(inserted), filter.Length())
	}
}

func TestCuckooFilterManyItems(t *testing.T) {
	filter, _ := NewCuckooFilter[uint32](2000, 4)
	filter.Seed(7)
	for i := 0; i < 1000; i++ {
		if err := filter.InsertString(fmt.Sprintf("item-%d", i)); err != nil {
			t.Fatalf("insert %d failed: %v", i, err)
		}
	}
	for i := 0; i < 1000; i++ {
		if !filter.LookupString(fmt.Sprintf("item-%d", i)) {
			t.Errorf("item-%d should be in the filter", i)
		}
	}
	if filter.EstimatedSize() != 1000 {
		t.Errorf("estimated size should be 1000, got %d", filter.EstimatedSize())
	}
}

func TestCuckooFilterInvalidParameters(t *testing.T) {
	if _, err := NewCuckooFilter[uint16](0, 4); !errors.Is(err, probz.ErrInvalidParameters) {
		t.Errorf("zero capacity should be rejected, got %v", err)
	}
	if _, err := NewCuckooFilter[uint16](100, 0); !errors.Is(err, probz.ErrInvalidParameters) {
		t.Errorf("zero bucket size should be rejected, got %v", err)
	}
}

func TestCuckooFilterEquals(t *testing.T) {
	first, _ := NewCuckooFilter[uint16](100, 4)
	second, _ := NewCuckooFilter[uint16](100, 4)
	first.InsertString("john")
	second.InsertString("john")
	if !first.Equals(second) {
		t.Error("filters with the same insertions should be equal")
	}
	second.InsertString("jane")
	if first.Equals(second) {
		t.Error("filters with different insertions should not be equal")
	}
}
