package buckets

import "testing"

func TestBucketAddLookup(t *testing.T) {
	bucket := NewBucket[uint16](4)
	if !bucket.Add(101) {
		t.Error("add should succeed in an empty bucket")
	}
	if !bucket.Lookup(101) {
		t.Error("101 should be in the bucket")
	}
	if bucket.Lookup(202) {
		t.Error("202 should not be in the bucket")
	}
	if bucket.Length() != 1 {
		t.Errorf("length should be 1, got %d", bucket.Length())
	}
}

func TestBucketRejectsZero(t *testing.T) {
	bucket := NewBucket[uint8](2)
	if bucket.Add(0) {
		t.Error("zero fingerprint should be rejected")
	}
	if bucket.Lookup(0) {
		t.Error("zero fingerprint should never be present")
	}
}

func TestBucketFull(t *testing.T) {
	bucket := NewBucket[uint16](2)
	bucket.Add(1)
	bucket.Add(2)
	if bucket.IsFree() {
		t.Error("bucket with 2 of 2 slots used should not be free")
	}
	if bucket.Add(3) {
		t.Error("add to a full bucket should fail")
	}
	if bucket.NextSlot() != -1 {
		t.Errorf("full bucket should have no next slot, got %d", bucket.NextSlot())
	}
}

func TestBucketRemove(t *testing.T) {
	bucket := NewBucket[uint16](4)
	bucket.Add(7)
	bucket.Add(9)
	if !bucket.Remove(7) {
		t.Error("remove of present fingerprint should succeed")
	}
	if bucket.Lookup(7) {
		t.Error("7 should be gone after remove")
	}
	if bucket.Remove(7) {
		t.Error("second remove of 7 should fail")
	}
	if bucket.Length() != 1 {
		t.Errorf("length should be 1, got %d", bucket.Length())
	}
}

func TestBucketSwap(t *testing.T) {
	bucket := NewBucket[uint32](2)
	bucket.Add(5)
	previous := bucket.Swap(0, 6)
	if previous != 5 {
		t.Errorf("swap should return 5, got %d", previous)
	}
	if bucket.At(0) != 6 {
		t.Errorf("slot 0 should hold 6, got %d", bucket.At(0))
	}
	if bucket.Length() != 1 {
		t.Errorf("length should stay 1 after swap, got %d", bucket.Length())
	}
}

func TestBucketSetAdjustsLength(t *testing.T) {
	bucket := NewBucket[uint8](3)
	bucket.Set(1, 42)
	if bucket.Length() != 1 {
		t.Errorf("length should be 1 after set, got %d", bucket.Length())
	}
	bucket.Set(1, 0)
	if bucket.Length() != 0 {
		t.Errorf("length should be 0 after clearing, got %d", bucket.Length())
	}
}

func TestBucketEquals(t *testing.T) {
	first := NewBucket[uint16](2)
	second := NewBucket[uint16](2)
	first.Add(3)
	second.Add(3)
	if !first.Equals(second) {
		t.Error("buckets with the same slots should be equal")
	}
	second.Add(4)
	if first.Equals(second) {
		t.Error("buckets with different slots should not be equal")
	}
}
