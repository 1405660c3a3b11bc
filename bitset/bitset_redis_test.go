package bitset

import (
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/caiocdcs/probz"
)

func setupRedis(t *testing.T) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("error starting miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	connOptions, err := probz.ParseRedisURI("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("error parsing redis uri: %v", err)
	}
	probz.MakeRedisClient(*connOptions)
}

func TestBitSetRedisHas(t *testing.T) {
	setupRedis(t)
	bitset := NewBitSetRedis(16)
	bitset.Insert(1)
	bitset.Insert(3)
	bitset.Insert(7)
	if ok, _ := bitset.Has(1); !ok {
		t.Fatal("should be true at index 1")
	}
	if ok, _ := bitset.Has(4); ok {
		t.Fatal("should be false at index 4")
	}
}

func TestBitSetRedisInsertMulti(t *testing.T) {
	setupRedis(t)
	bitset := NewBitSetRedis(64)
	bitset.InsertMulti([]uint{2, 3, 5, 8})
	result, err := bitset.HasMulti([]uint{2, 3, 5, 8, 13})
	if err != nil {
		t.Fatalf("has multi failed: %v", err)
	}
	expected := []bool{true, true, true, true, false}
	for i := range expected {
		if result[i] != expected[i] {
			t.Errorf("index %d: expected %v, got %v", i, expected[i], result[i])
		}
	}
}

func TestBitSetRedisRemoveToggle(t *testing.T) {
	setupRedis(t)
	bitset := NewBitSetRedis(16)
	bitset.Insert(5)
	bitset.Remove(5)
	if ok, _ := bitset.Has(5); ok {
		t.Error("bit 5 should be cleared after remove")
	}
	bitset.Toggle(6)
	if ok, _ := bitset.Has(6); !ok {
		t.Error("bit 6 should be set after toggle")
	}
	bitset.Toggle(6)
	if ok, _ := bitset.Has(6); ok {
		t.Error("bit 6 should be cleared after second toggle")
	}
}

func TestBitSetRedisBitCount(t *testing.T) {
	setupRedis(t)
	bitset := NewBitSetRedis(100)
	bitset.InsertMulti([]uint{0, 10, 99})
	count, err := bitset.BitCount()
	if err != nil {
		t.Fatalf("bit count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("bit count should be 3, got %d", count)
	}
}

func TestBitSetRedisOutOfRange(t *testing.T) {
	setupRedis(t)
	bitset := NewBitSetRedis(10)
	if _, err := bitset.Insert(10); !errors.Is(err, probz.ErrIndexOutOfRange) {
		t.Errorf("insert at 10 should be out of range, got %v", err)
	}
}

func TestBitSetRedisEquals(t *testing.T) {
	setupRedis(t)
	first := NewBitSetRedis(32)
	second := NewBitSetRedis(32)
	first.Insert(11)
	second.Insert(11)
	if ok, err := first.Equals(second); err != nil || !ok {
		t.Errorf("bitsets with the same bits should be equal, got (%v, %v)", ok, err)
	}
	second.Insert(12)
	if ok, _ := first.Equals(second); ok {
		t.Error("bitsets with different bits should not be equal")
	}
}
