package trie

import (
	"math/rand/v2"
	"slices"
	"testing"
)

func TestInsertAndLookup(t *testing.T) {
	tr := New(32)

	keys := []uint32{0, 1, 0x80000000, 0xFFFFFFFF, 0x0A000001, 0xC0A80101}
	for i, key := range keys {
		val := int32(i)
		got, created := tr.InsertOrGet(key, func() int32 { return val })
		if !created {
			t.Errorf("key %#x: expected a new leaf", key)
		}
		if got != val {
			t.Errorf("key %#x: got %d, want %d", key, got, val)
		}
	}

	if tr.Len() != len(keys) {
		t.Fatalf("Len() = %d, want %d", tr.Len(), len(keys))
	}

	for i, key := range keys {
		got, ok := tr.Lookup(key)
		if !ok {
			t.Fatalf("key %#x: not found after insert", key)
		}
		if got != int32(i) {
			t.Errorf("key %#x: got %d, want %d", key, got, i)
		}
	}

	if _, ok := tr.Lookup(0x0A000002); ok {
		t.Error("lookup of absent key succeeded")
	}
}

func TestInsertIdempotent(t *testing.T) {
	tr := New(16)

	first, created := tr.InsertOrGet(443, func() int32 { return 7 })
	if !created || first != 7 {
		t.Fatalf("first insert: got (%d, %v)", first, created)
	}

	nodesBefore := len(tr.nodes)
	second, created := tr.InsertOrGet(443, func() int32 {
		t.Fatal("make called for an existing key")
		return 0
	})
	if created {
		t.Error("re-insert reported a new leaf")
	}
	if second != 7 {
		t.Errorf("re-insert returned %d, want 7", second)
	}
	if len(tr.nodes) != nodesBefore {
		t.Errorf("re-insert grew the arena: %d -> %d nodes", nodesBefore, len(tr.nodes))
	}
	if tr.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tr.Len())
	}
}

func TestAllAscendingOrder(t *testing.T) {
	tr := New(16)

	inserted := make(map[uint32]int32)
	rng := rand.New(rand.NewPCG(1, 2))
	for len(inserted) < 500 {
		key := uint32(rng.UintN(65536))
		if _, dup := inserted[key]; dup {
			continue
		}
		val := int32(len(inserted))
		inserted[key] = val
		tr.InsertOrGet(key, func() int32 { return val })
	}

	var got []uint32
	for key, val := range tr.All() {
		if inserted[key] != val {
			t.Errorf("key %d: enumerated value %d, want %d", key, val, inserted[key])
		}
		got = append(got, key)
	}

	if len(got) != len(inserted) {
		t.Fatalf("enumerated %d keys, want %d", len(got), len(inserted))
	}
	if !slices.IsSorted(got) {
		t.Error("enumeration is not in ascending key order")
	}
}

func TestAllEarlyStop(t *testing.T) {
	tr := New(16)
	for _, key := range []uint32{10, 20, 30} {
		tr.InsertOrGet(key, func() int32 { return int32(key) })
	}

	var seen int
	for range tr.All() {
		seen++
		break
	}
	if seen != 1 {
		t.Errorf("early break yielded %d keys, want 1", seen)
	}
}

func TestReset(t *testing.T) {
	tr := New(16)
	for key := uint32(0); key < 100; key++ {
		tr.InsertOrGet(key, func() int32 { return int32(key) })
	}

	tr.Reset()

	if tr.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", tr.Len())
	}
	if _, ok := tr.Lookup(42); ok {
		t.Error("lookup succeeded after Reset")
	}

	val, created := tr.InsertOrGet(42, func() int32 { return 9 })
	if !created || val != 9 {
		t.Errorf("insert after Reset: got (%d, %v)", val, created)
	}
}
